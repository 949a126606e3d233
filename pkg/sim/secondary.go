// Package sim simulates the secondary station at the other end of the bus.
package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/hdlc485/pkg/hdlc"
)

// Policy decides how the secondary answers I-frames.
type Policy int

// Policies.
const (
	// PolicyAck acknowledges in-sequence frames and rejects the rest.
	PolicyAck Policy = iota
	// PolicyReject rejects every I-frame.
	PolicyReject
	// PolicySilent never answers anything.
	PolicySilent
)

var policyNames = []string{"ack", "reject", "silent"}

// String implements fmt.Stringer.
func (p Policy) String() string {
	if p >= 0 && int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	for i, name := range policyNames {
		if strings.EqualFold(s, name) {
			return Policy(i), nil
		}
	}
	return PolicyAck, fmt.Errorf("unknown policy %q", s)
}

// Secondary answers SNRM and I-frames like a device on the bus.
// It implements mock.Peer.
type Secondary struct {
	address byte
	policy  Policy

	rx      *hdlc.Receiver
	replies [][]byte

	vr        hdlc.Seq
	connected bool
	received  [][]byte
	lock      sync.Mutex
}

// NewSecondary creates a Secondary listening on address.
func NewSecondary(address byte) *Secondary {
	s := &Secondary{address: address}
	s.rx = hdlc.NewReceiver(hdlc.WithCallback(s.handleFrame))
	return s
}

// Address returns the station address.
func (s *Secondary) Address() byte {
	return s.address
}

// SetPolicy changes the answering policy.
func (s *Secondary) SetPolicy(p Policy) {
	s.lock.Lock()
	s.policy = p
	s.lock.Unlock()
}

// Policy returns the answering policy.
func (s *Secondary) Policy() Policy {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.policy
}

// Connected reports whether SNRM was received.
func (s *Secondary) Connected() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.connected
}

// RecvSeq returns V(R).
func (s *Secondary) RecvSeq() hdlc.Seq {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.vr
}

// Received returns the payloads of accepted I-frames.
func (s *Secondary) Received() [][]byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([][]byte(nil), s.received...)
}

// Respond implements mock.Peer.
func (s *Secondary) Respond(bits []byte) []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.replies = nil
	s.rx.Reset()
	for _, bit := range bits {
		s.rx.Push(bit)
	}
	if len(s.replies) == 0 {
		return nil
	}
	out := hdlc.NewFrameBits()
	if _, err := hdlc.AssembleFrame(out, s.replies[0]); err != nil {
		glog.Errorf("sim: reply: %v", err)
		return nil
	}
	return out.Slice()
}

func (s *Secondary) handleFrame(data []byte, valid bool) {
	if len(data) < 2 || data[0] != s.address || s.policy == PolicySilent {
		return
	}
	f := &hdlc.Frame{Address: data[0], Control: data[1], Info: data[2:]}
	if !valid {
		glog.V(2).Infof("sim: %02X corrupted frame", s.address)
		if s.connected {
			s.reply(hdlc.REJ(s.vr))
		}
		return
	}
	glog.V(2).Infof("sim: %02X got %s", s.address, f)
	switch {
	case f.Control == hdlc.SNRM:
		s.vr, s.connected = 0, true
		s.reply(hdlc.UA)
	case hdlc.IsIFrame(f.Control):
		ns := hdlc.NS(f.Control)
		if s.policy == PolicyReject || ns != s.vr {
			s.reply(hdlc.REJ(s.vr))
			return
		}
		s.received = append(s.received, append([]byte(nil), f.Info...))
		s.vr = s.vr.Next()
		s.reply(hdlc.RR(ns))
	}
}

func (s *Secondary) reply(control byte) {
	s.replies = append(s.replies, []byte{s.address, control})
}
