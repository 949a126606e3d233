// Package mock provides a deterministic in-memory implementation of pin.Pins.
//
// Time only moves when the code under test sleeps (plus an optional per-op
// cost), so bit timing can be verified exactly without real delays.
package mock

import (
	"github.com/robotalks/hdlc485/pkg/pin"
)

// OpKind classifies logged operations.
type OpKind int

// Logged operation kinds.
const (
	OpSetMode OpKind = iota
	OpWrite
	OpRead
	OpSleep
)

// Op is one logged pin or clock operation.
type Op struct {
	Kind   OpKind
	Pin    pin.ID
	Mode   pin.Mode
	Level  pin.Level
	Micros uint32 // sleep duration for OpSleep
	At     uint32 // virtual time when the op happened
}

// Wiring tells the mock which pins form the transceiver.
type Wiring struct {
	TX pin.ID
	RX pin.ID
	DE pin.ID
	RE pin.ID
}

// Peer is the device on the other end of the line.
type Peer interface {
	// Respond receives the bits of one complete transmission and returns the
	// bits to put on the line in reply, nil for silence.
	Respond(bits []byte) []byte
}

// PeerFunc is the func form of Peer.
type PeerFunc func(bits []byte) []byte

// Respond implements Peer.
func (f PeerFunc) Respond(bits []byte) []byte {
	return f(bits)
}

type segment struct {
	start     uint64
	bitMicros uint64
	bits      []byte
}

func (s *segment) end() uint64 {
	return s.start + uint64(len(s.bits))*s.bitMicros
}

// Pins implements pin.Pins.
type Pins struct {
	Wiring Wiring
	// BitMicros is the bit time used for injected waveforms.
	BitMicros uint32
	// Turnaround is the delay between the end of our transmission and the
	// first bit of the peer's reply.
	Turnaround uint32
	// OpCost is charged to the clock for every Read and Write.
	OpCost uint32
	// Idle is the line level when nothing is being driven.
	Idle pin.Level
	// Logging enables the operation log.
	Logging bool
	Peer    Peer

	now      uint64
	modes    [256]pin.Mode
	levels   [256]pin.Level
	log      []Op
	segments []segment

	capturing bool
	captured  []byte
	sent      [][]byte
}

// New creates Pins for a transceiver wired as w running at baud.
func New(w Wiring, baud uint32) *Pins {
	bitMicros := uint32(1000000) / baud
	return &Pins{
		Wiring:     w,
		BitMicros:  bitMicros,
		Turnaround: bitMicros * 4,
		Idle:       pin.High,
		Logging:    true,
	}
}

// SetMode implements pin.Digital.
func (p *Pins) SetMode(id pin.ID, mode pin.Mode) {
	p.modes[id] = mode
	p.record(Op{Kind: OpSetMode, Pin: id, Mode: mode})
}

// Write implements pin.Digital.
func (p *Pins) Write(id pin.ID, level pin.Level) {
	p.levels[id] = level
	p.record(Op{Kind: OpWrite, Pin: id, Level: level})
	switch id {
	case p.Wiring.DE:
		if level == pin.High {
			p.capturing, p.captured = true, nil
		} else if p.capturing {
			p.capturing = false
			p.transmissionDone()
		}
	case p.Wiring.TX:
		if p.capturing {
			p.captured = append(p.captured, level.Bit())
		}
	}
	p.now += uint64(p.OpCost)
}

// Read implements pin.Digital.
func (p *Pins) Read(id pin.ID) pin.Level {
	level := p.levels[id]
	if id == p.Wiring.RX {
		level = p.LineLevel()
	}
	p.record(Op{Kind: OpRead, Pin: id, Level: level})
	p.now += uint64(p.OpCost)
	return level
}

// SleepMicros implements pin.Clock.
func (p *Pins) SleepMicros(us uint32) {
	p.record(Op{Kind: OpSleep, Micros: us})
	p.now += uint64(us)
}

// Millis implements pin.Clock.
func (p *Pins) Millis() uint32 {
	return uint32(p.now / 1000)
}

// Micros implements pin.Clock.
func (p *Pins) Micros() uint32 {
	return uint32(p.now)
}

// Advance moves the virtual clock without logging.
func (p *Pins) Advance(us uint32) {
	p.now += uint64(us)
}

// Inject schedules bits on the receive line, starting delay microseconds
// from now, each lasting BitMicros.
func (p *Pins) Inject(bits []byte, delay uint32) {
	if len(bits) == 0 {
		return
	}
	s := segment{
		start:     p.now + uint64(delay),
		bitMicros: uint64(p.BitMicros),
		bits:      append([]byte(nil), bits...),
	}
	p.segments = append(p.segments, s)
}

// LineLevel returns the level of the receive line at the current time.
func (p *Pins) LineLevel() pin.Level {
	for i := range p.segments {
		s := &p.segments[i]
		if p.now >= s.start && p.now < s.end() {
			return pin.LevelOf(s.bits[(p.now-s.start)/s.bitMicros])
		}
	}
	return p.Idle
}

// Pending reports whether injected bits are still to be played on the line.
func (p *Pins) Pending() bool {
	for i := range p.segments {
		if p.segments[i].end() > p.now {
			return true
		}
	}
	return false
}

// Level returns the last level written to a pin.
func (p *Pins) Level(id pin.ID) pin.Level {
	return p.levels[id]
}

// Mode returns the configured mode of a pin.
func (p *Pins) Mode(id pin.ID) pin.Mode {
	return p.modes[id]
}

// Transmissions returns the bits of every completed transmission.
func (p *Pins) Transmissions() [][]byte {
	out := make([][]byte, len(p.sent))
	for i, bits := range p.sent {
		out[i] = append([]byte(nil), bits...)
	}
	return out
}

// Log returns a copy of the operation log.
func (p *Pins) Log() []Op {
	return append([]Op(nil), p.log...)
}

// ClearLog empties the operation log.
func (p *Pins) ClearLog() {
	p.log = p.log[:0]
}

// CountWrites counts writes to a pin, filtered by level unless anyLevel is true.
func (p *Pins) CountWrites(id pin.ID, level pin.Level, anyLevel bool) int {
	var n int
	for _, op := range p.log {
		if op.Kind == OpWrite && op.Pin == id && (anyLevel || op.Level == level) {
			n++
		}
	}
	return n
}

// CountSleeps counts sleep calls.
func (p *Pins) CountSleeps() int {
	var n int
	for _, op := range p.log {
		if op.Kind == OpSleep {
			n++
		}
	}
	return n
}

func (p *Pins) record(op Op) {
	if !p.Logging {
		return
	}
	op.At = uint32(p.now)
	p.log = append(p.log, op)
}

func (p *Pins) transmissionDone() {
	if len(p.captured) == 0 {
		return
	}
	bits := p.captured
	p.captured = nil
	p.sent = append(p.sent, bits)
	if p.Peer == nil {
		return
	}
	if reply := p.Peer.Respond(append([]byte(nil), bits...)); len(reply) > 0 {
		p.Inject(reply, p.Turnaround)
	}
}
