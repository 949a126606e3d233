package link

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/hdlc485/pkg/bus"
	"github.com/robotalks/hdlc485/pkg/hdlc"
)

// Default timeouts.
const (
	DefaultConnectTimeout = time.Second
	DefaultAckTimeout     = time.Second
)

// Config configures a Station.
type Config struct {
	// Address of the secondary station.
	Address byte
	// ConnectTimeout bounds the wait for UA.
	ConnectTimeout time.Duration
	// OnFrame, when set, receives every completed frame instead of the
	// take slot.
	OnFrame hdlc.FrameFunc
}

// Station is the primary end of the link.
type Station struct {
	drv  *bus.Driver
	conf Config

	rx *hdlc.Receiver
	tx *hdlc.Bits

	reply      [hdlc.MaxFrameSize]byte
	replyLen   int
	replyValid bool

	vs, vr      hdlc.Seq
	connected   bool
	initialized bool
}

// NewStation creates a Station on top of a driver.
func NewStation(drv *bus.Driver, conf Config) *Station {
	if conf.ConnectTimeout <= 0 {
		conf.ConnectTimeout = DefaultConnectTimeout
	}
	var opts []hdlc.ReceiverOption
	if conf.OnFrame != nil {
		opts = append(opts, hdlc.WithCallback(conf.OnFrame))
	}
	return &Station{
		drv:  drv,
		conf: conf,
		rx:   hdlc.NewReceiver(opts...),
		tx:   hdlc.NewFrameBits(),
	}
}

// Initialize initializes the bus. Calling it again does nothing.
func (s *Station) Initialize() {
	if s.initialized {
		return
	}
	s.drv.Initialize()
	s.initialized = true
	conf := s.drv.Config()
	glog.Infof("link: initialized address=%02X baud=%d bit=%dus", s.conf.Address, conf.BaudRate, s.drv.BitTime())
}

// Driver returns the underlying bus driver.
func (s *Station) Driver() *bus.Driver {
	return s.drv
}

// Address returns the secondary address.
func (s *Station) Address() byte {
	return s.conf.Address
}

// SendSeq returns V(S).
func (s *Station) SendSeq() hdlc.Seq {
	return s.vs
}

// RecvSeq returns V(R).
func (s *Station) RecvSeq() hdlc.Seq {
	return s.vr
}

// Connected reports whether the last handshake succeeded.
func (s *Station) Connected() bool {
	return s.connected
}

// Connect sends SNRM and waits for UA. On success both sequence numbers
// restart from zero.
func (s *Station) Connect() error {
	s.connected = false
	f := &hdlc.Frame{Address: s.conf.Address, Control: hdlc.SNRM}
	reply, err := s.exchange(f, s.conf.ConnectTimeout)
	if err != nil {
		glog.Warningf("link: SNRM failed: %v", err)
		return err
	}
	if reply.Control != hdlc.UA {
		err = &ControlError{Control: reply.Control}
		glog.Warningf("link: SNRM failed: %v", err)
		return err
	}
	s.vs, s.vr, s.connected = 0, 0, true
	glog.Infof("link: connected to %02X", s.conf.Address)
	return nil
}

// SendData sends payload in an I-frame and waits up to timeout for the
// acknowledgment. V(S) only advances on RR acknowledging V(S). An empty
// payload is rejected before anything is sent. A timeout of 0 or less
// gives up without waiting for the reply.
func (s *Station) SendData(payload []byte, timeout time.Duration) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if len(payload) == 0 {
		return hdlc.ErrEmptyInput
	}
	f := &hdlc.Frame{
		Address: s.conf.Address,
		Control: hdlc.IFrame(s.vs, s.vr),
		Info:    payload,
	}
	reply, err := s.exchange(f, timeout)
	if err != nil {
		glog.Warningf("link: I(%d) failed: %v", s.vs, err)
		return err
	}
	switch c := reply.Control; {
	case hdlc.IsRR(c):
		if nr := hdlc.NR(c); nr != s.vs {
			err = &SequenceError{Want: s.vs, Got: nr}
		}
	case hdlc.IsREJ(c):
		err = ErrRejected
	default:
		err = &ControlError{Control: c}
	}
	if err != nil {
		glog.Warningf("link: I(%d) failed: %v", s.vs, err)
		return err
	}
	glog.V(2).Infof("link: I(%d) acknowledged", s.vs)
	s.vs = s.vs.Next()
	return nil
}

// SendFrame transmits payload as a raw frame, without waiting for a reply.
func (s *Station) SendFrame(payload []byte) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	s.tx.Reset()
	if _, err := hdlc.AssembleFrame(s.tx, payload); err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("link: TX %s", hdlc.FormatHex(payload))
	}
	s.drv.Transmit(s.tx)
	return nil
}

// SendHex transmits a raw frame given as hex.
func (s *Station) SendHex(str string) error {
	payload, err := hdlc.ParseHex(str)
	if err != nil {
		return err
	}
	return s.SendFrame(payload)
}

// ReceiveFrame waits up to timeout for one frame and delivers it to the
// slot or callback. A timeout of 0 or less returns ErrTimeout at once. A valid in-sequence I-frame from the secondary
// advances V(R).
func (s *Station) ReceiveFrame(timeout time.Duration) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	if !s.receive(timeout) {
		return ErrTimeout
	}
	if s.replyValid && s.replyLen >= 2 && s.reply[0] == s.conf.Address {
		if c := s.reply[1]; hdlc.IsIFrame(c) && hdlc.NS(c) == s.vr {
			s.vr = s.vr.Next()
		}
	}
	return nil
}

// TakeFrame removes the frame waiting in the slot.
func (s *Station) TakeFrame() (hdlc.Received, bool) {
	return s.rx.Take()
}

// TakeHex removes the frame waiting in the slot and formats it as hex.
func (s *Station) TakeHex() (string, bool) {
	return s.rx.TakeHex()
}

func (s *Station) exchange(f *hdlc.Frame, timeout time.Duration) (*hdlc.Frame, error) {
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if err := s.SendFrame(f.Bytes()); err != nil {
		return nil, err
	}
	if !s.receive(timeout) {
		return nil, ErrTimeout
	}
	if !s.rx.UsesCallback() {
		// replies to our own commands are consumed here
		s.rx.Take()
	}
	if s.replyLen < 2 {
		return nil, ErrShortReply
	}
	if !s.replyValid {
		return nil, ErrCorrupted
	}
	reply, _ := hdlc.ParseFrame(s.reply[:s.replyLen])
	if reply.Address != s.conf.Address {
		return nil, &AddressError{Want: s.conf.Address, Got: reply.Address}
	}
	return reply, nil
}
