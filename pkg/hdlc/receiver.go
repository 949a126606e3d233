package hdlc

// State is the state of a Receiver.
type State int

const (
	// SeekingFlag waits for an opening flag.
	SeekingFlag State = iota
	// InFrame accumulates frame bits until the closing flag.
	InFrame
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == InFrame {
		return "InFrame"
	}
	return "SeekingFlag"
}

// flagTailBits is how many bits of the closing flag are accepted as data
// before the flag is recognized: its leading 0 and six 1s.
const flagTailBits = 7

// Result indicates the result after one Push.
type Result struct {
	State State
	// Flag is set when the last 8 bits formed a flag.
	Flag bool
	// Complete is set when a frame was finalized and delivered.
	Complete bool
	// Valid is the CRC check of the completed frame.
	Valid bool
	// Frame is the completed frame without CRC. It aliases the receiver's
	// buffer and is only valid until the next Push or Reset.
	Frame []byte
}

// Received is a delivered frame, CRC excluded.
type Received struct {
	Data  []byte
	Valid bool
}

// FrameFunc receives completed frames. data is only valid during the call.
type FrameFunc func(data []byte, valid bool)

// Slot holds the last completed frame until taken.
type Slot struct {
	data  [MaxFrameSize]byte
	n     int
	valid bool
	full  bool
}

// Put stores a frame, overwriting any unconsumed one.
func (s *Slot) Put(data []byte, valid bool) {
	s.n = copy(s.data[:], data)
	s.valid, s.full = valid, true
}

// HasData reports whether a frame is waiting.
func (s *Slot) HasData() bool {
	return s.full
}

// Take removes the waiting frame.
func (s *Slot) Take() (Received, bool) {
	if !s.full {
		return Received{}, false
	}
	s.full = false
	return Received{Data: append([]byte(nil), s.data[:s.n]...), Valid: s.valid}, true
}

// Clear drops the waiting frame.
func (s *Slot) Clear() {
	s.full = false
}

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// WithCallback delivers completed frames to fn instead of the slot.
func WithCallback(fn FrameFunc) ReceiverOption {
	return func(r *Receiver) {
		r.callback = fn
	}
}

// Receiver turns a stream of bits into frames, one bit at a time.
// A closing flag returns it to SeekingFlag, so a frame whose opening flag is
// shared with the previous frame's closing flag is not received. A flag
// closing fewer than two bytes opens a new frame instead.
type Receiver struct {
	callback FrameFunc
	slot     Slot

	state    State
	shift    byte
	absorbed int
	ones     int

	buf      [MaxFrameSize + 1]byte
	accepted int
}

// NewReceiver creates a Receiver delivering to its slot unless
// WithCallback is given.
func NewReceiver(opts ...ReceiverOption) *Receiver {
	r := &Receiver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UsesCallback reports whether frames go to a callback.
func (r *Receiver) UsesCallback() bool {
	return r.callback != nil
}

// State returns the current state.
func (r *Receiver) State() State {
	return r.state
}

// Reset starts over seeking a flag. A frame waiting in the slot is kept.
func (r *Receiver) Reset() {
	r.state = SeekingFlag
	r.shift, r.absorbed = 0, 0
	r.startFrame()
}

// HasData reports whether a frame is waiting in the slot.
func (r *Receiver) HasData() bool {
	return r.slot.HasData()
}

// Take removes the frame waiting in the slot.
func (r *Receiver) Take() (Received, bool) {
	return r.slot.Take()
}

// TakeHex removes the frame waiting in the slot and formats it as hex.
func (r *Receiver) TakeHex() (string, bool) {
	rcv, ok := r.slot.Take()
	if !ok {
		return "", false
	}
	return FormatHex(rcv.Data), true
}

// Push consumes one bit.
func (r *Receiver) Push(bit byte) (res Result) {
	bit &= 1
	r.shift = r.shift<<1 | bit
	if r.absorbed < 8 {
		r.absorbed++
	}
	res.Flag = r.absorbed >= 8 && r.shift == Flag

	switch r.state {
	case SeekingFlag:
		if res.Flag {
			r.state = InFrame
			r.startFrame()
		}
	case InFrame:
		switch {
		case bit == 0 && r.ones == maxOnes:
			r.ones = 0
		case bit == 0 && r.ones == maxOnes+1 && res.Flag:
			r.finish(&res)
		default:
			if bit == 0 {
				r.ones = 0
			} else {
				r.ones++
			}
			r.accept(bit)
		}
	}
	res.State = r.state
	return
}

func (r *Receiver) startFrame() {
	r.accepted, r.ones = 0, 0
}

func (r *Receiver) accept(bit byte) {
	if r.accepted < len(r.buf)*8 {
		i := r.accepted >> 3
		mask := byte(0x80) >> uint(r.accepted&7)
		if bit != 0 {
			r.buf[i] |= mask
		} else {
			r.buf[i] &^= mask
		}
	}
	r.accepted++
}

func (r *Receiver) finish(res *Result) {
	bits := r.accepted - flagTailBits
	n := bits / 8
	if n < CRCSize {
		// Too short to be a frame: the flag opens the next one instead.
		r.startFrame()
		return
	}
	overflow := n > MaxFrameSize
	if overflow {
		n = MaxFrameSize
	}
	frame := r.buf[:n]
	res.Complete = true
	res.Valid = !overflow && CheckCRC(frame)
	res.Frame = frame[:n-CRCSize]
	r.state = SeekingFlag
	r.startFrame()

	if r.callback != nil {
		r.callback(res.Frame, res.Valid)
	} else {
		r.slot.Put(res.Frame, res.Valid)
	}
}
