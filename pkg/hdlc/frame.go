package hdlc

// Frame is the content of a frame between the flags, CRC excluded.
type Frame struct {
	Address byte
	Control byte
	Info    []byte
}

// Bytes returns address, control and info.
func (f *Frame) Bytes() []byte {
	return f.AppendTo(make([]byte, 0, len(f.Info)+2))
}

// AppendTo appends address, control and info to b.
func (f *Frame) AppendTo(b []byte) []byte {
	b = append(b, f.Address, f.Control)
	return append(b, f.Info...)
}

// String implements fmt.Stringer.
func (f *Frame) String() string {
	s := ControlString(f.Control) + " @" + FormatHex([]byte{f.Address})
	if len(f.Info) > 0 {
		s += " [" + FormatHex(f.Info) + "]"
	}
	return s
}

// ParseFrame splits received frame content. Info aliases data.
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < 2 {
		return nil, ErrShortFrame
	}
	f := &Frame{Address: data[0], Control: data[1]}
	if len(data) > 2 {
		f.Info = data[2:]
	}
	return f, nil
}
