package hdlc

const (
	// Flag delimits frames.
	Flag byte = 0x7E
	// FlagBits is the length of a flag on the wire.
	FlagBits = 8
	// MaxFrameSize is the largest frame in bytes, CRC included.
	MaxFrameSize = 256
	// MaxFrameBits is the longest possible stuffed frame including both
	// flags.
	MaxFrameBits = MaxFrameSize*8 + MaxFrameSize*8/5 + 2*FlagBits
)

// BitSequence is a read-only sequence of bits, each 0 or 1.
type BitSequence interface {
	Len() int
	At(i int) byte
}

// BitSlice is a BitSequence holding one bit per byte.
type BitSlice []byte

// Len implements BitSequence.
func (s BitSlice) Len() int {
	return len(s)
}

// At implements BitSequence.
func (s BitSlice) At(i int) byte {
	return s[i] & 1
}

// Bits is a bounded bit buffer packed MSB first.
// The storage is allocated once; Append fails instead of growing.
type Bits struct {
	buf []byte
	n   int
}

// NewBits creates Bits holding at most capBits bits.
func NewBits(capBits int) *Bits {
	return &Bits{buf: make([]byte, (capBits+7)/8)}
}

// NewFrameBits creates Bits large enough for any frame.
func NewFrameBits() *Bits {
	return NewBits(MaxFrameBits)
}

// Len implements BitSequence.
func (b *Bits) Len() int {
	return b.n
}

// Cap returns the capacity in bits.
func (b *Bits) Cap() int {
	return len(b.buf) * 8
}

// At implements BitSequence.
func (b *Bits) At(i int) byte {
	return (b.buf[i>>3] >> (7 - uint(i&7))) & 1
}

// Append adds one bit, returning false when full.
func (b *Bits) Append(bit byte) bool {
	if b.n >= b.Cap() {
		return false
	}
	mask := byte(0x80) >> uint(b.n&7)
	if bit != 0 {
		b.buf[b.n>>3] |= mask
	} else {
		b.buf[b.n>>3] &^= mask
	}
	b.n++
	return true
}

// AppendByte adds eight bits MSB first, unstuffed.
func (b *Bits) AppendByte(v byte) bool {
	if b.n+8 > b.Cap() {
		return false
	}
	for i := 7; i >= 0; i-- {
		b.Append((v >> uint(i)) & 1)
	}
	return true
}

// Reset empties the buffer.
func (b *Bits) Reset() {
	b.n = 0
}

// Truncate drops everything after the first n bits.
func (b *Bits) Truncate(n int) {
	if n >= 0 && n < b.n {
		b.n = n
	}
}

// Bytes returns the packed bits; a trailing partial byte is padded with 0s.
func (b *Bits) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)
	copy(out, b.buf)
	if r := b.n & 7; r != 0 {
		out[len(out)-1] &= 0xff << uint(8-r)
	}
	return out
}

// Slice returns the bits one per byte.
func (b *Bits) Slice() BitSlice {
	out := make(BitSlice, b.n)
	for i := range out {
		out[i] = b.At(i)
	}
	return out
}

// String renders the bits as 0s and 1s.
func (b *Bits) String() string {
	s := make([]byte, b.n)
	for i := range s {
		s[i] = '0' + b.At(i)
	}
	return string(s)
}
