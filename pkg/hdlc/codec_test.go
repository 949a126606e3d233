package hdlc

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bitsOf(s string) BitSlice {
	s = strings.Replace(s, " ", "", -1)
	out := make(BitSlice, len(s))
	for i, c := range s {
		if c == '1' {
			out[i] = 1
		}
	}
	return out
}

func randomPayloads(count, maxLen int) [][]byte {
	rnd := rand.New(rand.NewSource(485))
	out := make([][]byte, 0, count+4)
	out = append(out,
		[]byte{0xff},
		[]byte{0x7e, 0x7e, 0x7e},
		[]byte{0xff, 0xff, 0xff, 0xff, 0xff},
		[]byte{0x01, 0x83},
	)
	for i := 0; i < count; i++ {
		b := make([]byte, 1+rnd.Intn(maxLen))
		rnd.Read(b)
		out = append(out, b)
	}
	return out
}

func TestCRC16(t *testing.T) {
	testCases := []struct {
		name string
		in   []byte
		crc  uint16
	}{
		{"empty", nil, 0xffff},
		{"counting", []byte{0x01, 0x02, 0x03, 0x04}, 0x89c3},
		{"check", []byte("123456789"), 0x29b1},
		{"snrm", []byte{0x01, SNRM}, 0x8fd5},
		{"ua", []byte{0x01, UA}, 0x72fb},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.crc, CRC16(tc.in))
		})
	}
}

func TestCRC16SingleBitFlip(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	golden := CRC16(in)
	for i := 0; i < len(in)*8; i++ {
		flipped := append([]byte(nil), in...)
		flipped[i/8] ^= 0x80 >> uint(i%8)
		assert.NotEqual(t, golden, CRC16(flipped), "bit %d", i)
	}
}

func TestAppendAndCheckCRC(t *testing.T) {
	frame := AppendCRC([]byte{0x01, 0x02, 0x03, 0x04})
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0xc3, 0x89}, frame)
	assert.True(t, CheckCRC(frame))
	frame[5] ^= 0x10
	assert.False(t, CheckCRC(frame))
	assert.False(t, CheckCRC([]byte{0xff}))
	assert.True(t, CheckCRC([]byte{0xff, 0xff}))
}

func TestBits(t *testing.T) {
	b := NewBits(10)
	assert.Equal(t, 16, b.Cap())
	for _, bit := range bitsOf("1011 0011 0") {
		require.True(t, b.Append(bit))
	}
	assert.Equal(t, 9, b.Len())
	assert.Equal(t, "101100110", b.String())
	assert.Equal(t, []byte{0xb3, 0x00}, b.Bytes())
	assert.False(t, b.AppendByte(0xff))
	assert.Equal(t, 9, b.Len())
	for b.Len() < b.Cap() {
		require.True(t, b.Append(1))
	}
	assert.False(t, b.Append(1))
	b.Truncate(4)
	assert.Equal(t, "1011", b.String())
	assert.Equal(t, BitSlice{1, 0, 1, 1}, b.Slice())
	b.Reset()
	assert.Equal(t, 0, b.Len())
	require.True(t, b.AppendByte(Flag))
	assert.Equal(t, []byte{Flag}, b.Bytes())
}

func TestBitStuffRule(t *testing.T) {
	testCases := []struct {
		name string
		in   []byte
		out  string
	}{
		{"no run", []byte{0x55}, "01010101"},
		{"four ones", []byte{0x1e}, "00011110"},
		{"five ones", []byte{0x3e}, "00111110 0"},
		{"flag", []byte{0x7e}, "0111110 10"},
		{"across bytes", []byte{0x07, 0xc0}, "00000111 11 0 000000"},
		{"all ones", []byte{0xff, 0xff}, "11111 0 11111 0 11111 0 1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dst := NewFrameBits()
			n, err := BitStuff(dst, tc.in)
			require.NoError(t, err)
			expected := bitsOf(tc.out)
			assert.Equal(t, len(expected), n)
			assert.Equal(t, expected, dst.Slice())
		})
	}
}

func TestBitStuffErrors(t *testing.T) {
	dst := NewBits(16)
	n, err := BitStuff(dst, nil)
	assert.Equal(t, ErrEmptyInput, err)
	assert.Zero(t, n)

	n, err = BitStuff(dst, []byte{0xff, 0xff})
	assert.Equal(t, ErrCapacity, err)
	assert.Zero(t, n)
	assert.Zero(t, dst.Len(), "no partial output")

	require.True(t, dst.AppendByte(0xa5))
	_, err = BitStuff(dst, []byte{0xff})
	assert.Equal(t, ErrCapacity, err)
	assert.Equal(t, 8, dst.Len(), "existing bits kept")
}

func TestBitDestuff(t *testing.T) {
	dst := make([]byte, 4)
	n, err := BitDestuff(dst, bitsOf("11111 0 11111 0 11111 0 1"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff}, dst[:n])

	n, err = BitDestuff(dst, bitsOf("00111110 0 101"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3e}, dst[:n], "trailing partial byte dropped")

	n, err = BitDestuff(dst, bitsOf("0101"))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = BitDestuff(dst, BitSlice{})
	assert.Equal(t, ErrEmptyInput, err)
	_, err = BitDestuff(dst, nil)
	assert.Equal(t, ErrEmptyInput, err)

	small := []byte{0xaa}
	n, err = BitDestuff(small, bitsOf("11111 0 11111 0 11111 0 1"))
	assert.Equal(t, ErrCapacity, err)
	assert.Zero(t, n)
	assert.Equal(t, []byte{0xaa}, small, "nothing written")
}

func TestStuffRoundTrip(t *testing.T) {
	for _, payload := range randomPayloads(200, MaxFrameSize) {
		bits := NewFrameBits()
		_, err := BitStuff(bits, payload)
		require.NoError(t, err)
		out := make([]byte, MaxFrameSize)
		n, err := BitDestuff(out, bits)
		require.NoError(t, err)
		require.Equal(t, payload, out[:n])
	}
}

func TestStuffedNeverContainsFlag(t *testing.T) {
	for _, payload := range randomPayloads(200, 64) {
		bits := NewFrameBits()
		_, err := BitStuff(bits, payload)
		require.NoError(t, err)
		s := bits.String()
		require.NotContains(t, s, "01111110", "payload % x", payload)
		require.NotContains(t, s, "111111", "payload % x", payload)
	}
}

func TestAssembleFrameGolden(t *testing.T) {
	bits := NewFrameBits()
	n, err := AssembleFrame(bits, []byte{0x01, SNRM})
	require.NoError(t, err)
	expected := bitsOf("01111110 00000001 10000011 11010101 10001111 01111110")
	assert.Equal(t, len(expected), n)
	assert.Equal(t, expected, bits.Slice())
}

func TestAssembleFrame(t *testing.T) {
	for _, payload := range randomPayloads(100, MaxFrameSize-CRCSize) {
		bits := NewFrameBits()
		n, err := AssembleFrame(bits, payload)
		require.NoError(t, err)
		require.Equal(t, bits.Len(), n)
		s := bits.String()
		require.True(t, strings.HasPrefix(s, "01111110"))
		require.True(t, strings.HasSuffix(s, "01111110"))
		require.NotContains(t, s[FlagBits:len(s)-FlagBits], "01111110")

		body := bits.Slice()[FlagBits : n-FlagBits]
		out := make([]byte, MaxFrameSize)
		l, err := BitDestuff(out, body)
		require.NoError(t, err)
		require.Equal(t, AppendCRC(append([]byte(nil), payload...)), out[:l])
	}
}

func TestAssembleFrameErrors(t *testing.T) {
	bits := NewFrameBits()
	_, err := AssembleFrame(bits, nil)
	assert.Equal(t, ErrEmptyInput, err)

	_, err = AssembleFrame(bits, make([]byte, MaxFrameSize-1))
	assert.Equal(t, ErrFrameTooLarge, err)
	assert.Zero(t, bits.Len())

	small := NewBits(40)
	_, err = AssembleFrame(small, []byte{0x01, SNRM})
	assert.Equal(t, ErrCapacity, err)
	assert.Zero(t, small.Len(), "no partial output")

	_, err = AssembleFrame(NewBits(4), []byte{0x01})
	assert.Equal(t, ErrCapacity, err)
}
