package hdlc

// maxOnes is the longest run of 1 bits allowed inside a frame body.
const maxOnes = 5

// BitStuff appends data to dst MSB first, inserting a 0 after every run of
// five 1 bits. Runs continue across byte boundaries. It returns the number of
// bits appended. On ErrCapacity dst is left as it was.
func BitStuff(dst *Bits, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrEmptyInput
	}
	start := dst.Len()
	if n, ok := stuffInto(dst, data); ok {
		return n, nil
	}
	dst.Truncate(start)
	return 0, ErrCapacity
}

func stuffInto(dst *Bits, data []byte) (int, bool) {
	start, ones := dst.Len(), 0
	for _, v := range data {
		for i := 7; i >= 0; i-- {
			bit := (v >> uint(i)) & 1
			if !dst.Append(bit) {
				return 0, false
			}
			if bit == 0 {
				ones = 0
				continue
			}
			if ones++; ones == maxOnes {
				if !dst.Append(0) {
					return 0, false
				}
				ones = 0
			}
		}
	}
	return dst.Len() - start, true
}

// BitDestuff removes stuffed 0s from bits and packs the rest MSB first into
// dst. Only whole bytes are produced; trailing bits short of a byte are
// dropped. On ErrCapacity nothing is written to dst.
func BitDestuff(dst []byte, bits BitSequence) (int, error) {
	if bits == nil || bits.Len() == 0 {
		return 0, ErrEmptyInput
	}
	var accepted int
	destuff(bits, func(byte) { accepted++ })
	if accepted/8 > len(dst) {
		return 0, ErrCapacity
	}
	var cur byte
	var n int
	accepted = 0
	destuff(bits, func(bit byte) {
		cur = cur<<1 | bit
		if accepted++; accepted&7 == 0 {
			dst[n] = cur
			n, cur = n+1, 0
		}
	})
	return n, nil
}

func destuff(bits BitSequence, accept func(bit byte)) {
	var ones int
	for i, l := 0, bits.Len(); i < l; i++ {
		bit := bits.At(i)
		switch {
		case bit == 0 && ones == maxOnes:
			ones = 0
			continue
		case bit == 0:
			ones = 0
		default:
			ones++
		}
		accept(bit)
	}
}

// AssembleFrame appends a complete frame carrying payload to dst: opening
// flag, stuffed payload and CRC (low byte first), closing flag. The payload
// usually starts with address and control. It returns the number of bits
// appended; on error dst is left as it was.
func AssembleFrame(dst *Bits, payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, ErrEmptyInput
	}
	if len(payload)+CRCSize > MaxFrameSize {
		return 0, ErrFrameTooLarge
	}
	var body [MaxFrameSize]byte
	n := copy(body[:], payload)
	crc := CRC16(payload)
	body[n], body[n+1] = byte(crc), byte(crc>>8)
	n += CRCSize

	start := dst.Len()
	if !dst.AppendByte(Flag) {
		return 0, ErrCapacity
	}
	if _, ok := stuffInto(dst, body[:n]); !ok || !dst.AppendByte(Flag) {
		dst.Truncate(start)
		return 0, ErrCapacity
	}
	return dst.Len() - start, nil
}
