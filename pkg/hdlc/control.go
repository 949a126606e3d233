package hdlc

import "fmt"

// Control field codes.
const (
	// SNRM sets normal response mode (connection request).
	SNRM byte = 0x83
	// UA acknowledges an unnumbered command.
	UA byte = 0x63
	// IBase is the control of an I-frame before sequence numbers.
	IBase byte = 0x00
	// RRBase is the control of a receive-ready frame before N(R).
	RRBase byte = 0x01
	// REJBase is the control of a reject frame before N(R).
	REJBase byte = 0x09
)

// IFrame encodes the control of an information frame, N(S) in bits 1-3 and
// N(R) in bits 5-7.
func IFrame(ns, nr Seq) byte {
	return IBase | byte(ns%SeqModulus)<<1 | byte(nr%SeqModulus)<<5
}

// RR encodes a receive-ready control acknowledging nr.
func RR(nr Seq) byte {
	return RRBase | byte(nr%SeqModulus)<<5
}

// REJ encodes a reject control asking for nr.
func REJ(nr Seq) byte {
	return REJBase | byte(nr%SeqModulus)<<5
}

// IsIFrame reports whether c is an information frame (bit0 clear).
func IsIFrame(c byte) bool {
	return c&0x01 == 0
}

// IsRR reports whether c is receive-ready: bit0 set, bits 1 and 3 clear.
// N(R) is read from bits 5-7 only. A peer placing its sequence in bits 1-3
// instead answers 0x03 for N(R)=1, which is not RR here, and 0x05 for
// N(R)=2, which reads as RR(0). Such a peer only interoperates while V(S)
// is 0.
func IsRR(c byte) bool {
	return c&0x0b == RRBase
}

// IsREJ reports whether c is a reject: low nibble 0x09.
func IsREJ(c byte) bool {
	return c&0x0f == REJBase
}

// NS extracts N(S) from an I-frame control.
func NS(c byte) Seq {
	return Seq(c>>1) & 0x07
}

// NR extracts N(R) from an I-frame or supervisory control.
func NR(c byte) Seq {
	return Seq(c >> 5)
}

// ControlString names a control byte for logging.
func ControlString(c byte) string {
	switch {
	case c == SNRM:
		return "SNRM"
	case c == UA:
		return "UA"
	case IsIFrame(c):
		return fmt.Sprintf("I(%d,%d)", NS(c), NR(c))
	case IsRR(c):
		return fmt.Sprintf("RR(%d)", NR(c))
	case IsREJ(c):
		return fmt.Sprintf("REJ(%d)", NR(c))
	}
	return fmt.Sprintf("0x%02X", c)
}
