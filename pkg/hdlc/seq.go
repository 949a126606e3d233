package hdlc

// SeqModulus is the modulus of frame sequence numbers.
const SeqModulus = 8

// Seq is a frame sequence number, V(S), V(R), N(S) or N(R).
type Seq byte

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	return (s + 1) % SeqModulus
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	return s < SeqModulus
}
