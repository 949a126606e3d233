// Package hdlc implements HDLC-style framing for a bit-banged serial link.
package hdlc

// A frame on the wire looks like
//
//	0x7E | address | control | info... | CRC low | CRC high | 0x7E
//
// Everything between the two flags is bit stuffed: a 0 is inserted after
// every run of five 1 bits, so the flag pattern 01111110 can only appear at
// the frame boundaries. Bits are sent MSB first.
//
// The CRC is CRC-16/CCITT-FALSE (polynomial 0x1021, initial value 0xFFFF,
// no reflection, no final XOR) computed over address, control and info
// before stuffing.
//
// The codec functions never allocate on the bit path: bit sequences are
// kept in Bits values sized once for the largest supported frame.
