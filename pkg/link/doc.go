// Package link implements the primary station of a point-to-point HDLC
// exchange over a bit-banged RS-485 bus.
package link

// The exchange is deliberately small:
//
//	primary                 secondary
//	SNRM        --------->
//	            <---------  UA
//	I(N(S)=V(S)) -------->
//	            <---------  RR(N(R)=V(S))  V(S) advances
//	                     or REJ            V(S) unchanged
//
// Only one frame is outstanding at a time and nothing is retransmitted
// automatically: a failed SendData returns an error and the caller decides
// whether to send again.
//
// All operations block and busy-wait on the bus clock. A Station must only
// be used from one goroutine.
