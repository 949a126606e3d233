package link

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/hdlc485/pkg/hdlc"
	"github.com/robotalks/hdlc485/pkg/pin"
)

// idleResync is the number of consecutive idle (1) bits after which the
// sampler gives up its bit phase and hunts for the next falling edge.
const idleResync = 16

// receive samples the bus until a frame completes or timeout expires.
// The completed frame is copied into s.reply.
func (s *Station) receive(timeout time.Duration) bool {
	clock := s.drv.Clock()
	limit := uint32(timeout / time.Millisecond)
	start := clock.Millis()
	expired := func() bool {
		return pin.ElapsedMillis(clock, start) >= limit
	}

	poll := s.drv.BitTime() / 8
	if poll == 0 {
		poll = 1
	}

	s.rx.Reset()
	for {
		// hunt for the falling edge starting the next frame.
		for prev := s.drv.SampleBit(); ; {
			if expired() {
				return false
			}
			clock.SleepMicros(poll)
			bit := s.drv.SampleBit()
			if prev == 1 && bit == 0 {
				break
			}
			prev = bit
		}
		// move to the centre of the bit.
		s.drv.WaitHalfBitTime()

		for ones := 0; ones < idleResync || s.rx.State() == hdlc.InFrame; {
			t0 := clock.Micros()
			bit := s.drv.SampleBit()
			res := s.rx.Push(bit)
			if res.Complete {
				s.replyLen = copy(s.reply[:], res.Frame)
				s.replyValid = res.Valid
				if glog.V(2) {
					glog.Infof("link: RX %s valid=%v", hdlc.FormatHex(res.Frame), res.Valid)
				}
				return true
			}
			if expired() {
				return false
			}
			if bit == 1 {
				ones++
			} else {
				ones = 0
			}
			s.drv.WaitBitTime(pin.ElapsedMicros(clock, t0))
		}
	}
}
