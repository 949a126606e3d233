package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/hdlc485/pkg/framework"
	"github.com/robotalks/hdlc485/pkg/hdlc"
)

// Link is what the console drives for every line.
type Link interface {
	Connect() error
	SendData(payload []byte, timeout time.Duration) error
}

// Line is posted to the loop for every completed console line.
type Line struct {
	Data []byte
}

type endOfInput struct{}

// Console reads hex lines and sends each of them as an I-frame, after a
// fresh SNRM/UA handshake.
type Console struct {
	In         io.Reader
	Out        io.Writer
	Link       Link
	AckTimeout time.Duration
	// Echo writes every input character back, for serial terminals.
	Echo bool
	// BaudRate is only shown in the status banner.
	BaudRate uint32

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a Console.
func New(in io.Reader, out io.Writer, link Link) *Console {
	return &Console{
		In:         in,
		Out:        out,
		Link:       link,
		AckTimeout: time.Second,
		done:       make(chan struct{}),
	}
}

// Name implements Named.
func (c *Console) Name() string {
	return "console"
}

// Done is closed once the input ended and every line was sent.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// AddToLoop implements LoopAdder.
func (c *Console) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvLink, c)
}

// Run implements Runnable. It reads the input and posts a Line for every
// completed line to the loop. A closable input is closed on cancel.
func (c *Console) Run(ctx context.Context) error {
	lc := fx.LoopControlFrom(ctx)
	r := bufio.NewReader(c.In)
	var p Parser
	read := func() error {
		for {
			ch, err := r.ReadByte()
			if err == io.EOF {
				if p.Pending() > 0 {
					line, _ := p.Feed('\n')
					lc.PostMessage(&Line{Data: line})
				}
				lc.PostMessage(endOfInput{})
				return nil
			}
			if err != nil {
				return err
			}
			if c.Echo {
				c.Out.Write([]byte{ch})
			}
			if line, ok := p.Feed(ch); ok {
				lc.PostMessage(&Line{Data: line})
			}
		}
	}
	if closer, ok := c.In.(io.Closer); ok {
		return fx.RunWithContextCancel(ctx, func() { closer.Close() }, read)
	}
	return fx.RunWithContext(ctx, read)
}

// Control implements Controller.
func (c *Console) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		switch msg := mc.CurrentMessage().(type) {
		case *Line:
			mc.MessageTaken()
			c.Process(msg.Data)
		case endOfInput:
			mc.MessageTaken()
			c.doneOnce.Do(func() { close(c.done) })
		}
	}))
	return nil
}

// Process performs the handshake and sends data as one I-frame. It reports
// every step on Out and returns the first failure.
func (c *Console) Process(data []byte) error {
	if len(data) == 0 {
		fmt.Fprintln(c.Out, "No command to process.")
		return nil
	}
	fmt.Fprintf(c.Out, "Sending I-frame with data: %s\n", hdlc.FormatHex(data))
	fmt.Fprintln(c.Out, "Step 1: Sending SNRM and waiting for UA...")
	if err := c.Link.Connect(); err != nil {
		fmt.Fprintf(c.Out, "ERROR: SNRM/UA handshake failed: %v\n", err)
		return err
	}
	fmt.Fprintln(c.Out, "SNRM/UA handshake successful")
	fmt.Fprintln(c.Out, "Step 2: Sending I-frame...")
	if err := c.Link.SendData(data, c.AckTimeout); err != nil {
		fmt.Fprintf(c.Out, "I-frame transmission failed: %v\n", err)
		glog.Warningf("console: send %s: %v", hdlc.FormatHex(data), err)
		return err
	}
	fmt.Fprintln(c.Out, "I-frame transmission successful")
	return nil
}

// PrintStatus writes the start-up banner.
func (c *Console) PrintStatus() {
	fmt.Fprintln(c.Out, "=== HDLC RS-485 console ===")
	fmt.Fprintln(c.Out, "Usage: type a hex string (e.g. '01 02 FF') and press enter")
	fmt.Fprintln(c.Out, "SNRM is sent before each I-frame")
	if c.BaudRate > 0 {
		fmt.Fprintf(c.Out, "RS485 Baud Rate: %d\n", c.BaudRate)
	}
	fmt.Fprintln(c.Out, "Waiting for I-frame data...")
}

// FrameReporter returns a frame callback printing received frames on Out.
func (c *Console) FrameReporter() hdlc.FrameFunc {
	return func(data []byte, valid bool) {
		if !valid {
			fmt.Fprintln(c.Out, "Received HDLC frame: INVALID CRC")
			return
		}
		fmt.Fprintf(c.Out, "Received HDLC frame: VALID - %s\n", hdlc.FormatHex(data))
	}
}
