package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/hdlc485/pkg/framework"
	"github.com/robotalks/hdlc485/pkg/hdlc"
	"github.com/robotalks/hdlc485/pkg/link"
)

// Default gateway timeouts.
const (
	DefaultAckTimeout  = link.DefaultAckTimeout
	DefaultPollTimeout = 20 * time.Millisecond
)

// Link is the part of a link.Station the gateway drives.
type Link interface {
	Address() byte
	SendSeq() hdlc.Seq
	RecvSeq() hdlc.Seq
	Connected() bool
	Connect() error
	SendData(payload []byte, timeout time.Duration) error
	ReceiveFrame(timeout time.Duration) error
}

// SendRequest is posted to the loop for every payload read from the transport.
type SendRequest struct {
	Payload []byte
}

// Gateway bridges a station and a packet transport. Packets read from the
// transport are sent as I-frames, every frame received from the bus and
// every send result is written back as an encoded Record.
//
// The station must deliver frames to Gateway.OnFrame.
type Gateway struct {
	Link        Link
	Conn        PacketReadWriter
	AckTimeout  time.Duration
	PollTimeout time.Duration
	// AutoConnect performs the SNRM/UA handshake before sending when the
	// link is not connected.
	AutoConnect bool
	// Now stamps records, time.Now if nil.
	Now func() time.Time

	lock    sync.Mutex
	pending []*Record
}

// NewGateway creates a Gateway writing records to conn.
func NewGateway(conn PacketReadWriter) *Gateway {
	return &Gateway{
		Conn:        conn,
		AckTimeout:  DefaultAckTimeout,
		PollTimeout: DefaultPollTimeout,
		AutoConnect: true,
	}
}

// Name implements Named.
func (g *Gateway) Name() string {
	return "gateway"
}

// AddToLoop implements LoopAdder.
func (g *Gateway) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvLink, g)
	if r, ok := g.Conn.(fx.Runnable); ok {
		l.AddRunnable(r)
	}
}

// OnFrame is the frame callback for the station.
func (g *Gateway) OnFrame(data []byte, valid bool) {
	g.queue(NewRecord(Inbound, data, valid, g.now()))
}

// Run implements Runnable. It reads payloads from the transport and posts
// them to the loop.
func (g *Gateway) Run(ctx context.Context) error {
	lc := fx.LoopControlFrom(ctx)
	read := func() error {
		for {
			pkt, err := g.Conn.ReadPacket()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			glog.V(2).Infof("gateway: payload %s", hdlc.FormatHex(pkt))
			lc.PostMessage(&SendRequest{Payload: pkt})
		}
	}
	if closer, ok := g.Conn.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, read)
	}
	return fx.RunWithContext(ctx, read)
}

// Control implements Controller. Posted payloads are sent first, the bus
// is only polled in iterations without anything to send.
func (g *Gateway) Control(cc fx.ControlContext) error {
	if g.Link == nil {
		return ErrNoLink
	}
	var sent bool
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if msg, ok := mc.CurrentMessage().(*SendRequest); ok {
			mc.MessageTaken()
			g.Send(msg.Payload)
			sent = true
		}
	}))
	if !sent && g.PollTimeout > 0 {
		if err := g.Link.ReceiveFrame(g.PollTimeout); err != nil && !errors.Is(err, link.ErrTimeout) {
			glog.Warningf("gateway: receive: %v", err)
		}
	}
	return g.Flush()
}

// Send sends payload as one I-frame and queues the Outbound record.
func (g *Gateway) Send(payload []byte) error {
	err := g.connect()
	f := &hdlc.Frame{
		Address: g.Link.Address(),
		Control: hdlc.IFrame(g.Link.SendSeq(), g.Link.RecvSeq()),
		Info:    payload,
	}
	if err == nil {
		err = g.Link.SendData(payload, g.AckTimeout)
	}
	rec := NewRecord(Outbound, f.Bytes(), err == nil, g.now())
	if err != nil {
		rec.Error = err.Error()
	}
	g.queue(rec)
	return err
}

// Flush writes all queued records to the transport.
func (g *Gateway) Flush() error {
	g.lock.Lock()
	recs := g.pending
	g.pending = nil
	g.lock.Unlock()

	var errs fx.AggregatedError
	for _, rec := range recs {
		data, err := rec.Encode()
		if err == nil {
			err = g.Conn.WritePacket(data)
		}
		if err != nil {
			glog.Warningf("gateway: publish %s: %v", rec.Summary(), err)
		}
		errs.Add(err)
	}
	return errs.Aggregate()
}

func (g *Gateway) connect() error {
	if !g.AutoConnect || g.Link.Connected() {
		return nil
	}
	return g.Link.Connect()
}

func (g *Gateway) queue(rec *Record) {
	glog.V(2).Infof("gateway: %s", rec.Summary())
	g.lock.Lock()
	g.pending = append(g.pending, rec)
	g.lock.Unlock()
}

func (g *Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
