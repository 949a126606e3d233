package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/hdlc485/pkg/bus"
	fx "github.com/robotalks/hdlc485/pkg/framework"
	"github.com/robotalks/hdlc485/pkg/hdlc"
	"github.com/robotalks/hdlc485/pkg/link"
	"github.com/robotalks/hdlc485/pkg/pin/mock"
	"github.com/robotalks/hdlc485/pkg/sim"
)

type fakeLink struct {
	connected  bool
	connectErr error
	sendErr    error
	vs         hdlc.Seq
	sent       [][]byte
	polls      int
	onPoll     func()
}

func (l *fakeLink) Address() byte { return 0x01 }
func (l *fakeLink) SendSeq() hdlc.Seq { return l.vs }
func (l *fakeLink) RecvSeq() hdlc.Seq { return 0 }
func (l *fakeLink) Connected() bool { return l.connected }

func (l *fakeLink) Connect() error {
	l.connected = l.connectErr == nil
	return l.connectErr
}

func (l *fakeLink) SendData(payload []byte, timeout time.Duration) error {
	if l.sendErr != nil {
		return l.sendErr
	}
	l.sent = append(l.sent, payload)
	l.vs = l.vs.Next()
	return nil
}

func (l *fakeLink) ReceiveFrame(timeout time.Duration) error {
	l.polls++
	if l.onPoll != nil {
		l.onPoll()
	}
	return link.ErrTimeout
}

type chanConn struct {
	in        chan []byte
	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanConn() *chanConn {
	return &chanConn{
		in:     make(chan []byte, 4),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *chanConn) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *chanConn) WritePacket(pkt []byte) error {
	c.out <- pkt
	return nil
}

func (c *chanConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *chanConn) records(t *testing.T) []*Record {
	var recs []*Record
	for {
		select {
		case pkt := <-c.out:
			rec, err := DecodeRecord(pkt)
			require.NoError(t, err)
			recs = append(recs, rec)
		default:
			return recs
		}
	}
}

func (c *chanConn) waitRecord(t *testing.T) *Record {
	select {
	case pkt := <-c.out:
		rec, err := DecodeRecord(pkt)
		require.NoError(t, err)
		return rec
	case <-time.After(5 * time.Second):
		t.Fatal("no record published")
	}
	return nil
}

func TestGatewaySend(t *testing.T) {
	errNope := errors.New("nope")
	testCases := []struct {
		name      string
		link      *fakeLink
		sent      [][]byte
		connected bool
		valid     bool
		errMsg    string
	}{
		{"success", &fakeLink{}, [][]byte{{0x01, 0x02}}, true, true, ""},
		{"already connected", &fakeLink{connected: true, vs: 5}, [][]byte{{0x01, 0x02}}, true, true, ""},
		{"handshake failed", &fakeLink{connectErr: errNope}, nil, false, false, "nope"},
		{"send failed", &fakeLink{sendErr: errNope}, nil, true, false, "nope"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn := newChanConn()
			g := NewGateway(conn)
			g.Link = tc.link
			vs := tc.link.vs
			l := fx.NewLoop()
			l.Add(g)
			l.PostMessage(&SendRequest{Payload: []byte{0x01, 0x02}})
			l.RunIteration(context.Background())

			assert.Equal(t, tc.sent, tc.link.sent)
			assert.Equal(t, tc.connected, tc.link.connected)
			assert.Zero(t, tc.link.polls)
			recs := conn.records(t)
			require.Len(t, recs, 1)
			rec := recs[0]
			assert.Equal(t, Outbound, rec.Direction)
			assert.Equal(t, uint32(0x01), rec.Address)
			assert.Equal(t, uint32(hdlc.IFrame(vs, 0)), rec.Control)
			assert.Equal(t, []byte{0x01, 0x02}, rec.Info)
			assert.Equal(t, tc.valid, rec.Valid)
			assert.Equal(t, tc.errMsg, rec.Error)
			assert.False(t, rec.Timestamp().IsZero())
		})
	}
}

func TestGatewayPoll(t *testing.T) {
	conn := newChanConn()
	g := NewGateway(conn)
	at := time.Unix(1600000000, 0)
	g.Now = func() time.Time { return at }
	fl := &fakeLink{}
	fl.onPoll = func() { g.OnFrame([]byte{0x01, hdlc.UA}, true) }
	g.Link = fl

	l := fx.NewLoop()
	l.Add(g)
	l.RunIteration(context.Background())
	assert.Equal(t, 1, fl.polls)
	recs := conn.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, Inbound, recs[0].Direction)
	assert.Equal(t, uint32(hdlc.UA), recs[0].Control)
	assert.True(t, recs[0].Valid)
	assert.True(t, at.Equal(recs[0].Timestamp()))
}

func TestGatewayWithoutLink(t *testing.T) {
	g := NewGateway(newChanConn())
	l := fx.NewLoop()
	var err error
	l.AddController(fx.PrLvLink, fx.ControlFunc(func(cc fx.ControlContext) error {
		err = g.Control(cc)
		return nil
	}))
	l.RunIteration(context.Background())
	assert.Equal(t, ErrNoLink, err)
}

func TestGatewayOverSimulatedBus(t *testing.T) {
	pins := mock.New(mock.Wiring{TX: 2, RX: 5, DE: 3, RE: 4}, 4800)
	pins.Logging = false
	peer := sim.NewSecondary(0x01)
	pins.Peer = peer
	drv, err := bus.NewDriver(pins, bus.Config{TX: 2, RX: 5, DE: 3, RE: 4, BaudRate: 4800})
	require.NoError(t, err)

	conn := newChanConn()
	g := NewGateway(conn)
	st := link.NewStation(drv, link.Config{Address: 0x01, OnFrame: g.OnFrame})
	st.Initialize()
	g.Link = st

	l := fx.NewLoop()
	l.Interval = time.Hour
	l.Add(g)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	conn.in <- []byte{0xca, 0xfe}
	ua := conn.waitRecord(t)
	rr := conn.waitRecord(t)
	tx := conn.waitRecord(t)
	cancel()
	<-done

	assert.Equal(t, Inbound, ua.Direction)
	assert.Equal(t, uint32(hdlc.UA), ua.Control)
	assert.Equal(t, Inbound, rr.Direction)
	assert.Equal(t, uint32(hdlc.RR(0)), rr.Control)
	assert.Equal(t, Outbound, tx.Direction)
	assert.Equal(t, uint32(hdlc.IFrame(0, 0)), tx.Control)
	assert.Equal(t, []byte{0xca, 0xfe}, tx.Info)
	assert.True(t, tx.Valid)
	assert.Equal(t, [][]byte{{0xca, 0xfe}}, peer.Received())
	assert.Equal(t, hdlc.Seq(1), st.SendSeq())
}
