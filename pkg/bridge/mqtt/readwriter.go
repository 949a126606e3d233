package mqtt

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// RxTopic is where the gateway of a station publishes records.
func RxTopic(addr byte) string {
	return fmt.Sprintf("%02x/rx", addr)
}

// TxTopic is where payloads to send to a station are published.
func TxTopic(addr byte) string {
	return fmt.Sprintf("%02x/tx", addr)
}

// ReadWriter implements PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		doneCh:   make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForGateway sets topics for the gateway side:
// SubTopic = <addr>/tx
// PubTopic = <addr>/rx
func (p *ReadWriter) ForGateway(addr byte) *ReadWriter {
	return p.WithTopics(TxTopic(addr), RxTopic(addr))
}

// ForClient sets topics for the side talking to a gateway:
// SubTopic = <addr>/rx
// PubTopic = <addr>/tx
func (p *ReadWriter) ForClient(addr byte) *ReadWriter {
	return p.WithTopics(RxTopic(addr), TxTopic(addr))
}

// ReadPacket implements PacketReader. It returns io.EOF once Run stopped.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. It connects the queue and keeps SubTopic
// subscribed until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	defer p.stop()
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		sub.Close()
		return err
	}
	<-ctx.Done()
	sub.Close()
	p.Queue.Close()
	return ctx.Err()
}

func (p *ReadWriter) stop() {
	p.closeOnce.Do(func() { close(p.doneCh) })
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	pkt := append([]byte(nil), payload...)
	select {
	case p.packetCh <- pkt:
	case <-p.doneCh:
	}
}
