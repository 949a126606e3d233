package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/robotalks/hdlc485/pkg/hdlc"
)

// ErrPacketTooLarge indicates a length prefix beyond any frame payload.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4 bytes (little-endian) holding the length.
type ReadWriter struct {
	io.ReadWriter
	// MaxSize bounds incoming packets, 0 means no limit.
	MaxSize uint32
}

// MaxRecordSize bounds incoming packets when carrying frame payloads or
// records.
const MaxRecordSize = 4 * hdlc.MaxFrameSize

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s, MaxSize: MaxRecordSize}
}

// Dial connects to a TCP address.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.ReadWriter, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	_, err := p.ReadWriter.Write(buf)
	return err
}

// Close implements io.Closer, closing the underlying stream if it can.
func (p *ReadWriter) Close() error {
	if c, ok := p.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
