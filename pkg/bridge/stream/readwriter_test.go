package stream

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	require.NoError(t, rw.WritePacket(nil))
	assert.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3, 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	assert.Empty(t, pkt)
	_, err = rw.ReadPacket()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, rw.Close())
}

func TestReadPacketErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{"too large", []byte{0xff, 0xff, 0xff, 0xff}, ErrPacketTooLarge},
		{"truncated body", []byte{5, 0, 0, 0, 1}, io.ErrUnexpectedEOF},
		{"truncated prefix", []byte{5, 0}, io.ErrUnexpectedEOF},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(bytes.NewBuffer(tc.data)).ReadPacket()
			assert.Equal(t, tc.err, err)
		})
	}
}

func TestDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		peer := New(conn)
		if pkt, err := peer.ReadPacket(); err == nil {
			peer.WritePacket(append(pkt, 0xff))
		}
	}()

	rw, err := Dial(ln.Addr().String())
	require.NoError(t, err)
	defer rw.Close()
	require.NoError(t, rw.WritePacket([]byte{0xca, 0xfe}))
	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0xff}, pkt)
}
