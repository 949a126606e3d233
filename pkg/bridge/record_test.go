package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/hdlc485/pkg/hdlc"
)

func TestNewRecord(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		address uint32
		control uint32
		info    []byte
	}{
		{"i-frame", []byte{0x01, 0x20, 0xca, 0xfe}, 0x01, 0x20, []byte{0xca, 0xfe}},
		{"no info", []byte{0x01, 0x63}, 0x01, 0x63, nil},
		{"short", []byte{0x7f}, 0, 0, []byte{0x7f}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRecord(Inbound, tc.data, true, time.Time{})
			assert.Equal(t, tc.address, r.Address)
			assert.Equal(t, tc.control, r.Control)
			assert.Equal(t, tc.info, r.Info)
			assert.Nil(t, r.Time)
			assert.True(t, r.Timestamp().IsZero())
		})
	}
}

func TestRecordInfoIsCopied(t *testing.T) {
	data := []byte{0x01, 0x00, 0x55}
	r := NewRecord(Inbound, data, true, time.Time{})
	data[2] = 0xaa
	assert.Equal(t, []byte{0x55}, r.Info)
}

func TestRecordEncoding(t *testing.T) {
	at := time.Unix(1700000000, 123000000).UTC()
	r := NewRecord(Outbound, []byte{0x01, 0x22, 0x01, 0x02}, false, at)
	r.Error = "rejected"
	data, err := r.Encode()
	require.NoError(t, err)

	dec, err := DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, Outbound, dec.Direction)
	assert.Equal(t, uint32(0x01), dec.Address)
	assert.Equal(t, uint32(0x22), dec.Control)
	assert.Equal(t, []byte{0x01, 0x02}, dec.Info)
	assert.False(t, dec.Valid)
	assert.Equal(t, "rejected", dec.Error)
	assert.True(t, at.Equal(dec.Timestamp()))
}

func TestDecodeRecordDirection(t *testing.T) {
	data, err := (&Record{Direction: 3, Valid: true}).Encode()
	require.NoError(t, err)
	_, err = DecodeRecord(data)
	var dirErr *DirectionError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, Direction(3), dirErr.Direction)
}

func TestRecordSummary(t *testing.T) {
	r := NewRecord(Inbound, []byte{0x01, hdlc.UA}, true, time.Time{})
	assert.Equal(t, "rx "+r.Frame().String(), r.Summary())

	r = NewRecord(Outbound, []byte{0x01, hdlc.IFrame(1, 0), 0x10}, false, time.Time{})
	r.Error = "timeout"
	assert.Equal(t, "tx "+r.Frame().String()+" INVALID (timeout)", r.Summary())
}
