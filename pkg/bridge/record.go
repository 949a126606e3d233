package bridge

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/timestamp"

	"github.com/robotalks/hdlc485/pkg/hdlc"
)

// Direction tells whether a record was received from or sent to the bus.
type Direction int32

// Directions.
const (
	Inbound  Direction = 1
	Outbound Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "rx"
	case Outbound:
		return "tx"
	}
	return fmt.Sprintf("dir(%d)", int32(d))
}

// Record is one frame crossing the bridge, published to the transport.
// For Inbound records Valid is the CRC result, for Outbound records it
// tells whether the secondary acknowledged the frame.
type Record struct {
	Direction Direction            `protobuf:"varint,1,opt,name=direction,proto3" json:"direction,omitempty"`
	Address   uint32               `protobuf:"varint,2,opt,name=address,proto3" json:"address,omitempty"`
	Control   uint32               `protobuf:"varint,3,opt,name=control,proto3" json:"control,omitempty"`
	Info      []byte               `protobuf:"bytes,4,opt,name=info,proto3" json:"info,omitempty"`
	Valid     bool                 `protobuf:"varint,5,opt,name=valid,proto3" json:"valid,omitempty"`
	Time      *timestamp.Timestamp `protobuf:"bytes,6,opt,name=time,proto3" json:"time,omitempty"`
	Error     string               `protobuf:"bytes,7,opt,name=error,proto3" json:"error,omitempty"`
}

// ProtoMessage implements proto.Message.
func (r *Record) ProtoMessage() {}

// Reset implements proto.Message.
func (r *Record) Reset() { *r = Record{} }

// String implements proto.Message.
func (r *Record) String() string { return proto.CompactTextString(r) }

// NewRecord creates a record from frame bytes (address, control, info).
// Frames shorter than address and control keep the raw bytes in Info.
func NewRecord(dir Direction, data []byte, valid bool, at time.Time) *Record {
	r := &Record{Direction: dir, Valid: valid}
	if f, err := hdlc.ParseFrame(data); err == nil {
		r.Address, r.Control = uint32(f.Address), uint32(f.Control)
		r.Info = append([]byte(nil), f.Info...)
	} else {
		r.Info = append([]byte(nil), data...)
	}
	r.SetTime(at)
	return r
}

// SetTime sets the timestamp. A zero time clears it.
func (r *Record) SetTime(t time.Time) {
	r.Time = nil
	if !t.IsZero() {
		r.Time, _ = ptypes.TimestampProto(t)
	}
}

// Timestamp returns the record time, or zero time if unset.
func (r *Record) Timestamp() time.Time {
	if r.Time == nil {
		return time.Time{}
	}
	t, err := ptypes.Timestamp(r.Time)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Frame returns the HDLC frame carried by the record.
func (r *Record) Frame() *hdlc.Frame {
	return &hdlc.Frame{Address: byte(r.Address), Control: byte(r.Control), Info: r.Info}
}

// Summary formats the record for monitors and logs.
func (r *Record) Summary() string {
	s := fmt.Sprintf("%s %s", r.Direction, r.Frame())
	if !r.Valid {
		s += " INVALID"
	}
	if r.Error != "" {
		s += " (" + r.Error + ")"
	}
	return s
}

// Encode encodes the record to bytes.
func (r *Record) Encode() ([]byte, error) {
	return proto.Marshal(r)
}

// DecodeRecord decodes bytes into a Record.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	if err := proto.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Direction != Inbound && r.Direction != Outbound {
		return nil, &DirectionError{Direction: r.Direction}
	}
	return &r, nil
}
