// Package netlink carries encrypted chat objects between the UI core and the
// network side (a network CPU over a serial link, or a broker on a host).
//
// A Link never blocks the cooperative loop: Send queues or writes a small
// frame, and Recv polls an inbox filled by the transport in the background.
package netlink

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// FrameObject is the kind of a frame carrying a chat object. It is the
// only kind the network side sends.
const FrameObject uint32 = 1

// MaxFrameSize bounds an encoded frame.
const MaxFrameSize = 512

var (
	// ErrFrameTooLarge indicates an encoded frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrClosed is returned by Send once the link is closed.
	ErrClosed = errors.New("link closed")
)

// Frame is the wire form of a chat object. It is a protobuf message:
//
//	message Frame {
//	  uint32 kind = 1;
//	  uint32 object_id = 2;
//	  uint32 group_id = 3;
//	  uint64 track_alias = 4;
//	  uint32 key_id = 5;
//	  bytes enc_data = 6;
//	  bytes auth_tag = 7;
//	  string origin = 8;
//	}
type Frame struct {
	Kind       uint32 `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
	ObjectId   uint32 `protobuf:"varint,2,opt,name=object_id,json=objectId,proto3" json:"object_id,omitempty"`
	GroupId    uint32 `protobuf:"varint,3,opt,name=group_id,json=groupId,proto3" json:"group_id,omitempty"`
	TrackAlias uint64 `protobuf:"varint,4,opt,name=track_alias,json=trackAlias,proto3" json:"track_alias,omitempty"`
	KeyId      uint32 `protobuf:"varint,5,opt,name=key_id,json=keyId,proto3" json:"key_id,omitempty"`
	EncData    []byte `protobuf:"bytes,6,opt,name=enc_data,json=encData,proto3" json:"enc_data,omitempty"`
	AuthTag    []byte `protobuf:"bytes,7,opt,name=auth_tag,json=authTag,proto3" json:"auth_tag,omitempty"`
	Origin     string `protobuf:"bytes,8,opt,name=origin,proto3" json:"origin,omitempty"`
}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Frame) ProtoMessage() {}

// Encode marshals the frame.
func (m *Frame) Encode() ([]byte, error) {
	data, err := proto.Marshal(m)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	return data, nil
}

// DecodeFrame unmarshals a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	var f Frame
	if err := proto.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Kind != FrameObject {
		return nil, &ErrUnknownKind{Kind: f.Kind}
	}
	return &f, nil
}

// ErrUnknownKind indicates a frame with an unknown kind.
type ErrUnknownKind struct {
	Kind uint32
}

// Error implements error.
func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown frame kind %d", e.Kind)
}
