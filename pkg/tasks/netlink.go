package tasks

import (
	"github.com/golang/glog"

	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/netlink"
)

// PumpLimit bounds the frames turned into messages per poll, so the
// channel can't be flooded by the network.
const PumpLimit = 2

// NetLinkTaskInfo describes NetLinkTask.
var NetLinkTaskInfo = framework.TaskInfo{
	Name:       "NetLink",
	RunEvery:   100000,
	TimeBudget: 10000,
	MemBudget:  500,
}

// NetLinkData counts link traffic.
type NetLinkData struct {
	Sent       uint32
	Received   uint32
	SendErrors uint32
	BadFrames  uint32
}

// NetLinkTask moves encrypted objects between the channel and the link.
type NetLinkTask struct{}

// Run implements Task. It polls the link for received frames.
func (t *NetLinkTask) Run(_ msg.Msg, ctx *Context) {
	ctx.Board.Stack.Call(96, func() {
		pump(ctx)
	})
}

// Info implements Task.
func (t *NetLinkTask) Info() *framework.TaskInfo {
	return &NetLinkTaskInfo
}

// NetLinkRecv handles EncTxtMsgOut: the object is sent on the link, then
// the link is polled so a synchronous echo shows up in the same drain.
func NetLinkRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.NetLink
	f := &netlink.Frame{
		Kind:       netlink.FrameObject,
		ObjectId:   m.ObjectID,
		GroupId:    m.GroupID,
		TrackAlias: m.TrackAlias,
		KeyId:      m.KeyID,
		EncData:    m.Text.Bytes(),
		AuthTag:    m.AuthTag[:],
	}
	if err := ctx.Board.Link.Send(f); err != nil {
		data.SendErrors++
		glog.Warningf("netlink send object %d: %v", m.ObjectID, err)
	} else {
		data.Sent++
	}
	pump(ctx)
}

func pump(ctx *Context) {
	data := &ctx.Data.NetLink
	for i := 0; i < PumpLimit; i++ {
		f, ok := ctx.Board.Link.Recv()
		if !ok {
			return
		}
		m, err := frameToMsg(f)
		if err != nil {
			data.BadFrames++
			glog.Warningf("netlink frame from %q: %v", f.Origin, err)
			continue
		}
		data.Received++
		ctx.Send(m)
	}
}

type frameError string

func (e frameError) Error() string {
	return string(e)
}

const (
	errNotObject   frameError = "not an object"
	errTextTooLong frameError = "encrypted text too long"
	errBadTag      frameError = "bad auth tag size"
)

func frameToMsg(f *netlink.Frame) (m msg.Msg, err error) {
	switch {
	case f.Kind != netlink.FrameObject:
		err = errNotObject
	case len(f.EncData) > msg.TextCap:
		err = errTextTooLong
	case len(f.AuthTag) != msg.TagSize:
		err = errBadTag
	default:
		var tag [msg.TagSize]byte
		copy(tag[:], f.AuthTag)
		m = msg.NewEncTxtMsgIn(msg.Object{
			ObjectID:   f.ObjectId,
			GroupID:    f.GroupId,
			TrackAlias: f.TrackAlias,
		}, f.KeyId, msg.TextFrom(f.EncData), tag)
	}
	return
}
