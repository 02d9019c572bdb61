package framework

import (
	"github.com/golang/glog"

	"github.com/robotalks/hactar.go/pkg/fault"
	"github.com/robotalks/hactar.go/pkg/mpsc"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// DispatchLimit bounds the messages handled by one Process call.
const DispatchLimit = 10

// Routes maps every message kind to exactly one handler. A kind must either
// have a handler or be explicitly dropped.
type Routes[D any] struct {
	handlers [msg.NumKinds]Handler[D]
	dropped  [msg.NumKinds]bool
}

// Set routes kind k to h, replacing any previous route.
func (r *Routes[D]) Set(k msg.Kind, h Handler[D]) *Routes[D] {
	r.handlers[k], r.dropped[k] = h, false
	return r
}

// Drop declares that messages of kinds ks are discarded.
func (r *Routes[D]) Drop(ks ...msg.Kind) *Routes[D] {
	for _, k := range ks {
		r.handlers[k], r.dropped[k] = nil, true
	}
	return r
}

// Handler returns the handler of kind k, nil if dropped.
func (r *Routes[D]) Handler(k msg.Kind) Handler[D] {
	return r.handlers[k]
}

// Validate panics if a kind is neither routed nor dropped. None never
// reaches a handler and needs no route.
func (r *Routes[D]) Validate() {
	for k := msg.Kind(1); int(k) < msg.NumKinds; k++ {
		if r.handlers[k] == nil && !r.dropped[k] {
			fault.Raise(fault.InvariantViolation, "", "no route for %s", k)
		}
	}
}

// Dispatcher drains the channel and routes messages to handlers.
type Dispatcher[D any] struct {
	receiver mpsc.Receiver
	routes   *Routes[D]
	ctx      *Context[D]
}

// NewDispatcher creates a Dispatcher. The routes are validated here so a
// missing route is found at startup.
func NewDispatcher[D any](receiver mpsc.Receiver, routes *Routes[D], ctx *Context[D]) *Dispatcher[D] {
	routes.Validate()
	return &Dispatcher[D]{receiver: receiver, routes: routes, ctx: ctx}
}

// Process handles up to DispatchLimit pending messages and returns the
// number handled. The rest stays queued for the next call.
func (d *Dispatcher[D]) Process() int {
	n := 0
	for ; n < DispatchLimit; n++ {
		m := d.receiver.Recv()
		if m.IsNone() {
			break
		}
		if h := d.routes.handlers[m.Kind]; h != nil {
			glog.V(3).Infof("%s dispatched", m.Kind)
			d.ctx.Metrics.dispatched[m.Kind]++
			h(m, d.ctx)
		} else {
			glog.V(2).Infof("%s dropped", m.Kind)
			d.ctx.Metrics.dropped[m.Kind]++
		}
	}
	return n
}
