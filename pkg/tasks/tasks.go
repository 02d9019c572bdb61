// Package tasks contains the firmware tasks of the device and the routing
// table connecting them.
//
// Periodic work happens in each task's Run. Messages are handled by the recv
// functions registered in Routes. Chat text travels:
//
//	Keyboard -> TextEdit -> Chat -> Crypto -> NetLink -> (network)
//	(network) -> NetLink -> Crypto -> Chat -> Render
package tasks

import (
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// Context is the task context over Data.
type Context = framework.Context[Data]

// Handler is a message handler over Data.
type Handler = framework.Handler[Data]

// Data is the scratch arena. Every task owns one member and never touches
// the others.
type Data struct {
	Button   ButtonData
	TextEdit TextEditData
	Chat     ChatData
	Crypto   CryptoData
	NetLink  NetLinkData
	Render   RenderData
	Fib      FibData
}

// NewData creates Data with defaults, using DefaultKey for encryption.
func NewData() *Data {
	d := &Data{
		Chat: ChatData{
			Object: msg.Object{
				TrackAlias: DefaultTrackAlias,
				GroupID:    DefaultGroupID,
				ObjectID:   DefaultObjectID,
			},
		},
		Crypto: CryptoData{KeyID: DefaultKeyID},
	}
	if err := d.Crypto.Keys.Add(DefaultKeyID, DefaultKey[:]); err != nil {
		panic(err)
	}
	d.Render.Reset()
	return d
}

// Options selects the task set.
type Options struct {
	// MockKeyboardWithPTT turns the PTT button into a keyboard: 'A' on press
	// and Enter on release. The Button task is not registered then.
	MockKeyboardWithPTT bool
	// Fib registers the synthetic load task.
	Fib bool
	// FibN is the Fibonacci number computed, DefaultFibN if zero.
	FibN int
	// Sink receives the metrics reported by the Metrics task.
	Sink MetricsSink
}

// Register adds the tasks to mgr.
func Register(mgr *framework.TaskMgr[Data], opts Options) {
	if !opts.MockKeyboardWithPTT {
		mgr.AddTask(&ButtonTask{})
	}
	mgr.AddTask(&ChatTask{})
	mgr.AddTask(&CryptoTask{})
	mgr.AddTask(&KeyboardTask{MockWithPTT: opts.MockKeyboardWithPTT})
	mgr.AddTask(&MetricsTask{Sink: opts.Sink})
	mgr.AddTask(&NetLinkTask{})
	mgr.AddTask(&RenderTask{})
	mgr.AddTask(&TextEditTask{})
	if opts.Fib {
		mgr.AddTask(&FibTask{N: opts.FibN})
	}
}

// Routes returns the routing table. Every kind has a handler.
func Routes() *framework.Routes[Data] {
	r := &framework.Routes[Data]{}
	r.Set(msg.PttButton, ButtonRecv).
		Set(msg.Keyboard, TextEditRecv).
		Set(msg.TextInput, ChatRecv).
		Set(msg.TxtMsgIn, ChatRecv).
		Set(msg.TxtMsgOut, CryptoRecv).
		Set(msg.EncTxtMsgIn, CryptoRecv).
		Set(msg.EncTxtMsgOut, NetLinkRecv).
		Set(msg.PrintMsg, RenderRecv).
		Set(msg.PrintInputMsg, RenderRecv).
		Set(msg.PrintClearMsg, RenderRecv).
		Set(msg.PrintClearInputMsg, RenderRecv)
	return r
}
