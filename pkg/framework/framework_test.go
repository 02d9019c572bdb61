package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/mpsc"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/timer"
)

type testData struct {
	runs map[string]int
}

type testEnv struct {
	clock    *timer.Manual
	out      bytes.Buffer
	board    *board.Board
	table    *mpsc.Table
	receiver mpsc.Receiver
	data     testData
	metrics  *Metrics
	mgr      *TaskMgr[testData]
}

func newTestEnv() *testEnv {
	e := &testEnv{
		clock:   timer.NewManual(0),
		table:   mpsc.NewTable(),
		metrics: NewMetrics(),
		data:    testData{runs: make(map[string]int)},
	}
	e.board = board.New(board.Config{Out: &e.out, Clock: e.clock})
	var sender mpsc.Sender
	sender, e.receiver = e.table.Channel()
	e.mgr = NewTaskMgr(sender, e.board, &e.data, e.metrics)
	return e
}

type testTask struct {
	info TaskInfo
	fn   func(ctx *Context[testData])
}

func (t *testTask) Run(m msg.Msg, ctx *Context[testData]) {
	ctx.Data.runs[t.info.Name]++
	if t.fn != nil {
		t.fn(ctx)
	}
}

func (t *testTask) Info() *TaskInfo {
	return &t.info
}

func newTestTask(name string, fn func(ctx *Context[testData])) *testTask {
	return &testTask{
		info: TaskInfo{
			Name:       name,
			RunEvery:   100000,
			TimeBudget: 10000,
			MemBudget:  500,
		},
		fn: fn,
	}
}

func TestFirstRunIsImmediate(t *testing.T) {
	e := newTestEnv()
	e.clock.Set(42)
	e.mgr.AddTask(newTestTask("Button", nil))
	e.mgr.Run()
	require.Equal(t, 1, e.data.runs["Button"])
}

func TestPeriodicGating(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Chat", nil))

	e.mgr.Run()
	require.Equal(t, 1, e.data.runs["Chat"])

	e.clock.Set(50000)
	e.mgr.Run()
	require.Equal(t, 1, e.data.runs["Chat"])

	e.clock.Set(150000)
	e.mgr.Run()
	require.Equal(t, 2, e.data.runs["Chat"])
	require.EqualValues(t, 2, e.metrics.Task(0).RunCount)
}

func TestGatingAcrossWrapAround(t *testing.T) {
	e := newTestEnv()
	e.clock.Set(timer.MicroSeconds(timer.WrapAround - 20000))
	e.mgr.AddTask(newTestTask("Render", nil))
	e.mgr.Run()
	e.clock.Set(50000)
	e.mgr.Run()
	require.Equal(t, 1, e.data.runs["Render"])
	e.clock.Set(80000)
	e.mgr.Run()
	require.Equal(t, 2, e.data.runs["Render"])
}

func TestRegistrationOrder(t *testing.T) {
	e := newTestEnv()
	var order []string
	for _, name := range []string{"A", "B", "C"} {
		name := name
		e.mgr.AddTask(newTestTask(name, func(*Context[testData]) {
			order = append(order, name)
		}))
	}
	e.mgr.Run()
	require.Equal(t, []string{"A", "B", "C"}, order)
	require.Equal(t, 3, e.mgr.NumTasks())
	require.Equal(t, "B", e.metrics.Task(1).Name)
}

func TestTimeBudgetExceeded(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Slow", func(*Context[testData]) {
		e.clock.Advance(20000)
	}))
	require.PanicsWithError(t, "task Slow: time budget exceeded: 20000us > 10000us", e.mgr.Run)
	require.Contains(t, e.out.String(), "Exceeded time budget")
	require.Contains(t, e.out.String(), " duration=20000 us")
}

func TestTimeBudgetIsInclusive(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Edge", func(*Context[testData]) {
		e.clock.Advance(10000)
	}))
	require.NotPanics(t, e.mgr.Run)
	require.EqualValues(t, 10000, e.metrics.Task(0).MaxDurationUs)
}

func TestMemoryBudgetExceeded(t *testing.T) {
	e := newTestEnv()
	task := newTestTask("Fib", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(2000, nil)
	})
	task.info.MemBudget = 1000
	e.mgr.AddTask(task)
	require.PanicsWithError(t, "task Fib: memory budget exceeded: 2000 > 1000", e.mgr.Run)
	require.Contains(t, e.out.String(), "Exceeded memory budget\r\n  usage==2000")
}

func TestStackChargedAgainstTickBase(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Deep", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(400, nil)
	}))
	e.mgr.AddTask(newTestTask("Shallow", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(100, nil)
	}))
	e.mgr.Run()
	require.EqualValues(t, 400, e.metrics.Task(0).MaxStack)
	// the high-water mark of Deep is still painted.
	require.EqualValues(t, 400, e.metrics.Task(1).MaxStack)
}

func TestEarlierTaskCountsAgainstBudget(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Deep", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(400, nil)
	}))
	shallow := newTestTask("Shallow", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(100, nil)
	})
	shallow.info.MemBudget = 300
	e.mgr.AddTask(shallow)
	require.PanicsWithError(t, "task Shallow: memory budget exceeded: 400 > 300", e.mgr.Run)
}

func TestStackRepaintedEachTick(t *testing.T) {
	e := newTestEnv()
	deep := newTestTask("Deep", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(400, nil)
	})
	e.mgr.AddTask(deep)
	shallow := newTestTask("Shallow", func(ctx *Context[testData]) {
		ctx.Board.Stack.Call(100, nil)
	})
	shallow.info.RunEvery = 10000
	e.mgr.AddTask(shallow)
	e.mgr.Run()
	e.metrics.Reset(1)

	// only Shallow is due now, the deep mark is gone.
	e.clock.Advance(10000)
	e.mgr.Run()
	require.Equal(t, 1, e.data.runs["Deep"])
	require.EqualValues(t, 100, e.metrics.Task(1).MaxStack)
}

func TestTaskRegistryFull(t *testing.T) {
	e := newTestEnv()
	for i := 0; i < MaxTasks; i++ {
		e.mgr.AddTask(newTestTask("T", nil))
	}
	require.PanicsWithError(t, "task T: task registry full: 10 tasks registered", func() {
		e.mgr.AddTask(newTestTask("T", nil))
	})
}

func TestEmptySlotsHoldNoTask(t *testing.T) {
	e := newTestEnv()
	require.Equal(t, "NoTask", e.mgr.Task(MaxTasks-1).Info().Name)
	require.PanicsWithError(t, "task NoTask: invariant violation: placeholder task scheduled", func() {
		e.mgr.Task(0).Run(msg.Msg{}, e.mgr.Context())
	})
	// empty slots are never polled.
	require.NotPanics(t, e.mgr.Run)
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.SetName(2, "Render")
	m.Record(2, 300, 40)
	m.Record(2, 100, 90)
	require.Equal(t, TaskMetrics{Name: "Render", RunCount: 2, MaxStack: 300, MaxDurationUs: 90}, m.Task(2))
	m.Reset(2)
	require.Equal(t, TaskMetrics{Name: "Render"}, m.Task(2))
}

func allRoutes(h Handler[testData]) *Routes[testData] {
	r := &Routes[testData]{}
	for k := msg.Kind(1); int(k) < msg.NumKinds; k++ {
		r.Set(k, h)
	}
	return r
}

func TestRoutesMustBeExhaustive(t *testing.T) {
	r := allRoutes(func(msg.Msg, *Context[testData]) {})
	r.Drop(msg.PttButton)
	require.NotPanics(t, r.Validate)

	r.Set(msg.Keyboard, nil)
	require.PanicsWithError(t, "invariant violation: no route for Keyboard", r.Validate)
}

func TestDispatchRoutesByKind(t *testing.T) {
	e := newTestEnv()
	var keys []byte
	routes := allRoutes(func(m msg.Msg, ctx *Context[testData]) {
		ctx.Data.runs[m.Kind.String()]++
	})
	routes.Set(msg.Keyboard, func(m msg.Msg, ctx *Context[testData]) {
		keys = append(keys, m.Key)
	})
	routes.Drop(msg.PttButton)
	d := NewDispatcher(e.receiver, routes, e.mgr.Context())

	ctx := e.mgr.Context()
	ctx.Send(msg.NewKeyboard('a'))
	ctx.Send(msg.NewPttButton(true))
	ctx.Send(msg.NewKeyboard('b'))
	ctx.Send(msg.NewPrintClearMsg())
	require.Equal(t, 4, d.Process())
	require.Equal(t, []byte("ab"), keys)
	require.Equal(t, 1, e.data.runs["PrintClearMsg"])
	require.EqualValues(t, 2, e.metrics.Dispatched(msg.Keyboard))
	require.EqualValues(t, 1, e.metrics.Dropped(msg.PttButton))
	require.Equal(t, 0, d.Process())
}

func TestDispatchBound(t *testing.T) {
	e := newTestEnv()
	var routed int
	routes := allRoutes(func(m msg.Msg, ctx *Context[testData]) {
		routed++
		// the first message produces one more during the drain.
		if routed == 1 {
			ctx.Send(msg.NewPrintClearMsg())
		}
	})
	d := NewDispatcher(e.receiver, routes, e.mgr.Context())
	for i := 0; i < mpsc.QSize; i++ {
		e.mgr.Context().Send(msg.NewPrintClearMsg())
	}
	require.Equal(t, DispatchLimit, d.Process())
	require.Equal(t, 10, routed)
	require.Equal(t, 1, e.receiver.Len())
}

func TestLoopIteration(t *testing.T) {
	e := newTestEnv()
	e.mgr.AddTask(newTestTask("Keyboard", func(ctx *Context[testData]) {
		ctx.Send(msg.NewKeyboard('x'))
	}))
	var got []byte
	routes := allRoutes(func(msg.Msg, *Context[testData]) {})
	routes.Set(msg.Keyboard, func(m msg.Msg, _ *Context[testData]) {
		got = append(got, m.Key)
	})
	loop := NewLoop(e.mgr, NewDispatcher(e.receiver, routes, e.mgr.Context()))
	var posted bool
	loop.Post(func() { posted = true })
	loop.RunIteration()
	require.True(t, posted)
	require.Equal(t, []byte("x"), got)
	require.EqualValues(t, 1, loop.Iterations())
}
