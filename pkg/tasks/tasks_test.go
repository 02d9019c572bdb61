package tasks

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/netlink"
	"github.com/robotalks/hactar.go/pkg/timer"
)

type testSystem struct {
	*System
	clock *timer.Manual
	out   *bytes.Buffer
}

func newTestSystem(routes *framework.Routes[Data], opts Options) *testSystem {
	s := &testSystem{clock: timer.NewManual(0), out: &bytes.Buffer{}}
	b := board.New(board.Config{Out: s.out, Clock: s.clock, Echo: true})
	s.System = NewSystem(b, nil, routes, opts)
	return s
}

func (s *testSystem) steps(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// drain dispatches everything pending without running tasks.
func (s *testSystem) drain() {
	for s.Dispatcher.Process() > 0 {
	}
}

func TestRoutesAreExhaustive(t *testing.T) {
	require.NotPanics(t, Routes().Validate)
}

func TestRegister(t *testing.T) {
	s := newTestSystem(nil, Options{})
	require.Equal(t, 8, s.Tasks.NumTasks())
	require.Equal(t, "Button", s.Tasks.Task(0).Info().Name)

	s = newTestSystem(nil, Options{MockKeyboardWithPTT: true, Fib: true})
	require.Equal(t, 8, s.Tasks.NumTasks())
	require.Equal(t, "Chat", s.Tasks.Task(0).Info().Name)
	require.Equal(t, "Fib", s.Tasks.Task(7).Info().Name)
}

func TestChatRoundTrip(t *testing.T) {
	var printed []string
	var sealed []msg.Msg
	routes := Routes()
	routes.Set(msg.PrintMsg, func(m msg.Msg, ctx *Context) {
		printed = append(printed, m.Text.String())
		RenderRecv(m, ctx)
	})
	routes.Set(msg.EncTxtMsgOut, func(m msg.Msg, ctx *Context) {
		sealed = append(sealed, m)
		NetLinkRecv(m, ctx)
	})
	s := newTestSystem(routes, Options{})

	s.Send(msg.NewKeyboard('A'))
	s.Send(msg.NewKeyboard('\r'))
	s.steps(3)

	require.Equal(t, []string{"A", "A"}, printed)
	require.Len(t, sealed, 1)
	require.Equal(t, DefaultKeyID, sealed[0].KeyID)
	require.Equal(t, 1, sealed[0].Text.Len())
	require.NotEqual(t, [msg.TagSize]byte{}, sealed[0].AuthTag)
	require.Equal(t, msg.Object{TrackAlias: 123, GroupID: 45, ObjectID: 67}, sealed[0].Object)

	data := s.Data
	require.Equal(t, DefaultObjectID+1, data.Chat.Object.ObjectID)
	require.EqualValues(t, 1, data.Chat.Received)
	require.EqualValues(t, 1, data.NetLink.Sent)
	require.EqualValues(t, 1, data.NetLink.Received)
	require.Zero(t, data.Crypto.Failures)
	require.Equal(t, "A", data.Render.Line(InputRow-1))
	require.Equal(t, "A", data.Render.Line(InputRow-2))
	require.Equal(t, "", data.Render.Line(InputRow))
	require.Equal(t, 0, s.Receiver.Len())
}

func TestTextEdit(t *testing.T) {
	s := newTestSystem(nil, Options{})
	ctx := s.Tasks.Context()
	for _, k := range []byte("hix") {
		TextEditRecv(msg.NewKeyboard(k), ctx)
	}
	TextEditRecv(msg.NewKeyboard(board.KeyBack), ctx)
	require.Equal(t, "hi", s.Data.TextEdit.Buffer.String())

	var last msg.Msg
	for m := s.Receiver.Recv(); !m.IsNone(); m = s.Receiver.Recv() {
		require.Equal(t, msg.PrintInputMsg, m.Kind)
		last = m
	}
	require.Equal(t, "hi", last.Text.String())

	TextEditRecv(msg.NewKeyboard('\r'), ctx)
	m := s.Receiver.Recv()
	require.Equal(t, msg.TextInput, m.Kind)
	require.Equal(t, "hi", m.Text.String())
	require.Equal(t, msg.PrintClearInputMsg, s.Receiver.Recv().Kind)
	require.Equal(t, 0, s.Data.TextEdit.Buffer.Len())
}

func TestTextEditFullLine(t *testing.T) {
	s := newTestSystem(nil, Options{})
	ctx := s.Tasks.Context()
	s.Data.TextEdit.Buffer = msg.TextFrom(bytes.Repeat([]byte{'x'}, msg.TextCap))
	TextEditRecv(msg.NewKeyboard('y'), ctx)
	require.Equal(t, 0, s.Receiver.Len())
	require.Equal(t, msg.TextCap, s.Data.TextEdit.Buffer.Len())
}

func TestKeyboardMockedWithPTT(t *testing.T) {
	s := newTestSystem(nil, Options{MockKeyboardWithPTT: true})
	task := &KeyboardTask{MockWithPTT: true}
	ctx := s.Tasks.Context()

	s.Board.Inject().PTTPress()
	task.Run(msg.Msg{}, ctx)
	s.Board.Inject().PTTRelease()
	task.Run(msg.Msg{}, ctx)
	task.Run(msg.Msg{}, ctx)

	require.Equal(t, byte('A'), s.Receiver.Recv().Key)
	require.Equal(t, byte('\r'), s.Receiver.Recv().Key)
	require.Equal(t, 0, s.Receiver.Len())
}

func TestKeyboardSources(t *testing.T) {
	s := newTestSystem(nil, Options{})
	task := &KeyboardTask{}
	ctx := s.Tasks.Context()

	s.Board.Inject().Keypress('k')
	s.Board.Inject().ConsoleInput([]byte("z"))
	s.out.Reset()
	task.Run(msg.Msg{}, ctx)

	require.Equal(t, byte('k'), s.Receiver.Recv().Key)
	require.Equal(t, byte('z'), s.Receiver.Recv().Key)
	require.Equal(t, "z", s.out.String(), "console echo")
}

func TestButtonTask(t *testing.T) {
	s := newTestSystem(nil, Options{})
	task := &ButtonTask{}
	ctx := s.Tasks.Context()

	task.Run(msg.Msg{}, ctx)
	require.Equal(t, 0, s.Receiver.Len())

	s.Board.Inject().PTTPress()
	task.Run(msg.Msg{}, ctx)
	m := s.Receiver.Recv()
	require.Equal(t, msg.PttButton, m.Kind)
	require.True(t, m.Pressed)

	ButtonRecv(m, ctx)
	require.True(t, s.Data.Button.PTT)
	require.EqualValues(t, 1, s.Data.Button.Changes)
}

func TestCryptoSealOpen(t *testing.T) {
	d := NewData()
	obj := msg.Object{TrackAlias: 1, GroupID: 2, ObjectID: 3}
	text := msg.TextString("hello")
	enc, tag, err := d.Crypto.Seal(obj, &text)
	require.NoError(t, err)
	require.Equal(t, text.Len(), enc.Len())

	plain, err := d.Crypto.Open(obj, DefaultKeyID, &enc, tag)
	require.NoError(t, err)
	require.Equal(t, "hello", plain.String())

	// the object ids are bound to the ciphertext.
	other := obj
	other.ObjectID++
	_, err = d.Crypto.Open(other, DefaultKeyID, &enc, tag)
	require.Error(t, err)

	_, err = d.Crypto.Open(obj, 999, &enc, tag)
	require.Equal(t, ErrUnknownKey, err)
}

func TestCryptoRecvDropsForgery(t *testing.T) {
	s := newTestSystem(nil, Options{})
	ctx := s.Tasks.Context()
	obj := msg.Object{TrackAlias: 123, GroupID: 45, ObjectID: 67}
	text := msg.TextString("hi")
	enc, tag, err := s.Data.Crypto.Seal(obj, &text)
	require.NoError(t, err)
	tag[0] ^= 0xff

	CryptoRecv(msg.NewEncTxtMsgIn(obj, DefaultKeyID, enc, tag), ctx)
	require.Equal(t, 0, s.Receiver.Len())
	require.EqualValues(t, 1, s.Data.Crypto.Failures)

	tag[0] ^= 0xff
	CryptoRecv(msg.NewEncTxtMsgIn(obj, DefaultKeyID, enc, tag), ctx)
	m := s.Receiver.Recv()
	require.Equal(t, msg.TxtMsgIn, m.Kind)
	require.Equal(t, "hi", m.Text.String())
}

func TestKeyring(t *testing.T) {
	var k Keyring
	require.Error(t, k.Add(1, []byte("short")))
	for i := uint32(0); i < MaxKeys; i++ {
		require.NoError(t, k.Add(i, DefaultKey[:]))
	}
	require.NoError(t, k.Add(0, DefaultKey[:]), "replacing keeps the slot")
	require.Equal(t, ErrKeyringFull, k.Add(MaxKeys, DefaultKey[:]))
	_, err := k.Get(MaxKeys)
	require.Equal(t, ErrUnknownKey, err)
}

func TestNetLinkRejectsBadFrames(t *testing.T) {
	s := newTestSystem(nil, Options{})
	inj := s.Board.Inject()
	require.NoError(t, inj.DataFromLink(&netlink.Frame{Kind: netlink.FrameObject + 1, TrackAlias: 1}))
	require.NoError(t, inj.DataFromLink(&netlink.Frame{Kind: netlink.FrameObject, AuthTag: []byte{1}}))
	require.NoError(t, inj.DataFromLink(&netlink.Frame{
		Kind:    netlink.FrameObject,
		EncData: make([]byte, msg.TextCap+1),
		AuthTag: make([]byte, msg.TagSize),
	}))
	require.NoError(t, inj.DataFromLink(&netlink.Frame{
		Kind:     netlink.FrameObject,
		ObjectId: 5,
		KeyId:    7,
		EncData:  []byte("xy"),
		AuthTag:  make([]byte, msg.TagSize),
	}))
	ctx := s.Tasks.Context()
	task := &NetLinkTask{}
	task.Run(msg.Msg{}, ctx)
	task.Run(msg.Msg{}, ctx)

	require.EqualValues(t, 3, s.Data.NetLink.BadFrames)
	require.EqualValues(t, 1, s.Data.NetLink.Received)
	m := s.Receiver.Recv()
	require.Equal(t, msg.EncTxtMsgIn, m.Kind)
	require.EqualValues(t, 5, m.ObjectID)
	require.EqualValues(t, 7, m.KeyID)
	require.Equal(t, "xy", m.Text.String())
}

func TestRenderText(t *testing.T) {
	s := newTestSystem(nil, Options{})
	ctx := s.Tasks.Context()
	data := &s.Data.Render

	RenderRecv(msg.NewPrintMsg(msg.TextString("one")), ctx)
	RenderRecv(msg.NewPrintMsg(msg.TextString("two")), ctx)
	RenderRecv(msg.NewPrintInputMsg(msg.TextString("typing")), ctx)
	require.Equal(t, "two", data.Line(InputRow-1))
	require.Equal(t, "one", data.Line(InputRow-2))
	require.Equal(t, "typing", data.Line(InputRow))

	long := bytes.Repeat([]byte{'w'}, TextCols+5)
	RenderRecv(msg.NewPrintMsg(msg.TextFrom(long)), ctx)
	require.Equal(t, string(long[:TextCols]), data.Line(InputRow-1))
	require.Equal(t, "two", data.Line(InputRow-2))

	RenderRecv(msg.NewPrintClearInputMsg(), ctx)
	require.Equal(t, "", data.Line(InputRow))
	require.Equal(t, "two", data.Line(InputRow-2))

	RenderRecv(msg.NewPrintClearMsg(), ctx)
	for r := 0; r < InputRow; r++ {
		require.Equal(t, "", data.Line(r))
	}
}

func TestRenderPaintsBands(t *testing.T) {
	s := newTestSystem(nil, Options{})
	ctx := s.Tasks.Context()
	task := &RenderTask{}
	RenderRecv(msg.NewPrintMsg(msg.TextString("A")), ctx)

	// the first run paints the bottom band holding the newest line.
	task.Run(msg.Msg{}, ctx)
	require.Equal(t, NumBands-1, s.Data.Render.CurrentBand)
	display := s.Board.Display
	y := (InputRow-1)*FontHeight + FontHeight/2
	require.Equal(t, Foreground, display.Pixel(FontWidth/2, y))
	require.Equal(t, Background, display.Pixel(FontWidth+FontWidth/2, y))
	require.Equal(t, Background, display.Pixel(0, y), "glyph margin")
	require.False(t, s.Data.Render.Dirty[InputRow-1])

	for i := 1; i < NumBands; i++ {
		task.Run(msg.Msg{}, ctx)
	}
	require.EqualValues(t, NumBands, display.Draws())
	// nothing dirty, nothing drawn.
	task.Run(msg.Msg{}, ctx)
	require.EqualValues(t, NumBands, display.Draws())
}

type testSink struct {
	tasks    map[string]framework.TaskMetrics
	dispatch map[msg.Kind]uint64
}

func (s *testSink) ObserveTask(_ int, m framework.TaskMetrics) {
	s.tasks[m.Name] = m
}

func (s *testSink) ObserveDispatch(k msg.Kind, dispatched, _ uint64) {
	s.dispatch[k] = dispatched
}

func TestMetricsTask(t *testing.T) {
	sink := &testSink{
		tasks:    make(map[string]framework.TaskMetrics),
		dispatch: make(map[msg.Kind]uint64),
	}
	s := newTestSystem(nil, Options{Sink: sink})
	s.Step()
	out := s.out.String()
	require.Contains(t, out, "Task 0 Button: 1 runs, 48 bytes, 0 uS\r\n")
	require.Contains(t, out, "Task 1 Chat: 1 runs, 48 bytes", "charged from the tick base")
	require.NotContains(t, out, "Render")
	require.Contains(t, out, "Battery 99%")
	require.EqualValues(t, 1, sink.tasks["Keyboard"].RunCount)
	require.Zero(t, s.Metrics.Task(1).RunCount, "reset after report")
	require.Contains(t, sink.dispatch, msg.Keyboard)
}

func TestFib(t *testing.T) {
	s := newTestSystem(nil, Options{})
	mon := s.Board.StackMonitor()
	mon.Repaint()
	require.EqualValues(t, 55, Fib(s.Board.Stack, 10))
	require.Equal(t, 10*FibFrameSize, mon.Used())
}

func TestFibTaskWithinBudget(t *testing.T) {
	s := newTestSystem(nil, Options{MockKeyboardWithPTT: true, Fib: true})
	require.NotPanics(t, s.Tasks.Run)
	require.EqualValues(t, 6765, s.Data.Fib.Last)
}

func TestFibTaskOverMemoryBudget(t *testing.T) {
	s := newTestSystem(nil, Options{MockKeyboardWithPTT: true, Fib: true, FibN: 32})
	require.PanicsWithError(t, "task Fib: memory budget exceeded: 1024 > 1000", s.Tasks.Run)
}
