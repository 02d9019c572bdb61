// Package sh is an interactive shell poking at a running device: it injects
// input the way a user or the network would and inspects the scheduler.
package sh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/hactar.go/pkg/board"
	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
	"github.com/robotalks/hactar.go/pkg/netlink"
	"github.com/robotalks/hactar.go/pkg/stack"
	"github.com/robotalks/hactar.go/pkg/tasks"
)

// ExecTimeout bounds the wait for the loop to run an inspection.
const ExecTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Shell  *ishell.Shell
	System *tasks.System
	// Exec runs fn on the loop goroutine. Data owned by tasks is only
	// touched through Exec. fn may still run after Exec returned an error.
	Exec func(fn func()) error

	// remote is the object the simulated peer sends next.
	remote msg.Object
}

const (
	shellKey = "$shell"
	prompt   = "hactar > "
)

var commands = []*ishell.Cmd{
	&TypeCmd,
	&KeyCmd,
	&PTTCmd,
	&ReceiveCmd,
	&ScreenCmd,
	&MetricsCmd,
	&StackCmd,
	&BatteryCmd,
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell on a system driven by loop.
func New(sys *tasks.System) *Shell {
	s := NewWithExec(sys, func(fn func()) error {
		ctx, cancel := context.WithTimeout(context.Background(), ExecTimeout)
		defer cancel()
		return sys.Loop.PostWait(ctx, fn)
	})
	s.Shell = ishell.New()
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// NewWithExec creates a Shell without the interactive part.
func NewWithExec(sys *tasks.System, exec func(fn func()) error) *Shell {
	return &Shell{
		System: sys,
		Exec:   exec,
		remote: msg.Object{TrackAlias: tasks.DefaultTrackAlias, GroupID: 1},
	}
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Run runs the interactive shell until exit or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	return framework.RunWithContextCancel(ctx, s.Shell.Close, func() error {
		s.Shell.Run()
		return nil
	})
}

// Type enters text on the console followed by Enter.
func (s *Shell) Type(text string) error {
	data := []byte(text + "\r")
	if n := s.System.Board.Inject().ConsoleInput(data); n < len(data) {
		return fmt.Errorf("console overrun, %d of %d bytes taken", n, len(data))
	}
	return nil
}

// Key presses keys on the keyboard.
func (s *Shell) Key(keys []byte) error {
	for _, k := range keys {
		if !s.System.Board.Inject().Keypress(k) {
			return fmt.Errorf("keyboard queue full")
		}
	}
	return nil
}

// PTT presses or releases the PTT button.
func (s *Shell) PTT(action string) error {
	inject := s.System.Board.Inject()
	switch action {
	case "press":
		inject.PTTPress()
	case "release":
		inject.PTTRelease()
	default:
		return fmt.Errorf("unknown PTT action %q", action)
	}
	return nil
}

// query runs fn on the loop goroutine and returns its result. The result
// is handed over on a buffered channel, so a late run after Exec gave up
// neither blocks the loop nor writes to the caller.
func query[T any](s *Shell, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	if err := s.Exec(func() {
		val, err := fn()
		ch <- result{val: val, err: err}
	}); err != nil {
		var zero T
		return zero, err
	}
	r := <-ch
	return r.val, r.err
}

// Receive delivers text as a chat message from a peer on the network link.
func (s *Shell) Receive(text string) error {
	if len(text) > msg.TextCap {
		return fmt.Errorf("text too long")
	}
	frame, err := query(s, func() (*netlink.Frame, error) {
		crypto := &s.System.Data.Crypto
		plain := msg.TextString(text)
		enc, tag, err := crypto.Seal(s.remote, &plain)
		if err != nil {
			return nil, fmt.Errorf("encrypt: %w", err)
		}
		f := &netlink.Frame{
			Kind:       netlink.FrameObject,
			ObjectId:   s.remote.ObjectID,
			GroupId:    s.remote.GroupID,
			TrackAlias: s.remote.TrackAlias,
			KeyId:      crypto.KeyID,
			EncData:    enc.Bytes(),
			AuthTag:    tag[:],
			Origin:     "shell",
		}
		s.remote.ObjectID++
		return f, nil
	})
	if err != nil {
		return err
	}
	return s.System.Board.Inject().DataFromLink(frame)
}

// Screen writes the text on the display.
func (s *Shell) Screen(w io.Writer) error {
	lines, err := query(s, func() (lines [tasks.TextRows]string, err error) {
		for r := range lines {
			lines[r] = s.System.Data.Render.Line(r)
		}
		return
	})
	if err != nil {
		return err
	}
	for r, line := range lines {
		if r == tasks.InputRow {
			fmt.Fprintf(w, "> %s\n", line)
		} else if line != "" {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}

type metricsSnapshot struct {
	tasks      [framework.MaxTasks]framework.TaskMetrics
	iterations uint64
}

// Metrics writes the task metrics of the current report period.
func (s *Shell) Metrics(w io.Writer) error {
	snap, err := query(s, func() (snap metricsSnapshot, err error) {
		for i := range snap.tasks {
			snap.tasks[i] = s.System.Metrics.Task(i)
		}
		snap.iterations = s.System.Loop.Iterations()
		return
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d iterations\n", snap.iterations)
	for i, m := range snap.tasks {
		if m.Name == "" {
			continue
		}
		fmt.Fprintf(w, "%d %-10s %6d runs %6d bytes %8d us\n", i, m.Name, m.RunCount, m.MaxStack, m.MaxDurationUs)
	}
	return nil
}

// Stack writes the stack usage.
func (s *Shell) Stack(w io.Writer) error {
	u, err := query(s, func() (stack.Usage, error) {
		return s.System.Board.StackMonitor().Usage(false), nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "used %d bytes, current %d bytes, reserved %d bytes\n", u.Used, u.Current, u.Reserved)
	return nil
}

func printed(c *ishell.Context, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		c.Err(err)
		return
	}
	c.Print(buf.String())
}

func done(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
	}
}

var (
	// TypeCmd types a line on the console.
	TypeCmd = ishell.Cmd{
		Name:    "type",
		Aliases: []string{"t"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			done(c, ShellFrom(c).Type(strings.Join(c.Args, " ")))
		},
	}

	// KeyCmd presses keys on the keyboard.
	KeyCmd = ishell.Cmd{
		Name:    "key",
		Aliases: []string{"k"},
		Help:    "KEYS|enter|back",
		Func: func(c *ishell.Context) {
			var keys []byte
			for _, arg := range c.Args {
				switch arg {
				case "enter":
					keys = append(keys, board.KeyEnter)
				case "back":
					keys = append(keys, board.KeyBack)
				default:
					keys = append(keys, arg...)
				}
			}
			done(c, ShellFrom(c).Key(keys))
		},
	}

	// PTTCmd operates the PTT button.
	PTTCmd = ishell.Cmd{
		Name: "ptt",
		Help: "press|release",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("press or release expected"))
				return
			}
			done(c, ShellFrom(c).PTT(c.Args[0]))
		},
	}

	// ReceiveCmd simulates a message from the network.
	ReceiveCmd = ishell.Cmd{
		Name:    "receive",
		Aliases: []string{"recv"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			done(c, ShellFrom(c).Receive(strings.Join(c.Args, " ")))
		},
	}

	// ScreenCmd shows the display text.
	ScreenCmd = ishell.Cmd{
		Name:    "screen",
		Aliases: []string{"s"},
		Func: func(c *ishell.Context) {
			printed(c, ShellFrom(c).Screen)
		},
	}

	// MetricsCmd shows task metrics.
	MetricsCmd = ishell.Cmd{
		Name:    "metrics",
		Aliases: []string{"m"},
		Func: func(c *ishell.Context) {
			printed(c, ShellFrom(c).Metrics)
		},
	}

	// StackCmd shows stack usage.
	StackCmd = ishell.Cmd{
		Name: "stack",
		Func: func(c *ishell.Context) {
			printed(c, ShellFrom(c).Stack)
		},
	}

	// BatteryCmd sets the battery level.
	BatteryCmd = ishell.Cmd{
		Name: "battery",
		Help: "PERCENTAGE",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				c.Printf("%d%%\n", s.System.Board.Battery.Percentage())
				return
			}
			val, err := strconv.ParseUint(c.Args[0], 10, 8)
			if err != nil {
				c.Err(err)
				return
			}
			s.System.Board.Inject().SetBatteryPercentage(uint8(val))
		},
	}
)
