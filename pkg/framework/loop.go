package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default period of the main loop.
const DefaultInterval = 10 * time.Millisecond

// Loop is the host main loop: each iteration runs the scheduler and then the
// dispatcher, on the goroutine calling Run. Background runners (links,
// exporters) are started with the loop and stopped with it.
type Loop[D any] struct {
	Interval   time.Duration
	Tasks      *TaskMgr[D]
	Dispatcher *Dispatcher[D]

	runners []Runnable

	hooks []func()
	lock  sync.Mutex

	iterations uint64
	wakeUpCh   chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(LoopControl)
}

// LoopControl exposes access to the loop from other goroutines.
type LoopControl interface {
	// AddRunnable adds background runners. Only valid before Run.
	AddRunnable(...Runnable)
	// Post schedules fn on the loop goroutine before the next iteration.
	Post(fn func())
	// TriggerNext schedules the next iteration immediately.
	TriggerNext()
}

// NewLoop creates a Loop.
func NewLoop[D any](tasks *TaskMgr[D], dispatcher *Dispatcher[D]) *Loop[D] {
	return &Loop[D]{
		Interval:   DefaultInterval,
		Tasks:      tasks,
		Dispatcher: dispatcher,
		wakeUpCh:   make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop[D]) Add(adders ...LoopAdder) *Loop[D] {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddRunnable implements LoopControl.
func (l *Loop[D]) AddRunnable(runnables ...Runnable) {
	l.runners = append(l.runners, runnables...)
}

// Post implements LoopControl.
func (l *Loop[D]) Post(fn func()) {
	l.lock.Lock()
	l.hooks = append(l.hooks, fn)
	l.lock.Unlock()
	l.TriggerNext()
}

// PostWait runs fn on the loop goroutine and waits for it to complete.
func (l *Loop[D]) PostWait(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNext implements LoopControl.
func (l *Loop[D]) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Iterations returns the number of completed iterations. Only meaningful
// on the loop goroutine.
func (l *Loop[D]) Iterations() uint64 {
	return l.iterations
}

// Run implements Runnable. Faults raised by tasks are not recovered here.
func (l *Loop[D]) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(runCtx)
	runner.Go(l.runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Warningf("loop runners: %v", err)
		}
	}()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunIteration()
		case <-l.wakeUpCh:
			l.RunIteration()
		}
	}
}

// RunIteration runs posted hooks, the scheduler and the dispatcher once.
func (l *Loop[D]) RunIteration() {
	l.lock.Lock()
	hooks := l.hooks
	l.hooks = nil
	l.lock.Unlock()
	for _, fn := range hooks {
		fn()
	}
	l.Tasks.Run()
	l.Dispatcher.Process()
	l.iterations++
}
