package board

import "sync"

// Buttons reads the PTT (push-to-talk) and AI buttons. Each read reports the
// current state and whether it changed since the previous read.
type Buttons struct {
	HasPTT bool
	HasAI  bool

	lock    sync.Mutex
	ptt     bool
	ai      bool
	prevPTT bool
	prevAI  bool
}

// NewButtons creates Buttons with both buttons present.
func NewButtons() *Buttons {
	return &Buttons{HasPTT: true, HasAI: true}
}

// ReadPTT returns (pressed, changed) of the PTT button.
func (b *Buttons) ReadPTT() (state, changed bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.HasPTT {
		return false, false
	}
	state, changed = b.ptt, b.ptt != b.prevPTT
	b.prevPTT = state
	return
}

// ReadAI returns (pressed, changed) of the AI button.
func (b *Buttons) ReadAI() (state, changed bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.HasAI {
		return false, false
	}
	state, changed = b.ai, b.ai != b.prevAI
	b.prevAI = state
	return
}

// SetPTT sets the line level of the PTT button.
func (b *Buttons) SetPTT(pressed bool) {
	b.lock.Lock()
	b.ptt = pressed
	b.lock.Unlock()
}

// SetAI sets the line level of the AI button.
func (b *Buttons) SetAI(pressed bool) {
	b.lock.Lock()
	b.ai = pressed
	b.lock.Unlock()
}
