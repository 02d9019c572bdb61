package board

import "sync"

// Keyboard matrix size.
const (
	KbdCols = 5
	KbdRows = 7
)

// Special key codes.
const (
	KeySym     byte = 1
	KeyAlt     byte = 2
	KeyMic     byte = 3
	KeyShift   byte = 4
	KeyDollar  byte = 5
	KeySpeaker byte = 6
	KeyBack    byte = 0x08
	KeyEnter   byte = '\r'
	KeySpace   byte = ' '
)

// BaseCharMap maps matrix positions [col][row] to characters.
var BaseCharMap = [KbdCols][KbdRows]byte{
	{'Q', 'W', KeySym, 'A', KeyAlt, KeySpace, KeyMic},
	{'E', 'S', 'D', 'P', 'X', 'Z', KeyShift},
	{'R', 'G', 'T', KeyShift, 'V', 'C', 'F'},
	{'U', 'H', 'Y', KeyEnter, 'B', 'N', 'J'},
	{'O', 'L', 'I', KeyBack, KeyDollar, 'M', 'K'},
}

// SymbolCharMap maps matrix positions [col][row] when SYM is held.
var SymbolCharMap = [KbdCols][KbdRows]byte{
	{'#', '1', KeySym, '*', KeyAlt, KeySpace, '0'},
	{'2', '4', '5', '@', '8', '7', KeyShift},
	{'3', '/', '(', KeyShift, '?', '9', '6'},
	{'_', ':', ')', KeyEnter, '!', ',', ';'},
	{'+', '"', '-', KeyBack, KeySpeaker, '.', '\''},
}

// KeyQueueSize is the number of pending key presses buffered.
const KeyQueueSize = 16

// Keyboard buffers decoded key presses until GetKey polls them.
type Keyboard struct {
	lock  sync.Mutex
	keys  [KeyQueueSize]byte
	head  int
	count int
	sym   bool
}

// NewKeyboard creates a Keyboard.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// GetKey returns the next key or 0 when none is pending.
func (k *Keyboard) GetKey() byte {
	k.lock.Lock()
	defer k.lock.Unlock()
	if k.count == 0 {
		return 0
	}
	key := k.keys[k.head]
	k.head = (k.head + 1) % KeyQueueSize
	k.count--
	return key
}

// Press queues a key. It returns false when the queue is full.
func (k *Keyboard) Press(key byte) bool {
	if key == 0 {
		return false
	}
	k.lock.Lock()
	defer k.lock.Unlock()
	if k.count == KeyQueueSize {
		return false
	}
	k.keys[(k.head+k.count)%KeyQueueSize] = key
	k.count++
	return true
}

// PressAt decodes a matrix position and queues the key. SYM toggles the
// symbol layer for the next key.
func (k *Keyboard) PressAt(col, row int) bool {
	if col < 0 || col >= KbdCols || row < 0 || row >= KbdRows {
		return false
	}
	k.lock.Lock()
	charMap := &BaseCharMap
	if k.sym {
		charMap = &SymbolCharMap
	}
	key := charMap[col][row]
	if key == KeySym {
		k.sym = !k.sym
		k.lock.Unlock()
		return true
	}
	k.sym = false
	k.lock.Unlock()
	switch key {
	case KeyAlt, KeyMic, KeyShift, KeyDollar, KeySpeaker:
		// modifiers without a character.
		return true
	}
	return k.Press(key)
}
