package msg

// TextCap is the capacity of a Text buffer.
const TextCap = 160

// Text is a fixed-capacity byte string carried by value inside a Msg.
type Text struct {
	data [TextCap]byte
	n    uint8
}

// TextFrom creates a Text from b, truncated to TextCap.
func TextFrom(b []byte) (t Text) {
	t.n = uint8(copy(t.data[:], b))
	return
}

// TextString creates a Text from s, truncated to TextCap.
func TextString(s string) (t Text) {
	t.n = uint8(copy(t.data[:], s))
	return
}

// Len returns the number of bytes in the buffer.
func (t *Text) Len() int { return int(t.n) }

// Cap returns TextCap.
func (t *Text) Cap() int { return TextCap }

// Full reports whether no more bytes can be appended.
func (t *Text) Full() bool { return int(t.n) >= TextCap }

// Bytes returns the content. The slice aliases the buffer.
func (t *Text) Bytes() []byte { return t.data[:t.n] }

// String returns the content as a string.
func (t Text) String() string { return string(t.data[:t.n]) }

// At returns the byte at i.
func (t *Text) At(i int) byte { return t.data[:t.n][i] }

// Push appends one byte. It returns false when the buffer is full.
func (t *Text) Push(b byte) bool {
	if t.Full() {
		return false
	}
	t.data[t.n] = b
	t.n++
	return true
}

// Pop removes and returns the last byte.
func (t *Text) Pop() (byte, bool) {
	if t.n == 0 {
		return 0, false
	}
	t.n--
	return t.data[t.n], true
}

// Clear empties the buffer.
func (t *Text) Clear() {
	t.n = 0
}
