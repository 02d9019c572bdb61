// Package msg defines the messages passed between tasks.
package msg

import "fmt"

// Kind is the tag of a Msg.
type Kind uint8

// Message kinds.
const (
	// None is the zero Msg, returned by an empty channel.
	None Kind = iota
	PttButton
	Keyboard
	TextInput
	TxtMsgOut
	TxtMsgIn
	EncTxtMsgOut
	EncTxtMsgIn
	PrintMsg
	PrintInputMsg
	PrintClearMsg
	PrintClearInputMsg

	// NumKinds is the number of kinds, None included.
	NumKinds int = iota
)

var kindNames = [NumKinds]string{
	None:               "None",
	PttButton:          "PttButton",
	Keyboard:           "Keyboard",
	TextInput:          "TextInput",
	TxtMsgOut:          "TxtMsgOut",
	TxtMsgIn:           "TxtMsgIn",
	EncTxtMsgOut:       "EncTxtMsgOut",
	EncTxtMsgIn:        "EncTxtMsgIn",
	PrintMsg:           "PrintMsg",
	PrintInputMsg:      "PrintInputMsg",
	PrintClearMsg:      "PrintClearMsg",
	PrintClearInputMsg: "PrintClearInputMsg",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// TagSize is the size of an authentication tag.
const TagSize = 16

// Object identifies a chat object on a track.
type Object struct {
	ObjectID   uint32
	GroupID    uint32
	TrackAlias uint64
}

// Msg is a closed tagged union. Only the fields belonging to Kind are
// meaningful. It is a plain value: copying a Msg copies its text.
type Msg struct {
	Kind Kind

	// Pressed is the PttButton state.
	Pressed bool
	// Key is the Keyboard key.
	Key byte

	Object
	KeyID   uint32
	AuthTag [TagSize]byte

	// Text is the TextInput buffer, the chat text, the print text or the
	// encrypted text depending on Kind.
	Text Text
}

// IsNone reports whether m is the None message.
func (m *Msg) IsNone() bool {
	return m.Kind == None
}

// String implements fmt.Stringer.
func (m Msg) String() string {
	switch m.Kind {
	case PttButton:
		return fmt.Sprintf("PttButton(%v)", m.Pressed)
	case Keyboard:
		return fmt.Sprintf("Keyboard{%q}", m.Key)
	case TextInput, PrintMsg, PrintInputMsg:
		return fmt.Sprintf("%s{%q}", m.Kind, m.Text.String())
	case TxtMsgOut, TxtMsgIn:
		return fmt.Sprintf("%s{obj=%d grp=%d track=%d %q}",
			m.Kind, m.ObjectID, m.GroupID, m.TrackAlias, m.Text.String())
	case EncTxtMsgOut, EncTxtMsgIn:
		return fmt.Sprintf("%s{obj=%d grp=%d track=%d key=%d len=%d}",
			m.Kind, m.ObjectID, m.GroupID, m.TrackAlias, m.KeyID, m.Text.Len())
	}
	return m.Kind.String()
}

// NewPttButton creates a PttButton message.
func NewPttButton(pressed bool) Msg {
	return Msg{Kind: PttButton, Pressed: pressed}
}

// NewKeyboard creates a Keyboard message.
func NewKeyboard(key byte) Msg {
	return Msg{Kind: Keyboard, Key: key}
}

// NewTextInput creates a TextInput message.
func NewTextInput(buf Text) Msg {
	return Msg{Kind: TextInput, Text: buf}
}

// NewTxtMsgOut creates an outgoing plain text chat message.
func NewTxtMsgOut(obj Object, text Text) Msg {
	return Msg{Kind: TxtMsgOut, Object: obj, Text: text}
}

// NewTxtMsgIn creates an incoming plain text chat message.
func NewTxtMsgIn(obj Object, text Text) Msg {
	return Msg{Kind: TxtMsgIn, Object: obj, Text: text}
}

// NewEncTxtMsgOut creates an outgoing encrypted chat message.
func NewEncTxtMsgOut(obj Object, keyID uint32, enc Text, tag [TagSize]byte) Msg {
	return Msg{Kind: EncTxtMsgOut, Object: obj, KeyID: keyID, Text: enc, AuthTag: tag}
}

// NewEncTxtMsgIn creates an incoming encrypted chat message.
func NewEncTxtMsgIn(obj Object, keyID uint32, enc Text, tag [TagSize]byte) Msg {
	return Msg{Kind: EncTxtMsgIn, Object: obj, KeyID: keyID, Text: enc, AuthTag: tag}
}

// NewPrintMsg creates a message printing a line of chat history.
func NewPrintMsg(text Text) Msg {
	return Msg{Kind: PrintMsg, Text: text}
}

// NewPrintInputMsg creates a message printing the input line.
func NewPrintInputMsg(text Text) Msg {
	return Msg{Kind: PrintInputMsg, Text: text}
}

// NewPrintClearMsg creates a message clearing the chat history.
func NewPrintClearMsg() Msg {
	return Msg{Kind: PrintClearMsg}
}

// NewPrintClearInputMsg creates a message clearing the input line.
func NewPrintClearInputMsg() Msg {
	return Msg{Kind: PrintClearInputMsg}
}
