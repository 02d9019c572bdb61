package tasks

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/robotalks/hactar.go/pkg/framework"
	"github.com/robotalks/hactar.go/pkg/msg"
)

// DefaultKeyID identifies DefaultKey.
const DefaultKeyID uint32 = 321

// DefaultKey is the development key shared by all devices.
var DefaultKey = [chacha20poly1305.KeySize]byte{
	0x68, 0x61, 0x63, 0x74, 0x61, 0x72, 0x2d, 0x64,
	0x65, 0x76, 0x2d, 0x6b, 0x65, 0x79, 0x2d, 0x30,
	0x30, 0x31, 0x2d, 0x6e, 0x6f, 0x74, 0x2d, 0x66,
	0x6f, 0x72, 0x2d, 0x75, 0x73, 0x65, 0x21, 0x21,
}

// MaxKeys is the capacity of a Keyring.
const MaxKeys = 4

var (
	// ErrUnknownKey indicates the key id is not in the keyring.
	ErrUnknownKey = errors.New("unknown key")
	// ErrKeyringFull indicates the keyring has no free slot.
	ErrKeyringFull = errors.New("keyring full")
)

// CryptoTaskInfo describes CryptoTask.
var CryptoTaskInfo = framework.TaskInfo{
	Name:       "Crypto",
	RunEvery:   100000,
	TimeBudget: 10000,
	MemBudget:  500,
}

type keySlot struct {
	id   uint32
	aead cipher.AEAD
}

// Keyring holds XChaCha20-Poly1305 keys by id. Keys are added at startup.
type Keyring struct {
	slots [MaxKeys]keySlot
	count int
}

// Add adds or replaces a key.
func (k *Keyring) Add(id uint32, key []byte) error {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("key %d: %w", id, err)
	}
	for i := 0; i < k.count; i++ {
		if k.slots[i].id == id {
			k.slots[i].aead = aead
			return nil
		}
	}
	if k.count >= MaxKeys {
		return ErrKeyringFull
	}
	k.slots[k.count] = keySlot{id: id, aead: aead}
	k.count++
	return nil
}

// Get returns the AEAD of a key.
func (k *Keyring) Get(id uint32) (cipher.AEAD, error) {
	for i := 0; i < k.count; i++ {
		if k.slots[i].id == id {
			return k.slots[i].aead, nil
		}
	}
	return nil, ErrUnknownKey
}

// CryptoData selects the key for outgoing messages.
type CryptoData struct {
	KeyID    uint32
	Keys     Keyring
	Failures uint32
}

// CryptoTask encrypts outgoing and decrypts incoming chat text.
type CryptoTask struct{}

// Run implements Task.
func (t *CryptoTask) Run(msg.Msg, *Context) {}

// Info implements Task.
func (t *CryptoTask) Info() *framework.TaskInfo {
	return &CryptoTaskInfo
}

// nonce binds the ciphertext to the object: track alias, group and object.
func nonce(obj msg.Object) (n [chacha20poly1305.NonceSizeX]byte) {
	binary.LittleEndian.PutUint64(n[0:], obj.TrackAlias)
	binary.LittleEndian.PutUint32(n[8:], obj.GroupID)
	binary.LittleEndian.PutUint32(n[12:], obj.ObjectID)
	return
}

func additionalData(keyID uint32) (ad [4]byte) {
	binary.LittleEndian.PutUint32(ad[:], keyID)
	return
}

// Seal encrypts text of obj. The ciphertext has the length of text.
func (d *CryptoData) Seal(obj msg.Object, text *msg.Text) (enc msg.Text, tag [msg.TagSize]byte, err error) {
	aead, err := d.Keys.Get(d.KeyID)
	if err != nil {
		return
	}
	var buf [msg.TextCap + msg.TagSize]byte
	n, ad := nonce(obj), additionalData(d.KeyID)
	out := aead.Seal(buf[:0], n[:], text.Bytes(), ad[:])
	split := len(out) - msg.TagSize
	enc = msg.TextFrom(out[:split])
	copy(tag[:], out[split:])
	return
}

// Open decrypts and authenticates enc of obj.
func (d *CryptoData) Open(obj msg.Object, keyID uint32, enc *msg.Text, tag [msg.TagSize]byte) (text msg.Text, err error) {
	aead, err := d.Keys.Get(keyID)
	if err != nil {
		return
	}
	var buf [msg.TextCap + msg.TagSize]byte
	sealed := append(buf[:0], enc.Bytes()...)
	sealed = append(sealed, tag[:]...)
	n, ad := nonce(obj), additionalData(keyID)
	out, err := aead.Open(sealed[:0], n[:], sealed, ad[:])
	if err != nil {
		return
	}
	return msg.TextFrom(out), nil
}

// CryptoRecv handles TxtMsgOut and EncTxtMsgIn. Messages failing to
// encrypt or authenticate are dropped.
func CryptoRecv(m msg.Msg, ctx *Context) {
	data := &ctx.Data.Crypto
	switch m.Kind {
	case msg.TxtMsgOut:
		enc, tag, err := data.Seal(m.Object, &m.Text)
		if err != nil {
			data.Failures++
			glog.Warningf("encrypt object %d: %v", m.ObjectID, err)
			return
		}
		ctx.Send(msg.NewEncTxtMsgOut(m.Object, data.KeyID, enc, tag))
	case msg.EncTxtMsgIn:
		text, err := data.Open(m.Object, m.KeyID, &m.Text, m.AuthTag)
		if err != nil {
			data.Failures++
			glog.Warningf("decrypt object %d key %d: %v", m.ObjectID, m.KeyID, err)
			return
		}
		ctx.Send(msg.NewTxtMsgIn(m.Object, text))
	}
}
