package mpsc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/hactar.go/pkg/msg"
)

func TestCapacity(t *testing.T) {
	tx, rx := NewTable().Channel()
	for i := 0; i < QSize; i++ {
		tx.Send(msg.NewKeyboard(byte('a' + i)))
	}
	require.Equal(t, QSize, rx.Len())
	require.PanicsWithError(t, "queue full: channel 0 dropping Keyboard", func() {
		tx.Send(msg.NewKeyboard('z'))
	})
}

func TestEmptyRecv(t *testing.T) {
	_, rx := NewTable().Channel()
	m := rx.Recv()
	require.True(t, m.IsNone())
	require.Equal(t, 0, rx.Len())
}

func TestFIFO(t *testing.T) {
	tx, rx := NewTable().Channel()
	tx.Send(msg.NewKeyboard('A'))
	tx.Send(msg.NewKeyboard('B'))
	require.Equal(t, byte('A'), rx.Recv().Key)
	require.Equal(t, byte('B'), rx.Recv().Key)
	last := rx.Recv()
	require.True(t, last.IsNone())
}

func TestFIFOWrapsAround(t *testing.T) {
	tx, rx := NewTable().Channel()
	for round := 0; round < 3; round++ {
		for i := 0; i < QSize-1; i++ {
			tx.Send(msg.NewKeyboard(byte(i)))
		}
		for i := 0; i < QSize-1; i++ {
			require.Equal(t, byte(i), rx.Recv().Key)
		}
	}
}

func TestProducersShareQueue(t *testing.T) {
	tx1, rx := NewTable().Channel()
	tx2 := tx1
	tx1.Send(msg.NewPttButton(true))
	tx2.Send(msg.NewPttButton(false))
	require.Equal(t, 2, rx.Len())
	require.True(t, rx.Recv().Pressed)
	require.False(t, rx.Recv().Pressed)
}

func TestChannelsAreIndependent(t *testing.T) {
	table := NewTable()
	tx0, rx0 := table.Channel()
	tx1, rx1 := table.Channel()
	require.Equal(t, 0, tx0.Index())
	require.Equal(t, 1, rx1.Index())
	tx0.Send(msg.NewKeyboard('0'))
	tx1.Send(msg.NewKeyboard('1'))
	require.Equal(t, byte('0'), rx0.Recv().Key)
	require.Equal(t, byte('1'), rx1.Recv().Key)
	require.Equal(t, "sender#1", tx1.String())
}

func TestChannelExhausted(t *testing.T) {
	table := NewTable()
	for i := 0; i < NumQueues; i++ {
		table.Channel()
	}
	require.PanicsWithError(t, "channel exhausted: 2 channels provisioned", func() {
		table.Channel()
	})
	table.Reset()
	require.NotPanics(t, func() { table.Channel() })
}
