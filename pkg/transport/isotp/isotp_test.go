package isotp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/can"
	"github.com/diagscan/udsrecon/pkg/can/virtual"
)

func newConnectedPair(t *testing.T, channel string) (can.Bus, can.Bus) {
	t.Helper()
	a, err := virtual.NewVirtualCanBus(channel)
	assert.NoError(t, err)
	b, err := virtual.NewVirtualCanBus(channel)
	assert.NoError(t, err)
	assert.NoError(t, a.Connect())
	assert.NoError(t, b.Connect())
	t.Cleanup(func() {
		a.Disconnect()
		b.Disconnect()
	})
	return a, b
}

func TestEncodeSingleFrame(t *testing.T) {
	frame, err := EncodeSingleFrame([]byte{0x10, 0x01})
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x10, 0x01}, frame)

	_, err = EncodeSingleFrame(make([]byte, 8))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestSingleFrameRoundTrip(t *testing.T) {
	busA, busB := newConnectedPair(t, "isotp-single-"+t.Name())

	tester, err := New(busA, 0x7E0, 0x7E8, false, nil)
	assert.NoError(t, err)
	ecu, err := New(busB, 0x7E8, 0x7E0, false, nil)
	assert.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, tester.SendMessage(ctx, 0x7E0, []byte{0x10, 0x01}))

	req, err := ecu.ReceiveMessage(ctx, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x01}, req)

	assert.NoError(t, ecu.SendMessage(ctx, 0x7E8, []byte{0x50, 0x01}))
	reply, err := tester.ReceiveMessage(ctx, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0x01}, reply)
}

func TestMultiFrameRoundTrip(t *testing.T) {
	busA, busB := newConnectedPair(t, "isotp-multi-"+t.Name())

	tester, err := New(busA, 0x7E0, 0x7E8, false, nil)
	assert.NoError(t, err)
	ecu, err := New(busB, 0x7E8, 0x7E0, false, nil)
	assert.NoError(t, err)

	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}

	ctx := context.Background()
	errc := make(chan error, 1)
	go func() { errc <- tester.SendMessage(ctx, 0x7E0, payload) }()

	got, err := ecu.ReceiveMessage(ctx, 2*time.Second)
	assert.NoError(t, err)
	assert.NoError(t, <-errc)
	assert.Equal(t, payload, got)
}

func TestReceiveMessageTimesOut(t *testing.T) {
	busA, _ := newConnectedPair(t, "isotp-timeout-"+t.Name())
	tester, err := New(busA, 0x7E0, 0x7E8, false, nil)
	assert.NoError(t, err)

	msg, err := tester.ReceiveMessage(context.Background(), 20*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, msg)
}
