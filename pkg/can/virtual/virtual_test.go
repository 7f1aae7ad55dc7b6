package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/can"
)

type capturingListener struct {
	frames []can.Frame
}

func (c *capturingListener) Handle(frame can.Frame) {
	c.frames = append(c.frames, frame)
}

func TestVirtualBusFansOutToPeers(t *testing.T) {
	a, err := NewVirtualCanBus("fanout-test")
	assert.NoError(t, err)
	b, err := NewVirtualCanBus("fanout-test")
	assert.NoError(t, err)
	assert.NoError(t, a.Connect())
	assert.NoError(t, b.Connect())
	defer a.Disconnect()
	defer b.Disconnect()

	listener := &capturingListener{}
	assert.NoError(t, b.Subscribe(listener))

	assert.NoError(t, a.Send(can.NewFrame(0x7E0, 0, []byte{0x01, 0x02})))
	assert.Len(t, listener.frames, 1)
	assert.Equal(t, uint32(0x7E0), listener.frames[0].ID)
}

func TestVirtualBusDoesNotReceiveOwnByDefault(t *testing.T) {
	bus, err := NewVirtualCanBus("self-test")
	assert.NoError(t, err)
	assert.NoError(t, bus.Connect())
	defer bus.Disconnect()

	listener := &capturingListener{}
	vb := bus.(*Bus)
	assert.NoError(t, vb.Subscribe(listener))

	assert.NoError(t, vb.Send(can.NewFrame(0x100, 0, []byte{0xFF})))
	assert.Empty(t, listener.frames)

	vb.SetReceiveOwn(true)
	assert.NoError(t, vb.Send(can.NewFrame(0x100, 0, []byte{0xFF})))
	assert.Len(t, listener.frames, 1)
}

func TestVirtualBusSendBeforeConnectFails(t *testing.T) {
	bus, err := NewVirtualCanBus("unconnected-test")
	assert.NoError(t, err)
	vb := bus.(*Bus)
	assert.Error(t, vb.Send(can.NewFrame(0x100, 0, []byte{0x01})))
}
