// Package socketcan adapts github.com/brutella/can's SocketCAN driver
// to the can.Bus interface. It moves frames only — it knows nothing
// about diagnostic services or transport segmentation.
package socketcan

import (
	sockcan "github.com/brutella/can"

	"github.com/diagscan/udsrecon/pkg/can"
)

func init() {
	can.RegisterInterface("socketcan", NewSocketCanBus)
}

type SocketcanBus struct {
	bus        *sockcan.Bus
	rxCallback can.FrameListener
}

func (s *SocketcanBus) Connect(...any) error {
	go s.bus.ConnectAndPublish()
	return nil
}

func (s *SocketcanBus) Disconnect() error {
	return s.bus.Disconnect()
}

func (s *SocketcanBus) Send(frame can.Frame) error {
	return s.bus.Publish(sockcan.Frame{
		ID:     frame.ID,
		Length: frame.DLC,
		Flags:  frame.Flags,
		Data:   frame.Data,
	})
}

func (s *SocketcanBus) Subscribe(rxCallback can.FrameListener) error {
	s.rxCallback = rxCallback
	// brutella/can defines its own "Handle" interface for received frames
	s.bus.Subscribe(s)
	return nil
}

// Handle implements brutella/can's frame listener interface.
func (s *SocketcanBus) Handle(frame sockcan.Frame) {
	s.rxCallback.Handle(can.Frame{ID: frame.ID, DLC: frame.Length, Flags: frame.Flags, Data: frame.Data})
}

func NewSocketCanBus(name string) (can.Bus, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	return &SocketcanBus{bus: bus}, nil
}
