// Package virtual implements an in-process CAN bus used for tests and
// for running multiple tool instances against each other without real
// hardware. Frames are fanned out directly to every Bus sharing the
// same channel name — there is no broker process to stand up.
package virtual

import (
	"fmt"
	"sync"

	"github.com/diagscan/udsrecon/pkg/can"
)

func init() {
	can.RegisterInterface("virtual", NewVirtualCanBus)
}

var (
	registryMu sync.Mutex
	registry   = make(map[string][]*Bus)
)

type Bus struct {
	mu           sync.Mutex
	channel      string
	receiveOwn   bool
	frameHandler can.FrameListener
	connected    bool
}

func NewVirtualCanBus(channel string) (can.Bus, error) {
	return &Bus{channel: channel}, nil
}

// SetReceiveOwn makes the bus loop its own sent frames back to its
// listener, useful for single-process request/response tests.
func (b *Bus) SetReceiveOwn(receiveOwn bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiveOwn = receiveOwn
}

func (b *Bus) Connect(...any) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[b.channel] = append(registry[b.channel], b)
	b.connected = true
	return nil
}

func (b *Bus) Disconnect() error {
	registryMu.Lock()
	defer registryMu.Unlock()
	peers := registry[b.channel]
	for i, peer := range peers {
		if peer == b {
			registry[b.channel] = append(peers[:i], peers[i+1:]...)
			break
		}
	}
	b.connected = false
	return nil
}

func (b *Bus) Send(frame can.Frame) error {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return fmt.Errorf("virtual: bus on channel %q is not connected", b.channel)
	}
	receiveOwn := b.receiveOwn
	ownHandler := b.frameHandler
	b.mu.Unlock()

	if receiveOwn && ownHandler != nil {
		ownHandler.Handle(frame)
	}

	registryMu.Lock()
	peers := append([]*Bus(nil), registry[b.channel]...)
	registryMu.Unlock()

	for _, peer := range peers {
		if peer == b {
			continue
		}
		peer.mu.Lock()
		handler := peer.frameHandler
		peer.mu.Unlock()
		if handler != nil {
			handler.Handle(frame)
		}
	}
	return nil
}

func (b *Bus) Subscribe(listener can.FrameListener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameHandler = listener
	return nil
}
