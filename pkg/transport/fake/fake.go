// Package fake provides a scripted transport.Transport for scanner
// unit tests. Segmentation is out of scope here, so tests script
// reassembled messages directly instead of driving frames through a
// bus.
package fake

import (
	"context"
	"sync"
	"time"
)

// Reply is one scripted response to a request sent to an arbitration
// id, with an optional artificial delay before it is "received".
type Reply struct {
	Payload []byte
	Delay   time.Duration
}

// Transport replies to requests on a given arbitration id according to
// a caller-supplied function, or from a fixed reply queue per id.
// Either Responder or Queue may be used; Responder takes precedence.
type Transport struct {
	mu sync.Mutex

	// Responder, if set, is called for every SendMessage and its
	// return value becomes the queued reply (nil means no reply).
	Responder func(requestID uint32, payload []byte) []Reply

	queue map[uint32][]Reply
	sent  []Sent

	pending []Reply
}

// Sent records one request the fake observed, for assertions.
type Sent struct {
	RequestID uint32
	Payload   []byte
}

func New() *Transport {
	return &Transport{queue: make(map[uint32][]Reply)}
}

// Enqueue schedules replies to be returned, in order, to the next
// calls to ReceiveMessage regardless of which request triggered them —
// sufficient for scanners, which always send-then-receive serially.
func (t *Transport) Enqueue(replies ...Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, replies...)
}

// EnqueueFor schedules replies keyed by request arbitration id, used
// by the Responder-free mode.
func (t *Transport) EnqueueFor(requestID uint32, replies ...Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue[requestID] = append(t.queue[requestID], replies...)
}

func (t *Transport) Sent() []Sent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sent(nil), t.sent...)
}

func (t *Transport) SendMessage(ctx context.Context, requestID uint32, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, Sent{RequestID: requestID, Payload: append([]byte(nil), payload...)})

	if t.Responder != nil {
		t.pending = append(t.pending, t.Responder(requestID, payload)...)
		return nil
	}
	if replies, ok := t.queue[requestID]; ok && len(replies) > 0 {
		t.pending = append(t.pending, replies[0])
		t.queue[requestID] = replies[1:]
	}
	return nil
}

func (t *Transport) ReceiveMessage(ctx context.Context, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		t.mu.Lock()
		if len(t.pending) > 0 {
			reply := t.pending[0]
			t.pending = t.pending[1:]
			t.mu.Unlock()
			if reply.Delay > 0 {
				select {
				case <-time.After(reply.Delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return reply.Payload, nil
		}
		t.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-time.After(time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
