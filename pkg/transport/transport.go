// Package transport defines the contract the diagnostic protocol
// client consumes. Segmentation/reassembly (ISO-15765-2 in the real
// world) lives below this interface and is explicitly out of scope
// for the protocol client and scanners — they only ever call
// SendMessage/ReceiveMessage.
package transport

import (
	"context"
	"time"
)

// Transport moves whole diagnostic messages (already reassembled, or
// about to be segmented) between the protocol client and a bus.
type Transport interface {
	// SendMessage transmits a complete request payload to the given
	// request arbitration id, segmenting it if required.
	SendMessage(ctx context.Context, requestID uint32, payload []byte) error

	// ReceiveMessage waits up to timeout for one complete, reassembled
	// response message. It returns (nil, nil) — not an error — if
	// nothing arrived within the window; that absence is meaningful to
	// the protocol client, not exceptional.
	ReceiveMessage(ctx context.Context, timeout time.Duration) ([]byte, error)
}
