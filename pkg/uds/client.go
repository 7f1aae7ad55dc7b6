package uds

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/transport"
)

// DefaultP3Client is the client's default response wait window, P3 in
// ISO-14229 terms.
const DefaultP3Client = 5 * time.Second

// Client wraps a transport.Transport with service request encoding and
// pending-response suppression. It owns a single mutable P3 wait
// window as a per-client field, not a process singleton: a scanner
// that wants a tighter window mutates it under Client's own scoped
// ownership (SetP3Client), never through a shared global.
type Client struct {
	transport transport.Transport

	mu       sync.Mutex
	p3Client time.Duration
}

// NewClient builds a Client around an already-connected transport.
func NewClient(t transport.Transport) *Client {
	return &Client{transport: t, p3Client: DefaultP3Client}
}

// P3Client returns the current response wait window.
func (c *Client) P3Client() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p3Client
}

// SetP3Client updates the response wait window used by subsequent
// requests that don't pass an explicit window.
func (c *Client) SetP3Client(window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.p3Client = window
}

// ReceiveResponse repeatedly asks the transport for a message,
// absorbing NRC-0x78 pending-response keep-alives without resetting
// the deadline, and returns (nil, nil) — absence, not an error — if
// waitWindow elapses with nothing else arriving.
func (c *Client) ReceiveResponse(ctx context.Context, waitWindow time.Duration) ([]byte, error) {
	deadline := time.Now().Add(waitWindow)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		msg, err := c.transport.ReceiveMessage(ctx, remaining)
		if err != nil {
			return nil, err
		}
		if IsPendingResponse(msg) {
			log.Debugf("[CLIENT][RX] pending response (0x78), continuing to wait")
			continue
		}
		if len(msg) > 0 {
			return msg, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
	}
}

// Request sends payload to requestID and waits up to waitWindow for a
// response, applying pending-response suppression. This is the general
// entry point scanners use when they need non-standard framing (extra
// trailing bytes, an intentionally invalid sub-function, ...).
func (c *Client) Request(ctx context.Context, requestID uint32, payload []byte, waitWindow time.Duration) ([]byte, error) {
	if err := c.transport.SendMessage(ctx, requestID, payload); err != nil {
		return nil, err
	}
	return c.ReceiveResponse(ctx, waitWindow)
}

// requestDefault sends payload and waits up to the client's current
// P3Client window.
func (c *Client) requestDefault(ctx context.Context, requestID uint32, payload []byte) ([]byte, error) {
	return c.Request(ctx, requestID, payload, c.P3Client())
}

// DiagnosticSessionControl issues service 0x10.
func (c *Client) DiagnosticSessionControl(ctx context.Context, requestID uint32, sessionType byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeDiagnosticSessionControl(sessionType))
}

// ECUReset issues service 0x11.
func (c *Client) ECUReset(ctx context.Context, requestID uint32, resetType byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeECUReset(resetType))
}

// ReadDataByIdentifier issues service 0x22.
func (c *Client) ReadDataByIdentifier(ctx context.Context, requestID uint32, dids ...uint16) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeReadDataByIdentifier(dids...))
}

// ReadMemoryByAddress issues service 0x23.
func (c *Client) ReadMemoryByAddress(ctx context.Context, requestID uint32, alfid byte, address, size uint64) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeReadMemoryByAddress(alfid, address, size))
}

// SecurityAccessRequestSeed issues service 0x27 in request-seed mode.
func (c *Client) SecurityAccessRequestSeed(ctx context.Context, requestID uint32, level byte, dataRecord []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeSecurityAccessRequestSeed(level, dataRecord))
}

// SecurityAccessSendKey issues service 0x27 in send-key mode.
func (c *Client) SecurityAccessSendKey(ctx context.Context, requestID uint32, level byte, key []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeSecurityAccessSendKey(level, key))
}

// WriteDataByIdentifier issues service 0x2E.
func (c *Client) WriteDataByIdentifier(ctx context.Context, requestID uint32, did uint16, data []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeWriteDataByIdentifier(did, data))
}

// InputOutputControlByIdentifier issues service 0x2F.
func (c *Client) InputOutputControlByIdentifier(ctx context.Context, requestID uint32, did uint16, controlOption, controlEnableMask []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeInputOutputControlByIdentifier(did, controlOption, controlEnableMask))
}

// RoutineControl issues service 0x31.
func (c *Client) RoutineControl(ctx context.Context, requestID uint32, subfn byte, rid uint16, optionalData []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeRoutineControl(subfn, rid, optionalData))
}

// WriteMemoryByAddress issues service 0x3D.
func (c *Client) WriteMemoryByAddress(ctx context.Context, requestID uint32, alfid byte, address, size uint64, data []byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeWriteMemoryByAddress(alfid, address, size, data))
}

// TesterPresent issues service 0x3E.
func (c *Client) TesterPresent(ctx context.Context, requestID uint32, subfn byte) ([]byte, error) {
	return c.requestDefault(ctx, requestID, EncodeTesterPresent(subfn))
}
