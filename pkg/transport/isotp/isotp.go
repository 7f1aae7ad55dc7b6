// Package isotp is a reference ISO-15765-2-style segmentation layer.
// It reassembles bytes so the tool can run end to end, but carries
// none of the retry, timeout, or response-classification logic that
// belongs one layer up, in pkg/uds.
package isotp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diagscan/udsrecon/pkg/can"
)

const (
	pciSingleFrame    = 0x0
	pciFirstFrame     = 0x1
	pciConsecutive    = 0x2
	pciFlowControl    = 0x3
	flowControlClear  = 0x0
	maxSingleFrameLen = 7
)

// ErrPayloadTooLarge is returned by SendMessage for a payload over 4095
// bytes and by EncodeSingleFrame for a payload over 7 bytes.
var ErrPayloadTooLarge = errors.New("isotp: payload too large")

// EncodeSingleFrame builds the one-CAN-frame wire encoding of a
// payload of at most 7 bytes. Endpoint discovery uses this directly
// (bypassing a per-endpoint Transport) since it probes arbitration ids
// whose reply id isn't known yet.
func EncodeSingleFrame(payload []byte) ([]byte, error) {
	if len(payload) > maxSingleFrameLen {
		return nil, fmt.Errorf("%w: %d bytes exceeds single-frame limit of %d", ErrPayloadTooLarge, len(payload), maxSingleFrameLen)
	}
	data := make([]byte, 0, 8)
	data = append(data, byte(pciSingleFrame<<4)|byte(len(payload)))
	return append(data, payload...), nil
}

// Transport segments/reassembles messages for one (request id, reply
// id) pair over a can.Bus. A new Transport should be constructed per
// endpoint pair: a scan holds the transport exclusively for its
// lifetime.
type Transport struct {
	bus         can.Bus
	replyID     uint32
	extended    bool
	logger      *slog.Logger
	flowControl uint32 // arbitration id used to acknowledge incoming multi-frame messages

	rx chan can.Frame
}

// New wires a Transport to listen for frames carrying replyID. The
// caller is responsible for Bus.Connect and eventual Disconnect —
// Transport only subscribes.
// requestID is the arbitration id this side of the conversation sends
// on — used both for outbound requests and for flow-control frames
// acknowledging an incoming multi-frame response.
func New(bus can.Bus, requestID, replyID uint32, extended bool, logger *slog.Logger) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		bus:         bus,
		replyID:     replyID,
		extended:    extended,
		logger:      logger.With("component", "isotp"),
		flowControl: requestID,
		rx:          make(chan can.Frame, 16),
	}
	if err := bus.Subscribe(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Handle implements can.FrameListener.
func (t *Transport) Handle(frame can.Frame) {
	if frame.ID != t.replyID {
		return
	}
	select {
	case t.rx <- frame:
	default:
		t.logger.Warn("dropped frame, receiver not keeping up", "id", frame.ID)
	}
}

func (t *Transport) SendMessage(ctx context.Context, requestID uint32, payload []byte) error {
	if len(payload) > 4095 {
		return ErrPayloadTooLarge
	}
	if len(payload) <= maxSingleFrameLen {
		data := make([]byte, 0, 8)
		data = append(data, byte(pciSingleFrame<<4)|byte(len(payload)))
		data = append(data, payload...)
		return t.bus.Send(can.NewFrame(requestID, t.flags(), data))
	}
	return t.sendMultiFrame(ctx, requestID, payload)
}

func (t *Transport) sendMultiFrame(ctx context.Context, requestID uint32, payload []byte) error {
	ff := make([]byte, 8)
	ff[0] = byte(pciFirstFrame<<4) | byte((len(payload)>>8)&0x0F)
	ff[1] = byte(len(payload) & 0xFF)
	n := copy(ff[2:], payload)
	if err := t.bus.Send(can.NewFrame(requestID, t.flags(), ff)); err != nil {
		return err
	}
	sent := n

	// Wait for flow control before streaming consecutive frames.
	fc, err := t.waitFlowControl(ctx)
	if err != nil {
		return fmt.Errorf("isotp: no flow control received: %w", err)
	}
	stmin := stminDelay(fc.Data[2])

	seq := byte(1)
	for sent < len(payload) {
		chunk := payload[sent:]
		if len(chunk) > 7 {
			chunk = chunk[:7]
		}
		cf := make([]byte, 0, 8)
		cf = append(cf, byte(pciConsecutive<<4)|(seq&0x0F))
		cf = append(cf, chunk...)
		if err := t.bus.Send(can.NewFrame(requestID, t.flags(), cf)); err != nil {
			return err
		}
		sent += len(chunk)
		seq++
		if sent < len(payload) && stmin > 0 {
			select {
			case <-time.After(stmin):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (t *Transport) waitFlowControl(ctx context.Context) (can.Frame, error) {
	for {
		select {
		case frame := <-t.rx:
			if frame.DLC >= 1 && frame.Data[0]>>4 == pciFlowControl {
				return frame, nil
			}
		case <-time.After(time.Second):
			return can.Frame{}, errors.New("timeout")
		case <-ctx.Done():
			return can.Frame{}, ctx.Err()
		}
	}
}

func stminDelay(stmin byte) time.Duration {
	if stmin <= 0x7F {
		return time.Duration(stmin) * time.Millisecond
	}
	if stmin >= 0xF1 && stmin <= 0xF9 {
		return time.Duration(stmin-0xF0) * 100 * time.Microsecond
	}
	return 0
}

// ReceiveMessage waits up to timeout for one fully reassembled
// message, absorbing first/consecutive frame bookkeeping.
func (t *Transport) ReceiveMessage(ctx context.Context, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var buf []byte
	var want int
	nextSeq := byte(1)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		select {
		case frame := <-t.rx:
			if frame.DLC == 0 {
				continue
			}
			pci := frame.Data[0] >> 4
			switch pci {
			case pciSingleFrame:
				length := int(frame.Data[0] & 0x0F)
				if length == 0 || int(frame.DLC) < length+1 {
					continue
				}
				return append([]byte(nil), frame.Data[1:1+length]...), nil

			case pciFirstFrame:
				want = int(frame.Data[0]&0x0F)<<8 | int(frame.Data[1])
				buf = append([]byte(nil), frame.Data[2:frame.DLC]...)
				nextSeq = 1
				if err := t.sendFlowControlClear(t.flowControl); err != nil {
					t.logger.Warn("failed to send flow control", "err", err)
				}

			case pciConsecutive:
				if want == 0 {
					continue
				}
				seq := frame.Data[0] & 0x0F
				if seq != nextSeq&0x0F {
					t.logger.Warn("out of order consecutive frame", "got", seq, "want", nextSeq&0x0F)
					continue
				}
				buf = append(buf, frame.Data[1:frame.DLC]...)
				nextSeq++
				if len(buf) >= want {
					return buf[:want], nil
				}
			}
		case <-time.After(remaining):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (t *Transport) sendFlowControlClear(requestID uint32) error {
	data := []byte{byte(pciFlowControl<<4) | flowControlClear, 0, 0}
	return t.bus.Send(can.NewFrame(requestID, t.flags(), data))
}

func (t *Transport) flags() uint8 {
	if t.extended {
		return can.ExtendedFlag
	}
	return 0
}
