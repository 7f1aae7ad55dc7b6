package scan

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/internal/noise"
	"github.com/diagscan/udsrecon/pkg/can"
	"github.com/diagscan/udsrecon/pkg/transport/isotp"
	"github.com/diagscan/udsrecon/pkg/uds"
)

// ErrInvalidDiscoveryRange is returned for inverted id bounds or a
// negative auto-blacklist duration.
var ErrInvalidDiscoveryRange = errors.New("scan: max_id must be >= min_id and auto_blacklist_duration must be >= 0")

// backtrackWindow is the number of ids the verification pass re-probes
// backward from a candidate hit, reconciling slow replies that arrive
// off by a few ids from the probe that triggered them.
const backtrackWindow = 5

// sessionControlToDefault is the [0x10, 0x01] request every discovery
// probe sends, pre-built once per scan.
var sessionControlToDefault = uds.EncodeDiagnosticSessionControl(uds.SessionDefault)

// DiscoveryOptions configures the endpoint discovery scanner.
type DiscoveryOptions struct {
	MinID                 uint32
	MaxID                 uint32
	Blacklist             map[uint32]struct{}
	AutoBlacklistDuration time.Duration
	Delay                 time.Duration
	Verify                bool
	Extended              bool
}

// frameCapture is a FrameListener that buffers frames onto a channel,
// standing in for the "bus filter" the algorithm narrows during
// verification — this implementation filters in software rather than
// installing a hardware CAN filter, since can.Bus exposes no such
// primitive.
type frameCapture struct {
	ch chan can.Frame
}

func newFrameCapture() *frameCapture {
	return &frameCapture{ch: make(chan can.Frame, 256)}
}

func (f *frameCapture) Handle(frame can.Frame) {
	select {
	case f.ch <- frame:
	default:
		log.Warn("[SCAN][DISCOVERY] dropped frame, capture buffer full")
	}
}

// drain collects frames from capture for up to window, skipping
// blacklisted ids and, when filterID is non-nil, every id but
// *filterID. It returns the first remaining frame that
// noise.IsSessionControlShaped accepts, or (Frame{}, false, nil) if
// window elapses first, or ctx's error if ctx is cancelled.
func drain(ctx context.Context, capture *frameCapture, window time.Duration, blacklist map[uint32]struct{}, filterID *uint32) (can.Frame, bool, error) {
	deadline := time.Now().Add(window)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return can.Frame{}, false, nil
		}
		select {
		case frame := <-capture.ch:
			if _, blacklisted := blacklist[frame.ID]; blacklisted {
				continue
			}
			if filterID != nil && frame.ID != *filterID {
				continue
			}
			if noise.IsSessionControlShaped(frame) {
				return frame, true, nil
			}
		case <-time.After(remaining):
			return can.Frame{}, false, nil
		case <-ctx.Done():
			return can.Frame{}, false, ctx.Err()
		}
	}
}

// DiscoverEndpoints brute-forces request arbitration ids in
// [opts.MinID, opts.MaxID], recording every (request id, response id)
// pair observed to reply. It returns partial findings if ctx is
// cancelled.
func DiscoverEndpoints(ctx context.Context, bus can.Bus, opts DiscoveryOptions) ([]Endpoint, error) {
	if opts.MaxID < opts.MinID || opts.AutoBlacklistDuration < 0 {
		return nil, ErrInvalidDiscoveryRange
	}

	blacklist := make(map[uint32]struct{}, len(opts.Blacklist))
	for id := range opts.Blacklist {
		blacklist[id] = struct{}{}
	}

	capture := newFrameCapture()
	if err := bus.Subscribe(capture); err != nil {
		return nil, err
	}

	if opts.AutoBlacklistDuration > 0 {
		log.Debugf("[SCAN][DISCOVERY] auto-blacklist listening for %s", opts.AutoBlacklistDuration)
		var observed []can.Frame
		deadline := time.Now().Add(opts.AutoBlacklistDuration)
		for time.Now().Before(deadline) {
			select {
			case frame := <-capture.ch:
				observed = append(observed, frame)
			case <-time.After(time.Until(deadline)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		for id := range noise.BlacklistFromFrames(observed, noise.IsSessionControlShaped) {
			blacklist[id] = struct{}{}
		}
	}

	frame, err := isotp.EncodeSingleFrame(sessionControlToDefault)
	if err != nil {
		return nil, err
	}

	var found []Endpoint
	flags := uint8(0)
	if opts.Extended {
		flags = can.ExtendedFlag
	}

	sendID := opts.MinID
	for sendID <= opts.MaxID {
		if err := ctx.Err(); err != nil {
			return found, nil
		}

		if err := bus.Send(can.NewFrame(sendID, flags, frame)); err != nil {
			return found, err
		}

		reply, qualified, err := drain(ctx, capture, opts.Delay, blacklist, nil)
		if err != nil {
			return found, nil
		}
		if !qualified {
			sendID++
			continue
		}

		respID := reply.ID
		if !opts.Verify {
			found = append(found, Endpoint{RequestID: sendID, ResponseID: respID})
			sendID++
			continue
		}

		verifiedID, ok, err := verifyBacktrack(ctx, bus, capture, sendID, respID, opts.Delay, blacklist, flags)
		if err != nil {
			return found, nil
		}
		if ok {
			found = append(found, Endpoint{RequestID: verifiedID, ResponseID: respID})
			sendID = verifiedID + 1
		} else {
			sendID++
		}
	}

	return found, nil
}

// verifyBacktrack re-probes candidateID, candidateID-1, ..., down by
// backtrackWindow slots, narrowing capture to only frames from respID.
// The first id that replies again wins, reconciling a slow reply that
// arrives while the scanner has already moved on to a later id.
func verifyBacktrack(ctx context.Context, bus can.Bus, capture *frameCapture, candidateID, respID uint32, delay time.Duration, blacklist map[uint32]struct{}, flags uint8) (uint32, bool, error) {
	frame, err := isotp.EncodeSingleFrame(sessionControlToDefault)
	if err != nil {
		return 0, false, err
	}
	window := delay + 500*time.Millisecond

	for offset := uint32(0); offset < backtrackWindow; offset++ {
		if offset > candidateID {
			break
		}
		probeID := candidateID - offset
		if err := bus.Send(can.NewFrame(probeID, flags, frame)); err != nil {
			return 0, false, err
		}
		filterID := respID
		_, qualified, err := drain(ctx, capture, window, blacklist, &filterID)
		if err != nil {
			return 0, false, err
		}
		if qualified {
			return probeID, true, nil
		}
	}
	return 0, false, nil
}
