package scan

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// ErrInvalidSeedLevel mirrors uds.ErrInvalidSeedLevel for the scanner
// layer's own argument validation.
var ErrInvalidSeedLevel = errors.New("scan: level is not a valid request-seed level")

// SeedCaptureOptions configures the security-seed capture loop.
type SeedCaptureOptions struct {
	SessionType byte
	Level       byte
	// ResetType, when non-nil, is issued after each captured seed.
	ResetType *byte
	// Count is the number of seeds to capture; 0 means run until ctx is
	// cancelled.
	Count   int
	Timeout time.Duration
}

// CaptureSeeds repeatedly enters opts.SessionType and requests a seed
// at opts.Level, appending the key-derivation material that follows
// the echoed level byte to the returned list. A negative reply
// terminates the loop immediately — seed capture only ever continues
// on a clean positive response.
func CaptureSeeds(ctx context.Context, client *uds.Client, endpoint Endpoint, opts SeedCaptureOptions) ([][]byte, error) {
	if !uds.IsValidRequestSeedLevel(opts.Level) {
		return nil, ErrInvalidSeedLevel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = client.P3Client()
	}

	var seeds [][]byte
	for opts.Count <= 0 || len(seeds) < opts.Count {
		if err := ctx.Err(); err != nil {
			return seeds, nil
		}

		sessionReply, err := client.Request(ctx, endpoint.RequestID, uds.EncodeDiagnosticSessionControl(opts.SessionType), timeout)
		if err != nil {
			return seeds, err
		}
		if sessionReply == nil {
			sessionReply, err = client.Request(ctx, endpoint.RequestID, uds.EncodeDiagnosticSessionControl(opts.SessionType), timeout)
			if err != nil {
				return seeds, err
			}
		}

		seedReply, err := client.Request(ctx, endpoint.RequestID, uds.EncodeSecurityAccessRequestSeed(opts.Level, nil), timeout)
		if err != nil {
			return seeds, err
		}

		decoded := uds.Decode(seedReply, uds.SIDSecurityAccess, int(opts.Level))
		switch decoded.Outcome {
		case uds.Positive:
			if len(decoded.AdditionalBytes) > 1 {
				seed := append([]byte(nil), decoded.AdditionalBytes[1:]...)
				seeds = append(seeds, seed)
				log.Debugf("[SCAN][SEED] captured seed #%d (%d bytes)", len(seeds), len(seed))
			}
		case uds.Negative:
			log.Warnf("[SCAN][SEED] negative response: %s", uds.NRCDescription(decoded.NRC))
			return seeds, nil
		default:
			return seeds, nil
		}

		if opts.ResetType != nil {
			if _, err := client.Request(ctx, endpoint.RequestID, uds.EncodeECUReset(*opts.ResetType), timeout); err != nil {
				return seeds, err
			}
			if *opts.ResetType == uds.ResetHard {
				time.Sleep(500 * time.Millisecond)
			}
		}
	}
	return seeds, nil
}
