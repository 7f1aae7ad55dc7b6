package scan

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// SessionScanRetryDelay is the single retry wait inserted after a
// silent probe before giving the sub-function one more try.
const SessionScanRetryDelay = 1 * time.Second

// SessionScanOptions configures the session-control sub-function scan.
type SessionScanOptions struct {
	MinSubfunction byte
	MaxSubfunction byte
	Timeout        time.Duration
}

// DefaultSessionScanOptions returns the full [0x00, 0x7F] sub-function
// range at the client's default P3 window.
func DefaultSessionScanOptions() SessionScanOptions {
	return SessionScanOptions{MinSubfunction: 0x00, MaxSubfunction: 0x7F}
}

// ScanSessionSubfunctions probes every sub-function in
// [opts.MinSubfunction, opts.MaxSubfunction], recording the ones that
// either elicit a positive DiagnosticSessionControl reply or a
// negative reply whose NRC isn't "sub-function not supported". A
// programming-session hit (0x02) is backed out of immediately: the
// ECU is returned to the default session before scanning continues.
func ScanSessionSubfunctions(ctx context.Context, client *uds.Client, endpoint Endpoint, opts SessionScanOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = client.P3Client()
	}

	var found []byte
	for subfn := int(opts.MinSubfunction); subfn <= int(opts.MaxSubfunction); subfn++ {
		if err := ctx.Err(); err != nil {
			return found, nil
		}

		request := uds.EncodeDiagnosticSessionControl(byte(subfn))
		reply, err := client.Request(ctx, endpoint.RequestID, request, timeout)
		if err != nil {
			return found, err
		}
		if reply == nil {
			select {
			case <-time.After(SessionScanRetryDelay):
			case <-ctx.Done():
				return found, nil
			}
			reply, err = client.Request(ctx, endpoint.RequestID, request, timeout)
			if err != nil {
				return found, err
			}
		}

		decoded := uds.Decode(reply, uds.SIDDiagnosticSessionControl, -1)
		switch decoded.Outcome {
		case uds.Positive:
			found = append(found, byte(subfn))
			log.Debugf("[SCAN][SESSION] subfn 0x%02x supported", subfn)
			if subfn == 0x02 {
				time.Sleep(1 * time.Second)
				revert := uds.EncodeDiagnosticSessionControl(uds.SessionDefault)
				if _, err := client.Request(ctx, endpoint.RequestID, revert, timeout); err != nil {
					return found, err
				}
				time.Sleep(1 * time.Second)
			}
		case uds.Negative:
			if decoded.NRC != uds.NRCSubFunctionNotSupported {
				found = append(found, byte(subfn))
				log.Debugf("[SCAN][SESSION] subfn 0x%02x supported (nrc 0x%02x)", subfn, decoded.NRC)
			}
		}
	}
	return found, nil
}
