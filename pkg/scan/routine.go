package scan

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// routineControlPadding is ten trailing 0x01 bytes appended to defeat
// an optional-argument minimum-length check some servers apply before
// reaching the sub-function validity check.
var routineControlPadding = []byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

// routineControlInvalidSubfunction is the intentionally illegal
// sub-function 0x00 every probe uses — RoutineControl only defines
// 0x01 (start), 0x02 (stop), 0x03 (request results).
const routineControlInvalidSubfunction = 0x00

// RoutineScanOptions configures the routine-control identifier scan.
type RoutineScanOptions struct {
	Range   uds.RangeSet
	Timeout time.Duration
}

// DefaultRoutineScanOptions returns the full identifier space; the OEM
// and supplier routine-identifier presets are opt-in.
func DefaultRoutineScanOptions() RoutineScanOptions {
	return RoutineScanOptions{Range: uds.DefaultIdentifierRange}
}

// ScanRoutineIdentifiers probes every rid in opts.Range, expecting only
// negative replies since every probe's sub-function is invalid by
// construction. A positive reply is a protocol anomaly — the server
// accepted a sub-function it has no business accepting — and is
// surfaced as an anomaly rather than silently dropped.
func ScanRoutineIdentifiers(ctx context.Context, client *uds.Client, endpoint Endpoint, opts RoutineScanOptions) ([]IdentifierFinding, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = client.P3Client()
	}

	var found []IdentifierFinding
	it := opts.Range.Iterator()
	for {
		rid, ok := it.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return found, nil
		}

		request := uds.EncodeRoutineControl(routineControlInvalidSubfunction, uint16(rid), routineControlPadding)

		reply, err := client.Request(ctx, endpoint.RequestID, request, timeout)
		if err != nil {
			return found, err
		}
		if reply == nil {
			reply, err = client.Request(ctx, endpoint.RequestID, request, timeout)
			if err != nil {
				return found, err
			}
		}

		decoded := uds.Decode(reply, uds.SIDRoutineControl, -1)
		switch decoded.Outcome {
		case uds.Negative:
			switch decoded.NRC {
			case uds.NRCRequestOutOfRange:
				// not supported, nothing to record
			case uds.NRCSubFunctionNotSupported:
				found = append(found, IdentifierFinding{ID: uint16(rid), Status: SupportedNoSecurity})
			case uds.NRCSecurityAccessDenied:
				found = append(found, IdentifierFinding{ID: uint16(rid), Status: SupportedSecurityAccessDenied})
			}
		case uds.Positive:
			log.Warnf("[SCAN][ROUTINE] rid 0x%04x answered an invalid sub-function", rid)
			found = append(found, IdentifierFinding{ID: uint16(rid), Status: SupportedNoSecurity, Anomaly: "?? Success ?? how"})
		}
	}
	return found, nil
}
