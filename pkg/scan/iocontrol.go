package scan

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// ioControlMaxRetries bounds how many times the mask is grown in
// response to "mask too short" before an identifier is given up on.
const ioControlMaxRetries = 10

// IOControlScanOptions configures the input/output control identifier
// scan.
type IOControlScanOptions struct {
	Range   uds.RangeSet
	Timeout time.Duration
}

// DefaultIOControlScanOptions returns the full identifier space.
func DefaultIOControlScanOptions() IOControlScanOptions {
	return IOControlScanOptions{Range: uds.DefaultIdentifierRange}
}

// ScanIOControlIdentifiers probes every did in opts.Range with
// InputOutputControlByIdentifier, growing its control-enable mask by
// one 0xFF byte each time the server reports the mask too short
// (NRC 0x13). The scanner must already be in an extended diagnostic
// session — that transition is the caller's responsibility.
func ScanIOControlIdentifiers(ctx context.Context, client *uds.Client, endpoint Endpoint, opts IOControlScanOptions) ([]IdentifierFinding, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = client.P3Client()
	}
	controlOption := []byte{byte(uds.ReturnControlToECU)}

	var found []IdentifierFinding
	it := opts.Range.Iterator()
	for {
		did, ok := it.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return found, nil
		}

		var mask []byte
		for attempt := 0; attempt < ioControlMaxRetries; attempt++ {
			request := uds.EncodeInputOutputControlByIdentifier(uint16(did), controlOption, mask)
			reply, err := client.Request(ctx, endpoint.RequestID, request, timeout)
			if err != nil {
				return found, err
			}
			if reply == nil {
				// one immediate retry for a silent probe, independent of
				// the mask-growth budget above; abandon this did without
				// recording anything if it stays silent.
				reply, err = client.Request(ctx, endpoint.RequestID, request, timeout)
				if err != nil {
					return found, err
				}
				if reply == nil {
					break
				}
			}

			decoded := uds.Decode(reply, uds.SIDInputOutputControlByIdentifier, -1)
			switch decoded.Outcome {
			case uds.Positive:
				found = append(found, IdentifierFinding{ID: uint16(did), Status: SupportedNoSecurity})
				attempt = ioControlMaxRetries
			case uds.Negative:
				switch decoded.NRC {
				case uds.NRCIncorrectMessageLengthOrInvalidFormat:
					mask = append(mask, 0xFF)
					log.Debugf("[SCAN][IOCONTROL] did 0x%04x growing mask to %d bytes", did, len(mask))
					continue
				case uds.NRCRequestOutOfRange:
					attempt = ioControlMaxRetries
				case uds.NRCSecurityAccessDenied:
					found = append(found, IdentifierFinding{ID: uint16(did), Status: SupportedSecurityAccessDenied})
					attempt = ioControlMaxRetries
				default:
					found = append(found, IdentifierFinding{ID: uint16(did), Status: SupportedNoSecurity})
					attempt = ioControlMaxRetries
				}
			}
			break
		}
	}
	return found, nil
}
