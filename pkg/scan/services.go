package scan

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/diagscan/udsrecon/pkg/uds"
)

// ErrInvalidServiceRange is returned for an inverted service-id bound.
var ErrInvalidServiceRange = errors.New("scan: max_service must be >= min_service")

// DefaultServiceProbeTimeout is the per-probe timeout used when none
// is given.
const DefaultServiceProbeTimeout = 200 * time.Millisecond

// ServiceDiscoveryOptions configures the service discovery scanner.
type ServiceDiscoveryOptions struct {
	MinService byte
	MaxService byte
	Timeout    time.Duration
}

// DefaultServiceDiscoveryOptions returns the full 0x00-0xFF service id
// space at a 200ms per-probe timeout.
func DefaultServiceDiscoveryOptions() ServiceDiscoveryOptions {
	return ServiceDiscoveryOptions{MinService: 0x00, MaxService: 0xFF, Timeout: DefaultServiceProbeTimeout}
}

// DiscoverServices probes service identifiers in
// [opts.MinService, opts.MaxService] against endpoint. A reply of at
// least three bytes whose reply[2] is not "service not supported"
// (NRC 0x11) records reply[1]; shorter replies are not recorded.
// client.Request returns a fully reassembled message (no leading PCI
// byte), so in a negative reply reply[1] is the sid the server echoes
// back — this attributes slow negative replies correctly even if the
// scanner has since moved on to a later probe. In a positive reply,
// reply[1] is the response's first data byte, not an echoed sid.
func DiscoverServices(ctx context.Context, client *uds.Client, endpoint Endpoint, opts ServiceDiscoveryOptions) ([]byte, error) {
	if opts.MaxService < opts.MinService {
		return nil, ErrInvalidServiceRange
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultServiceProbeTimeout
	}

	var found []byte
	for sid := int(opts.MinService); sid <= int(opts.MaxService); sid++ {
		if err := ctx.Err(); err != nil {
			return found, nil
		}

		reply, err := client.Request(ctx, endpoint.RequestID, []byte{byte(sid)}, opts.Timeout)
		if err != nil {
			return found, err
		}
		if len(reply) < 3 {
			continue
		}
		if reply[2] == uds.NRCServiceNotSupported {
			continue
		}
		echoedSID := reply[1]
		log.Debugf("[SCAN][SERVICES] sid 0x%02x supported", echoedSID)
		found = append(found, echoedSID)
	}
	return found, nil
}
