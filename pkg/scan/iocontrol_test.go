package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/transport/fake"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func TestScanIOControlIdentifiersGrowsMaskUntilAccepted(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		// payload: [0x2F, did_hi, did_lo, controlOption, mask...]
		maskLen := len(payload) - 4
		if maskLen < 2 {
			return []fake.Reply{{Payload: []byte{0x7F, 0x2F, uds.NRCIncorrectMessageLengthOrInvalidFormat}}}
		}
		return []fake.Reply{{Payload: []byte{0x6F, payload[1], payload[2], payload[3]}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := IOControlScanOptions{Range: uds.RangeSet{{Min: 0x1000, Max: 0x1000}}, Timeout: 10 * time.Millisecond}
	found, err := ScanIOControlIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, uint16(0x1000), found[0].ID)
	assert.Equal(t, SupportedNoSecurity, found[0].Status)
}

func TestScanIOControlIdentifiersSecurityDenied(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		return []fake.Reply{{Payload: []byte{0x7F, 0x2F, uds.NRCSecurityAccessDenied}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := IOControlScanOptions{Range: uds.RangeSet{{Min: 0x2000, Max: 0x2000}}, Timeout: 10 * time.Millisecond}
	found, err := ScanIOControlIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, SupportedSecurityAccessDenied, found[0].Status)
}

func TestScanIOControlIdentifiersAbandonsSilentIdentifierAfterOneRetry(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		return nil // never replies
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := IOControlScanOptions{Range: uds.RangeSet{{Min: 0x4000, Max: 0x4000}}, Timeout: time.Millisecond}
	found, err := ScanIOControlIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Empty(t, found)
	// one probe plus exactly one retry, independent of the ten-attempt
	// mask-growth budget.
	assert.Len(t, tr.Sent(), 2)
}

func TestScanIOControlIdentifiersOutOfRangeSkipped(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		return []fake.Reply{{Payload: []byte{0x7F, 0x2F, uds.NRCRequestOutOfRange}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := IOControlScanOptions{Range: uds.RangeSet{{Min: 0x3000, Max: 0x3000}}, Timeout: 10 * time.Millisecond}
	found, err := ScanIOControlIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Empty(t, found)
}
