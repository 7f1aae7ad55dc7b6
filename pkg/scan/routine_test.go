package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/transport/fake"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func TestScanRoutineIdentifiersClassifiesByNRC(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		rid := uint16(payload[2])<<8 | uint16(payload[3])
		switch rid {
		case 0x0200:
			return []fake.Reply{{Payload: []byte{0x7F, 0x31, uds.NRCRequestOutOfRange}}}
		case 0x0201:
			return []fake.Reply{{Payload: []byte{0x7F, 0x31, uds.NRCSubFunctionNotSupported}}}
		case 0x0202:
			return []fake.Reply{{Payload: []byte{0x7F, 0x31, uds.NRCSecurityAccessDenied}}}
		default:
			return []fake.Reply{{Payload: []byte{0x7F, 0x31, uds.NRCRequestOutOfRange}}}
		}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := RoutineScanOptions{Range: uds.RangeSet{{Min: 0x0200, Max: 0x0202}}, Timeout: 10 * time.Millisecond}
	found, err := ScanRoutineIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Len(t, found, 2)

	byID := map[uint16]IdentifierFinding{}
	for _, f := range found {
		byID[f.ID] = f
	}
	assert.Equal(t, SupportedNoSecurity, byID[0x0201].Status)
	assert.Equal(t, SupportedSecurityAccessDenied, byID[0x0202].Status)
	_, outOfRangeRecorded := byID[0x0200]
	assert.False(t, outOfRangeRecorded)
}

func TestScanRoutineIdentifiersFlagsAnomalousPositive(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		return []fake.Reply{{Payload: []byte{0x71, 0x00, payload[2], payload[3]}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := RoutineScanOptions{Range: uds.RangeSet{{Min: 0x0300, Max: 0x0300}}, Timeout: 10 * time.Millisecond}
	found, err := ScanRoutineIdentifiers(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "?? Success ?? how", found[0].Anomaly)
}
