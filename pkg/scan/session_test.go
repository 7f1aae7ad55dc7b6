package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/transport/fake"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func TestScanSessionSubfunctions(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		subfn := payload[1]
		switch subfn {
		case 0x01:
			return []fake.Reply{{Payload: []byte{0x50, 0x01, 0x00, 0x32, 0x01, 0xF4}}}
		case 0x03:
			// not sub-function-not-supported -> record
			return []fake.Reply{{Payload: []byte{0x7F, 0x10, uds.NRCConditionsNotCorrect}}}
		default:
			return []fake.Reply{{Payload: []byte{0x7F, 0x10, uds.NRCSubFunctionNotSupported}}}
		}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := SessionScanOptions{MinSubfunction: 0x01, MaxSubfunction: 0x04, Timeout: 10 * time.Millisecond}
	found, err := ScanSessionSubfunctions(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []byte{0x01, 0x03}, found)
}

func TestScanSessionSubfunctionsIgnoresStrayNegativeFromUnrelatedService(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		// a negative reply echoing a different service (e.g. a slow
		// reply to a previous ReadDataByIdentifier probe arriving late)
		// must not be attributed to this sub-function.
		return []fake.Reply{{Payload: []byte{0x7F, uds.SIDReadDataByIdentifier, uds.NRCConditionsNotCorrect}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := SessionScanOptions{MinSubfunction: 0x01, MaxSubfunction: 0x01, Timeout: 10 * time.Millisecond}
	found, err := ScanSessionSubfunctions(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestScanSessionSubfunctionsProgrammingSessionReverts(t *testing.T) {
	tr := fake.New()
	var requestedSubfns []byte
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		requestedSubfns = append(requestedSubfns, payload[1])
		if payload[1] == 0x02 || payload[1] == uds.SessionDefault {
			return []fake.Reply{{Payload: []byte{0x50, payload[1]}}}
		}
		return []fake.Reply{{Payload: []byte{0x7F, 0x10, uds.NRCSubFunctionNotSupported}}}
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := SessionScanOptions{MinSubfunction: 0x02, MaxSubfunction: 0x02, Timeout: 10 * time.Millisecond}
	found, err := ScanSessionSubfunctions(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x02}, found)
	// the scanner must have requested the default session again to
	// back out of the programming session it just entered.
	assert.Contains(t, requestedSubfns, uds.SessionDefault)
}
