package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/diagscan/udsrecon/pkg/transport/fake"
	"github.com/diagscan/udsrecon/pkg/uds"
)

func TestCaptureSeedsAcrossHardReset(t *testing.T) {
	tr := fake.New()
	call := 0
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		call++
		switch payload[0] {
		case uds.SIDDiagnosticSessionControl:
			return []fake.Reply{{Payload: []byte{0x50, payload[1]}}}
		case uds.SIDSecurityAccess:
			return []fake.Reply{{Payload: []byte{0x67, payload[1], 0xAA, 0xBB, 0xCC, 0xDD}}}
		case uds.SIDECUReset:
			return []fake.Reply{{Payload: []byte{0x51, payload[1]}}}
		}
		return nil
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	resetType := uds.ResetHard
	opts := SeedCaptureOptions{
		SessionType: uds.SessionExtendedDiag,
		Level:       0x01,
		ResetType:   &resetType,
		Count:       2,
		Timeout:     10 * time.Millisecond,
	}

	start := time.Now()
	seeds, err := CaptureSeeds(context.Background(), client, endpoint, opts)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.Len(t, seeds, 2)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, seeds[0])
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, seeds[1])
	// two hard resets, each followed by a 500ms settle sleep
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestCaptureSeedsStopsOnNegativeReply(t *testing.T) {
	tr := fake.New()
	tr.Responder = func(requestID uint32, payload []byte) []fake.Reply {
		switch payload[0] {
		case uds.SIDDiagnosticSessionControl:
			return []fake.Reply{{Payload: []byte{0x50, payload[1]}}}
		case uds.SIDSecurityAccess:
			return []fake.Reply{{Payload: []byte{0x7F, uds.SIDSecurityAccess, uds.NRCConditionsNotCorrect}}}
		}
		return nil
	}
	client := uds.NewClient(tr)
	endpoint := Endpoint{RequestID: 0x7E0, ResponseID: 0x7E8}

	opts := SeedCaptureOptions{SessionType: uds.SessionExtendedDiag, Level: 0x01, Timeout: 10 * time.Millisecond}
	seeds, err := CaptureSeeds(context.Background(), client, endpoint, opts)
	assert.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestCaptureSeedsRejectsInvalidLevel(t *testing.T) {
	client := uds.NewClient(fake.New())
	_, err := CaptureSeeds(context.Background(), client, Endpoint{}, SeedCaptureOptions{Level: 0x00})
	assert.ErrorIs(t, err, ErrInvalidSeedLevel)
}
