package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPendingResponse(t *testing.T) {
	assert.True(t, IsPendingResponse([]byte{0x7F, 0x10, 0x78}))
	assert.False(t, IsPendingResponse([]byte{0x7F, 0x10, 0x31}))
	assert.False(t, IsPendingResponse(nil))
	assert.False(t, IsPendingResponse([]byte{0x7F, 0x78}))
}

func TestDecodeAbsentAndEmpty(t *testing.T) {
	assert.Equal(t, Absent, Decode(nil, SIDDiagnosticSessionControl, -1).Outcome)
	assert.Equal(t, Empty, Decode([]byte{}, SIDDiagnosticSessionControl, -1).Outcome)
}

func TestDecodeTruncatedNegative(t *testing.T) {
	d := Decode([]byte{0x7F, 0x10}, SIDDiagnosticSessionControl, -1)
	assert.Equal(t, Truncated, d.Outcome)
}

func TestDecodeNegative(t *testing.T) {
	d := Decode([]byte{0x7F, 0x10, 0x12}, SIDDiagnosticSessionControl, -1)
	assert.Equal(t, Negative, d.Outcome)
	assert.Equal(t, byte(0x12), d.NRC)
}

func TestDecodePositive(t *testing.T) {
	d := Decode([]byte{0x50, 0x01}, SIDDiagnosticSessionControl, 0x01)
	assert.Equal(t, Positive, d.Outcome)
	assert.Equal(t, []byte{0x01}, d.AdditionalBytes)
}

func TestDecodeMismatchWrongSID(t *testing.T) {
	d := Decode([]byte{0x51, 0x01}, SIDDiagnosticSessionControl, 0x01)
	assert.Equal(t, Mismatch, d.Outcome)
}

func TestDecodeMismatchNegativeWrongEchoedSID(t *testing.T) {
	// a stray negative reply echoing an unrelated service must not be
	// attributed to this request.
	d := Decode([]byte{0x7F, 0x22, 0x22}, SIDDiagnosticSessionControl, -1)
	assert.Equal(t, Mismatch, d.Outcome)
}

func TestDecodeMismatchWrongSubfunction(t *testing.T) {
	d := Decode([]byte{0x50, 0x02}, SIDDiagnosticSessionControl, 0x01)
	assert.Equal(t, Mismatch, d.Outcome)
}

func TestDecodeSuppressBitMaskedOnSubfunction(t *testing.T) {
	d := Decode([]byte{0x50, 0x81}, SIDDiagnosticSessionControl, 0x01)
	assert.Equal(t, Positive, d.Outcome)
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive([]byte{0x50, 0x01}))
	assert.False(t, IsPositive([]byte{0x7F, 0x10, 0x12}))
	assert.False(t, IsPositive(nil))
}

func TestServiceResponseID(t *testing.T) {
	assert.Equal(t, byte(0x50), ServiceResponseID(SIDDiagnosticSessionControl))
	assert.Equal(t, byte(0x67), ServiceResponseID(SIDSecurityAccess))
}
