package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSessionIgnoresSuppressBit(t *testing.T) {
	for s := byte(0); s < 0xFF; s++ {
		assert.Equal(t, IsValidSession(s), IsValidSession(s|SuppressPositiveResponse), "s=0x%02x", s)
	}
	assert.True(t, IsValidSession(SessionDefault))
	assert.False(t, IsValidSession(0x00))
}

func TestIsValidResetType(t *testing.T) {
	assert.True(t, IsValidResetType(ResetHard))
	assert.True(t, IsValidResetType(ResetHard|SuppressPositiveResponse))
	assert.False(t, IsValidResetType(0x00))
	assert.False(t, IsValidResetType(0x06))
}

func TestIsValidRequestSeedLevel(t *testing.T) {
	assert.True(t, IsValidRequestSeedLevel(0x01))
	assert.True(t, IsValidRequestSeedLevel(0x41))
	assert.False(t, IsValidRequestSeedLevel(0x02))
	assert.False(t, IsValidRequestSeedLevel(0x43))
}

func TestSendKeyLevelFor(t *testing.T) {
	assert.Equal(t, byte(0x02), SendKeyLevelFor(0x01))
	assert.True(t, IsValidSendKeyLevel(SendKeyLevelFor(0x01)))
}

func TestNRCDescriptionKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "sub-function not supported", NRCDescription(NRCSubFunctionNotSupported))
	assert.NotEqual(t, "", NRCDescription(0x99))
}
