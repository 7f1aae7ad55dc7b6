// Package uds implements the ISO-14229 diagnostic-protocol client and
// the pure response-classification helpers scanners build on.
package uds

// Service identifiers (SIDs). Positive responses use SID+0x40.
const (
	SIDDiagnosticSessionControl         byte = 0x10
	SIDECUReset                         byte = 0x11
	SIDReadDataByIdentifier             byte = 0x22
	SIDReadMemoryByAddress              byte = 0x23
	SIDSecurityAccess                   byte = 0x27
	SIDReadDataByPeriodicIdentifier     byte = 0x2A
	SIDDynamicallyDefineDataIdentifier  byte = 0x2C
	SIDWriteDataByIdentifier            byte = 0x2E
	SIDInputOutputControlByIdentifier   byte = 0x2F
	SIDRoutineControl                   byte = 0x31
	SIDWriteMemoryByAddress             byte = 0x3D
	SIDTesterPresent                    byte = 0x3E
)

// NegativeResponseSID is the sentinel first byte of a negative response.
const NegativeResponseSID byte = 0x7F

// SuppressPositiveResponse is the "suppress positive response" bit in a
// sub-function byte. It is masked off before any validity check.
const SuppressPositiveResponse byte = 0x80

// Negative response codes (NRCs), the third byte of a negative
// response message [0x7F, SID, NRC].
const (
	NRCGeneralReject                              byte = 0x10
	NRCServiceNotSupported                        byte = 0x11
	NRCSubFunctionNotSupported                    byte = 0x12
	NRCIncorrectMessageLengthOrInvalidFormat      byte = 0x13
	NRCResponseTooLong                            byte = 0x14
	NRCBusyRepeatRequest                          byte = 0x21
	NRCConditionsNotCorrect                       byte = 0x22
	NRCRequestSequenceError                       byte = 0x24
	NRCNoResponseFromSubnetComponent              byte = 0x25
	NRCFailurePreventsExecution                   byte = 0x26
	NRCRequestOutOfRange                          byte = 0x31
	NRCSecurityAccessDenied                       byte = 0x33
	NRCInvalidKey                                 byte = 0x35
	NRCExceededNumberOfAttempts                   byte = 0x36
	NRCRequiredTimeDelayNotExpired                byte = 0x37
	NRCUploadDownloadNotAccepted                  byte = 0x70
	NRCTransferDataSuspended                      byte = 0x71
	NRCGeneralProgrammingFailure                  byte = 0x72
	NRCWrongBlockSequenceCounter                  byte = 0x73
	NRCResponsePending                            byte = 0x78
	NRCSubFunctionNotSupportedInActiveSession     byte = 0x7E
	NRCServiceNotSupportedInActiveSession         byte = 0x7F
)

// Vehicle-condition NRC range, 0x81-0x93, reported by tag rather than
// individually named since their exact meanings are manufacturer/
// condition specific.
const (
	nrcVehicleConditionRangeLow  byte = 0x81
	nrcVehicleConditionRangeHigh byte = 0x93
)

var nrcDescriptions = map[byte]string{
	NRCGeneralReject:                          "general reject",
	NRCServiceNotSupported:                    "service not supported",
	NRCSubFunctionNotSupported:                "sub-function not supported",
	NRCIncorrectMessageLengthOrInvalidFormat:  "incorrect message length or invalid format",
	NRCResponseTooLong:                        "response too long",
	NRCBusyRepeatRequest:                      "busy, repeat request",
	NRCConditionsNotCorrect:                   "conditions not correct",
	NRCRequestSequenceError:                   "request sequence error",
	NRCNoResponseFromSubnetComponent:          "no response from subnet component",
	NRCFailurePreventsExecution:               "failure prevents execution",
	NRCRequestOutOfRange:                      "request out of range",
	NRCSecurityAccessDenied:                   "security access denied",
	NRCInvalidKey:                             "invalid key",
	NRCExceededNumberOfAttempts:               "exceeded number of attempts",
	NRCRequiredTimeDelayNotExpired:            "required time delay not expired",
	NRCUploadDownloadNotAccepted:              "upload/download not accepted",
	NRCTransferDataSuspended:                  "transfer data suspended",
	NRCGeneralProgrammingFailure:              "general programming failure",
	NRCWrongBlockSequenceCounter:              "wrong block sequence counter",
	NRCResponsePending:                        "request correctly received, response pending",
	NRCSubFunctionNotSupportedInActiveSession: "sub-function not supported in active session",
	NRCServiceNotSupportedInActiveSession:     "service not supported in active session",
}

// NRCDescription returns a human-readable tag for nrc, falling back to
// a generic vehicle-condition tag or "unknown" — an explicit unknown
// variant rather than a panic or an empty string.
func NRCDescription(nrc byte) string {
	if desc, ok := nrcDescriptions[nrc]; ok {
		return desc
	}
	if nrc >= nrcVehicleConditionRangeLow && nrc <= nrcVehicleConditionRangeHigh {
		return "vehicle manufacturer specific condition"
	}
	return "unknown NRC"
}

// Diagnostic session types.
const (
	SessionDefault         byte = 0x01
	SessionProgramming     byte = 0x02
	SessionExtendedDiag    byte = 0x03
	SessionSafetySystem    byte = 0x04
	vehicleManufacturerLow byte = 0x40
	vehicleManufacturerHi  byte = 0x5F
	systemSupplierLow      byte = 0x60
	systemSupplierHi       byte = 0x7E
)

// IsValidSession reports whether s names a valid diagnostic session
// type. The suppress-positive-response bit is masked off first, so
// IsValidSession(s) == IsValidSession(s | 0x80).
func IsValidSession(s byte) bool {
	s &^= SuppressPositiveResponse
	switch s {
	case SessionDefault, SessionProgramming, SessionExtendedDiag, SessionSafetySystem:
		return true
	}
	if s >= vehicleManufacturerLow && s <= vehicleManufacturerHi {
		return true
	}
	if s >= systemSupplierLow && s <= systemSupplierHi {
		return true
	}
	return false
}

// ECU reset types.
const (
	ResetHard                byte = 0x01
	ResetKeyOffOn            byte = 0x02
	ResetSoft                byte = 0x03
	ResetEnableRapidShutdown byte = 0x04
	ResetDisableRapidShutdown byte = 0x05
)

// IsValidResetType reports whether r is one of the defined reset
// types (the suppress-positive-response bit is transparent here too).
func IsValidResetType(r byte) bool {
	switch r &^ SuppressPositiveResponse {
	case ResetHard, ResetKeyOffOn, ResetSoft, ResetEnableRapidShutdown, ResetDisableRapidShutdown:
		return true
	}
	return false
}

// IsValidRequestSeedLevel reports whether level is a valid
// SecurityAccess "request seed" level: any odd value in [0x01, 0x41].
func IsValidRequestSeedLevel(level byte) bool {
	return level >= 0x01 && level <= 0x41 && level%2 == 1
}

// IsValidSendKeyLevel reports whether level is a valid "send key"
// level, i.e. one greater than a valid request-seed level.
func IsValidSendKeyLevel(level byte) bool {
	return level >= 0x02 && level <= 0x42 && level%2 == 0
}

// SendKeyLevelFor returns the "send key" level matching a valid
// "request seed" level.
func SendKeyLevelFor(requestSeedLevel byte) byte {
	return requestSeedLevel + 1
}

// InputOutputControlParameter is the controlOption/returnControlToECU
// discriminator for InputOutputControlByIdentifier (service 0x2F).
type InputOutputControlParameter byte

const (
	ReturnControlToECU      InputOutputControlParameter = 0x00
	ResetToDefault          InputOutputControlParameter = 0x01
	FreezeCurrentState      InputOutputControlParameter = 0x02
	ShortTermAdjustment     InputOutputControlParameter = 0x03
)
