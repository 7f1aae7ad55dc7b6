package uds

import "errors"

var (
	// ErrInvalidSession is returned for an out-of-range session type.
	ErrInvalidSession = errors.New("uds: invalid diagnostic session type")
	// ErrInvalidResetType is returned for an out-of-range reset type.
	ErrInvalidResetType = errors.New("uds: invalid ECU reset type")
	// ErrInvalidSeedLevel is returned for a security-access level that
	// isn't a valid request-seed level.
	ErrInvalidSeedLevel = errors.New("uds: invalid security access request-seed level")
)
