package uds

import "encoding/binary"

// EncodeDiagnosticSessionControl builds a [0x10, sessionType] request.
func EncodeDiagnosticSessionControl(sessionType byte) []byte {
	return []byte{SIDDiagnosticSessionControl, sessionType}
}

// EncodeECUReset builds a [0x11, resetType] request.
func EncodeECUReset(resetType byte) []byte {
	return []byte{SIDECUReset, resetType}
}

// EncodeReadDataByIdentifier builds a [0x22, (did_hi, did_lo)...] request.
func EncodeReadDataByIdentifier(dids ...uint16) []byte {
	req := make([]byte, 0, 1+2*len(dids))
	req = append(req, SIDReadDataByIdentifier)
	for _, did := range dids {
		req = append(req, byte(did>>8), byte(did))
	}
	return req
}

// EncodeReadMemoryByAddress builds a [0x23, alfid, addr..., size...]
// request. alfid's high nibble is the address byte count, low nibble
// the size byte count; both fields are written MSB-first.
func EncodeReadMemoryByAddress(alfid byte, address uint64, size uint64) []byte {
	addrLen := int(alfid >> 4)
	sizeLen := int(alfid & 0x0F)
	req := make([]byte, 0, 2+addrLen+sizeLen)
	req = append(req, SIDReadMemoryByAddress, alfid)
	req = appendMSBFirst(req, address, addrLen)
	req = appendMSBFirst(req, size, sizeLen)
	return req
}

// EncodeWriteMemoryByAddress builds a [0x3D, alfid, addr..., size...,
// data...] request.
func EncodeWriteMemoryByAddress(alfid byte, address uint64, size uint64, data []byte) []byte {
	addrLen := int(alfid >> 4)
	sizeLen := int(alfid & 0x0F)
	req := make([]byte, 0, 2+addrLen+sizeLen+len(data))
	req = append(req, SIDWriteMemoryByAddress, alfid)
	req = appendMSBFirst(req, address, addrLen)
	req = appendMSBFirst(req, size, sizeLen)
	req = append(req, data...)
	return req
}

// EncodeSecurityAccessRequestSeed builds a [0x27, level, dataRecord...]
// request. level must be a valid request-seed level.
func EncodeSecurityAccessRequestSeed(level byte, dataRecord []byte) []byte {
	req := make([]byte, 0, 2+len(dataRecord))
	req = append(req, SIDSecurityAccess, level)
	return append(req, dataRecord...)
}

// EncodeSecurityAccessSendKey builds a [0x27, level, key...] request.
func EncodeSecurityAccessSendKey(level byte, key []byte) []byte {
	req := make([]byte, 0, 2+len(key))
	req = append(req, SIDSecurityAccess, level)
	return append(req, key...)
}

// EncodeReadDataByPeriodicIdentifier builds a [0x2A, mode, id...] request.
func EncodeReadDataByPeriodicIdentifier(mode byte, ids ...byte) []byte {
	req := make([]byte, 0, 2+len(ids))
	req = append(req, SIDReadDataByPeriodicIdentifier, mode)
	return append(req, ids...)
}

// DynamicDIDSource describes one source fragment a dynamically
// defined data identifier is built from.
type DynamicDIDSource struct {
	SourceDID uint16
	Position  byte
	Length    byte
}

// EncodeDynamicallyDefineDataIdentifier builds a [0x2C, subfn, did_hi,
// did_lo, (src_hi, src_lo, pos, len)...] request.
func EncodeDynamicallyDefineDataIdentifier(subfn byte, did uint16, sources ...DynamicDIDSource) []byte {
	req := make([]byte, 0, 4+4*len(sources))
	req = append(req, SIDDynamicallyDefineDataIdentifier, subfn, byte(did>>8), byte(did))
	for _, src := range sources {
		req = append(req, byte(src.SourceDID>>8), byte(src.SourceDID), src.Position, src.Length)
	}
	return req
}

// EncodeWriteDataByIdentifier builds a [0x2E, did_hi, did_lo, data...] request.
func EncodeWriteDataByIdentifier(did uint16, data []byte) []byte {
	req := make([]byte, 0, 3+len(data))
	req = append(req, SIDWriteDataByIdentifier, byte(did>>8), byte(did))
	return append(req, data...)
}

// EncodeInputOutputControlByIdentifier builds a [0x2F, did_hi, did_lo,
// controlOption..., controlEnableMask...] request.
func EncodeInputOutputControlByIdentifier(did uint16, controlOption []byte, controlEnableMask []byte) []byte {
	req := make([]byte, 0, 3+len(controlOption)+len(controlEnableMask))
	req = append(req, SIDInputOutputControlByIdentifier, byte(did>>8), byte(did))
	req = append(req, controlOption...)
	return append(req, controlEnableMask...)
}

// EncodeRoutineControl builds a [0x31, subfn, rid_hi, rid_lo,
// optionalData...] request.
func EncodeRoutineControl(subfn byte, rid uint16, optionalData []byte) []byte {
	req := make([]byte, 0, 4+len(optionalData))
	req = append(req, SIDRoutineControl, subfn, byte(rid>>8), byte(rid))
	return append(req, optionalData...)
}

// EncodeTesterPresent builds a [0x3E, subfn] request.
func EncodeTesterPresent(subfn byte) []byte {
	return []byte{SIDTesterPresent, subfn}
}

// appendMSBFirst appends the low n bytes of v to buf, most significant
// byte first — the ALFID wire layout §4.1 requires for address/size
// fields.
func appendMSBFirst(buf []byte, v uint64, n int) []byte {
	full := make([]byte, 8)
	binary.BigEndian.PutUint64(full, v)
	return append(buf, full[8-n:]...)
}
