package domain

import (
	"encoding/binary"
	"strconv"
)

// Canonical returns the bytes a requestor signs.
// Format: len(requestor) || requestor || len(target) || target || timestamp (8 bytes, big endian).
func (m *RequestMetadata) Canonical() []byte {
	buf := make([]byte, 0, 16+len(m.Requestor)+len(m.Target))
	buf = appendLengthPrefixed(buf, []byte(m.Requestor))
	buf = appendLengthPrefixed(buf, []byte(m.Target))
	return binary.BigEndian.AppendUint64(buf, uint64(m.Timestamp))
}

// Canonical returns the metadata portion of the reply signature.
func (m *ReplyMetadata) Canonical() []byte {
	buf := make([]byte, 0, 17+len(m.Source)+len(m.Destination))
	buf = appendLengthPrefixed(buf, []byte(m.Source))
	buf = appendLengthPrefixed(buf, []byte(m.Destination))
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.Expiration))
	if m.Encryption {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// SignedPayload is canonical(metadata) || sekstore.
func (r *SessionReply) SignedPayload() []byte {
	meta := r.Metadata.Canonical()
	out := make([]byte, 0, len(meta)+len(r.SekStore))
	out = append(out, meta...)
	return append(out, r.SekStore...)
}

// SessionInfo is the HKDF info binding a session to its principals and issue time:
// requestor || 0x00 || target || 0x00 || decimal(timestamp).
// Principal ids never contain NUL, so the encoding is unambiguous.
func SessionInfo(requestor, target string, timestamp int64) []byte {
	buf := make([]byte, 0, len(requestor)+len(target)+22)
	buf = append(buf, requestor...)
	buf = append(buf, 0)
	buf = append(buf, target...)
	buf = append(buf, 0)
	return strconv.AppendInt(buf, timestamp, 10)
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if uint64(len(data)) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}
