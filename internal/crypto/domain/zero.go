package domain

// Zero overwrites every buffer with zeros. Nil and empty buffers are skipped.
// Callers defer it on derived keys, decrypted records and raw secrets.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
