package redis

import "strconv"

// appendInt renders n into buf's backing array without an allocation
// in the common case, mirroring the curated surface's 32-byte
// stack-buffer integer formatting.
func appendInt(buf []byte, n int64) []byte {
	return strconv.AppendInt(buf, n, 10)
}

// appendUint renders n into buf's backing array without an allocation
// in the common case.
func appendUint(buf []byte, n uint64) []byte {
	return strconv.AppendUint(buf, n, 10)
}
