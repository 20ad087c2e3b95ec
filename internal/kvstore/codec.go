package kvstore

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat64 serializes v as 8 little-endian bytes (IEEE-754 double).
func EncodeFloat64(v float64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return string(buf[:])
}

// DecodeFloat64 parses an 8-byte little-endian double. Anything else is
// malformed; callers at startup treat that as fatal.
func DecodeFloat64(s string) (float64, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("%w: want 8 bytes, got %d", ErrMalformedValue, len(s))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64([]byte(s))), nil
}
