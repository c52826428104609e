package pipeline

import (
	"crypto/rand"
	"time"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// NewExtractionID returns a 26-character ULID: 48 bits of millisecond
// timestamp followed by 80 bits of randomness, Crockford base32 encoded.
// Ids generated in the same process sort roughly by creation time.
func NewExtractionID() string {
	var b [16]byte
	ms := uint64(time.Now().UnixMilli())
	for i := 5; i >= 0; i-- {
		b[i] = byte(ms)
		ms >>= 8
	}
	if _, err := rand.Read(b[6:]); err != nil {
		// crypto/rand only fails on a broken platform; fall back to the
		// timestamp bytes so ids remain usable, if less unique.
		copy(b[6:], b[:6])
	}

	var out [26]byte
	idx := 25
	var acc uint32
	var bits uint
	for i := 15; i >= 0; i-- {
		acc |= uint32(b[i]) << bits
		bits += 8
		for bits >= 5 && idx > 0 {
			out[idx] = crockford[acc&31]
			acc >>= 5
			bits -= 5
			idx--
		}
	}
	out[0] = crockford[acc&31]
	return string(out[:])
}
