package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789" // reduced base64

var (
	charsetLen = len(charset)

	mut sync.Mutex
	rng = newRNG()
)

func newRNG() *rand.Rand {
	seed := make([]byte, 16)
	if _, err := cryptorand.Read(seed); err != nil {
		panic("unreachable")
	}
	//nolint:gosec // no security required
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// NewRequestID returns a random base62 identifier used to correlate one
// remote request in host-side logs.
func NewRequestID(length int) string {
	buf := make([]byte, length)

	mut.Lock()
	for i := range buf {
		buf[i] = charset[rng.IntN(charsetLen)]
	}
	mut.Unlock()

	return string(buf)
}
