package common

import (
	"crypto/rand"
	"fmt"
)

// GenerateRandByteArray returns size bytes from the system CSPRNG.
// A failing random source is reported as ErrNoEntropy.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEntropy, err)
	}
	return b, nil
}

// WipeByteArray overwrites b with zeros. Used for derived keys once a
// cipher has been built from them. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
