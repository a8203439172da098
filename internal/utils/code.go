package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewAttentionCode returns the external handle for a reservation:
// "COD-<unix millis>-<random 0..999>".  The millisecond timestamp plus
// the random disambiguator makes collisions negligible at expected load
// without pretending to be cryptographically unique.
func NewAttentionCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	} else {
		// crypto/rand failing is effectively fatal elsewhere; fall back
		// to the clock so code generation itself never errors.
		suffix = time.Now().UnixNano() % 1000
	}
	return fmt.Sprintf("COD-%d-%d", time.Now().UnixMilli(), suffix)
}
