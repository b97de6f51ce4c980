package client

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// generateCorrelationID returns a fresh random correlation id. 128 bits of
// randomness make a collision among pending requests practically impossible
// (and the registry treats one as an invariant violation, not a retry case).
func generateCorrelationID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}
