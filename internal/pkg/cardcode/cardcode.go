package cardcode

import (
	"crypto/rand"
	"encoding/hex"
)

// Length is the number of hex characters in a card code (10 random bytes).
const Length = 20

// Generate returns a new opaque card code. The code is the externally exposed
// identifier for a business card, distinct from its numeric primary key.
func Generate() (string, error) {
	b := make([]byte, Length/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
