package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 is a deterministic keyed digest, hex encoded. Equal inputs give
// equal digests, which is what token and code lookups need.
type HMACSHA256 struct {
	key []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{key: []byte(secret)}
}

func (h *HMACSHA256) Hash(plain string) ([]byte, error) {
	return h.sum(plain), nil
}

func (h *HMACSHA256) Verify(hashed, plain string) bool {
	return hmac.Equal([]byte(hashed), h.sum(plain))
}

func (h *HMACSHA256) sum(plain string) []byte {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(plain))

	return hex.AppendEncode(nil, mac.Sum(nil))
}
