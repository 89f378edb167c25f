package uid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Token generates 64 character hex tokens: an 8 byte millisecond timestamp
// followed by 24 random bytes. The random part alone carries 192 bits.
type Token struct {
	now func() time.Time
}

func NewToken() *Token {
	return &Token{now: time.Now}
}

func (t *Token) Generate() string {
	var raw [32]byte
	binary.BigEndian.PutUint64(raw[:8], uint64(t.now().UnixMilli()))
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(raw[8:])
	return hex.EncodeToString(raw[:])
}
