package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var errArgonFormat = errors.New("hash: malformed argon2id digest")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// Argon2id produces PHC formatted digests: $argon2id$v=19$m=..,t=..,p=..$salt$key
type Argon2id struct {
	params  argonParams
	saltLen int
	keyLen  uint32
	pepper  string
}

// NewArgon2id uses 64 MiB memory, 3 passes and 2 lanes.
func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params:  argonParams{memory: 64 * 1024, time: 3, threads: 2},
		saltLen: 16,
		keyLen:  32,
		pepper:  pepper,
	}
}

func (a *Argon2id) Hash(plain string) ([]byte, error) {
	salt := make([]byte, a.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: read salt: %w", err)
	}

	p := a.params
	key := argon2.IDKey([]byte(plain+a.pepper), salt, p.time, p.memory, p.threads, a.keyLen)

	b64 := base64.RawStdEncoding
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func (a *Argon2id) Verify(hashed, plain string) bool {
	p, salt, want, err := parseArgon(hashed)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(plain+a.pepper), salt, p.time, p.memory, p.threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}

func parseArgon(s string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errArgonFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errArgonFormat
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, errArgonFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errArgonFormat
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errArgonFormat
	}

	return p, salt, key, nil
}
