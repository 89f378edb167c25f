package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashers(t *testing.T) {
	hashers := map[string]Hash{
		"bcrypt":   NewBcrypt(4, "pepper"),
		"argon2id": NewArgon2id("pepper"),
		"hmac":     NewHMACSHA256("secret"),
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			// Arrange
			plain := "Str0ng!Pass"

			// Act
			digest, err := h.Hash(plain)

			// Assert
			require.NoError(t, err)
			assert.NotEqual(t, plain, string(digest))
			assert.True(t, h.Verify(string(digest), plain))
			assert.False(t, h.Verify(string(digest), "Str0ng!Pas"))
			assert.False(t, h.Verify("", plain))
		})
	}
}

func TestHMACSHA256_Deterministic(t *testing.T) {
	h := NewHMACSHA256("secret")

	a, _ := h.Hash("4821")
	b, _ := h.Hash("4821")
	c, _ := NewHMACSHA256("other").Hash("4821")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestPepperIsPartOfDigest(t *testing.T) {
	digest, err := NewBcrypt(4, "pepper-a").Hash("Abcdefg1!")
	require.NoError(t, err)

	assert.False(t, NewBcrypt(4, "pepper-b").Verify(string(digest), "Abcdefg1!"))
}

func TestArgon2id_RejectsMalformed(t *testing.T) {
	a := NewArgon2id("")

	for _, bad := range []string{"", "$argon2id$", "$bcrypt$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=1$m=1,t=1,p=1$AA$AA"} {
		assert.False(t, a.Verify(bad, "x"), bad)
	}

	digest, err := a.Hash("x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(digest), "$argon2id$v=19$m=65536,t=3,p=2$"))
}

func TestNewPassword(t *testing.T) {
	assert.IsType(t, &Argon2id{}, NewPassword(AlgorithmArgon2id, 10, ""))
	assert.IsType(t, &Bcrypt{}, NewPassword(AlgorithmBcrypt, 10, ""))
	assert.IsType(t, &Bcrypt{}, NewPassword("unknown", 10, ""))
}
