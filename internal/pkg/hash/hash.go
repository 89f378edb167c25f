package hash

// Hash digests a secret and checks a plaintext against a stored digest.
type Hash interface {
	Hash(plain string) ([]byte, error)
	Verify(hashed, plain string) bool
}

// Algorithm names accepted by NewPassword.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// NewPassword returns the adaptive hasher named by algorithm, falling back to bcrypt.
func NewPassword(algorithm string, bcryptCost int, pepper string) Hash {
	if algorithm == AlgorithmArgon2id {
		return NewArgon2id(pepper)
	}
	return NewBcrypt(bcryptCost, pepper)
}
