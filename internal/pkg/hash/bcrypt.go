package hash

import "golang.org/x/crypto/bcrypt"

// Bcrypt hashes with bcrypt after appending a server-side pepper.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt clamps cost into bcrypt's accepted range; 0 means bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	return &Bcrypt{cost: cost, pepper: pepper}
}

func (b *Bcrypt) Hash(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain+b.pepper), b.cost)
}

func (b *Bcrypt) Verify(hashed, plain string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain+b.pepper)) == nil
}
