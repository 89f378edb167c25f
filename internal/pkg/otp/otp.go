package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces a fresh code on every call.
type Generator interface {
	Generate() (string, error)
}

// Numeric draws codes uniformly from [10^(digits-1), 10^digits-1], so a
// 4-digit generator yields 1000..9999 and never a leading zero.
type Numeric struct {
	low  int64
	span *big.Int
}

// NewNumeric builds a generator for codes of the given length (1..18).
func NewNumeric(digits int) (*Numeric, error) {
	if digits < 1 || digits > 18 {
		return nil, fmt.Errorf("otp: unsupported code length %d", digits)
	}

	low := int64(1)
	for range digits - 1 {
		low *= 10
	}
	high := low*10 - 1
	if digits == 1 {
		low = 0
	}

	return &Numeric{low: low, span: big.NewInt(high - low + 1)}, nil
}

func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.span)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return fmt.Sprintf("%d", n.low+v.Int64()), nil
}
