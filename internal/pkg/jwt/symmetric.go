package jwt

import (
	"errors"
	"strconv"
	"time"

	libjwt "github.com/golang-jwt/jwt/v5"
)

type clocker interface {
	Now() time.Time
}

type idGenerator interface {
	Generate() string
}

// Config configures NewHS512.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	ID        idGenerator
}

// HS512 signs with HMAC-SHA512 using a shared secret.
type HS512 struct {
	cfg    Config
	parser *libjwt.Parser
}

// NewHS512 validates cfg and builds the signer.
func NewHS512(cfg Config) (*HS512, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrKeyTooShort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}

	opts := []libjwt.ParserOption{
		libjwt.WithValidMethods([]string{libjwt.SigningMethodHS512.Alg()}),
		libjwt.WithIssuer(cfg.Issuer),
		libjwt.WithIssuedAt(),
		libjwt.WithExpirationRequired(),
		libjwt.WithTimeFunc(cfg.Clock.Now),
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libjwt.WithAudience(cfg.Audiences...))
	}

	return &HS512{cfg: cfg, parser: libjwt.NewParser(opts...)}, nil
}

func (h *HS512) Generate(userID int64, email string) (Token, error) {
	now := h.cfg.Clock.Now()
	exp := now.Add(h.cfg.TTL)

	signed, err := libjwt.NewWithClaims(libjwt.SigningMethodHS512, Claims{
		RegisteredClaims: libjwt.RegisteredClaims{
			ID:        h.cfg.ID.Generate(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    h.cfg.Issuer,
			Audience:  h.cfg.Audiences,
			IssuedAt:  libjwt.NewNumericDate(now),
			NotBefore: libjwt.NewNumericDate(now),
			ExpiresAt: libjwt.NewNumericDate(exp),
		},
		UserID:    userID,
		UserEmail: email,
	}).SignedString(h.cfg.Secret)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: signed, ExpiresAt: exp}, nil
}

func (h *HS512) Verify(raw string) (Claims, error) {
	var c Claims

	tok, err := h.parser.ParseWithClaims(raw, &c, func(t *libjwt.Token) (any, error) {
		if t.Method != libjwt.SigningMethodHS512 {
			return nil, ErrUnexpectedAlg
		}
		return h.cfg.Secret, nil
	})
	switch {
	case errors.Is(err, libjwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrTokenInvalid, err)
	case !tok.Valid:
		return Claims{}, ErrTokenInvalid
	}

	return c, nil
}
