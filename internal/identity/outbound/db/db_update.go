package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/safe4law/safe4law/internal/identity/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

func (s *DB) CreateRegistration(ctx context.Context, user entity.NewUser, token entity.VerificationToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRegistration")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO identity_users (id, first_name, last_name, email, gender, country, password_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			user.ID, user.FirstName, user.LastName, user.Email, user.Gender.String(), user.Country, user.PasswordHash,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO identity_verification_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
			token.UserID, token.TokenHash, token.ExpiresAt)
		return err
	})

	return s.mapError(err)
}

// SaveVerificationToken replaces any previous token of the user.
func (s *DB) SaveVerificationToken(ctx context.Context, token entity.VerificationToken) (err error) {
	ctx, span := s.startSpan(ctx, "SaveVerificationToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO identity_verification_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, created_at = now()`,
		token.UserID, token.TokenHash, token.ExpiresAt)

	return s.mapError(err)
}

// VerifyEmail consumes an unexpired token and flags its owner as verified.
func (s *DB) VerifyEmail(ctx context.Context, tokenHash string, now time.Time) (userID int64, err error) {
	ctx, span := s.startSpan(ctx, "VerifyEmail")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`DELETE FROM identity_verification_tokens WHERE token_hash = $1 AND expires_at > $2 RETURNING user_id`,
			tokenHash, now,
		).Scan(&userID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`UPDATE identity_users SET email_verified = true, updated_at = now() WHERE id = $1`, userID)
		return err
	})

	return userID, s.mapError(err)
}

func (s *DB) UpdateProfile(ctx context.Context, id int64, p entity.ProfilePatch) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "UpdateProfile")
	defer func() { s.endSpan(span, err) }()

	var gender *string
	if p.Gender != nil {
		g := p.Gender.String()
		gender = &g
	}

	u, err := scanUser(s.conn.QueryRow(ctx, `
		UPDATE identity_users SET
			first_name = COALESCE($2, first_name),
			last_name  = COALESCE($3, last_name),
			gender     = COALESCE($4, gender),
			country    = COALESCE($5, country),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.FirstName, p.LastName, gender, p.Country))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identity_users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
