package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/safe4law/safe4law/internal/identity/entity"
)

const userColumns = `id, first_name, last_name, email, gender, country, email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u      entity.User
		gender string
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &gender, &u.Country,
		&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Gender = entity.GenderFromString(gender)

	return &u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM identity_users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM identity_users WHERE email = $1`, email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) getCredential(ctx context.Context, where string, arg any) (*entity.UserCredential, error) {
	var c entity.UserCredential
	err := s.conn.QueryRow(ctx,
		`SELECT id, email, password_hash, email_verified FROM identity_users WHERE `+where+` = $1`, arg,
	).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.EmailVerified)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &c, nil
}

func (s *DB) GetCredentialByEmail(ctx context.Context, email string) (_ *entity.UserCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByEmail")
	defer func() { s.endSpan(span, err) }()

	return s.getCredential(ctx, "email", email)
}

func (s *DB) GetCredentialByID(ctx context.Context, id int64) (_ *entity.UserCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialByID")
	defer func() { s.endSpan(span, err) }()

	return s.getCredential(ctx, "id", id)
}

// ListDirectory matches search against first name, last name and their
// concatenation, case-insensitively.
func (s *DB) ListDirectory(ctx context.Context, f entity.DirectoryFilter) (_ []entity.DirectoryEntry, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListDirectory")
	defer func() { s.endSpan(span, err) }()

	const where = `WHERE id <> $1 AND ($2 = '' OR (first_name || ' ' || last_name) ILIKE '%' || $2 || '%')`

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM identity_users `+where, f.ExcludeID, f.Search).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx,
		`SELECT id, first_name, last_name FROM identity_users `+where+`
		ORDER BY first_name, last_name, id LIMIT $3 OFFSET $4`,
		f.ExcludeID, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DirectoryEntry, error) {
		var e entity.DirectoryEntry
		err := row.Scan(&e.ID, &e.FirstName, &e.LastName)
		return e, err
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return entries, total, nil
}
