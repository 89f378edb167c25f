package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/recovery/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("recovery.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// inTx runs fn in a transaction holding the per-account advisory lock, so
// concurrent issues and resets for one account are serialized.
func (s *DB) inTx(ctx context.Context, email string, fn func(tx pgx.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "recovery:"+email); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *DB) AccountExists(ctx context.Context, email string) (ok bool, err error) {
	ctx, span := s.startSpan(ctx, "AccountExists")
	defer func() { s.endSpan(span, err) }()

	err = s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM identity_users WHERE email = $1)`, email,
	).Scan(&ok)

	return ok, s.mapError(err)
}

func (s *DB) IssueCode(ctx context.Context, code entity.NewCode, limit entity.IssueLimit) (iss entity.Issuance, err error) {
	ctx, span := s.startSpan(ctx, "IssueCode")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, code.Email, func(tx pgx.Tx) error {
		var (
			count  int
			oldest *time.Time
		)
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*), MIN(created_at) FROM recovery_attempts WHERE email = $1 AND created_at >= $2`,
			code.Email, code.CreatedAt.Add(-limit.Window),
		).Scan(&count, &oldest); err != nil {
			return err
		}

		if count >= limit.Max {
			if oldest != nil {
				iss.OldestAttempt = *oldest
			}
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE recovery_codes SET used = true WHERE email = $1 AND used = false`, code.Email,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO recovery_codes (id, email, code_hash, created_at, expires_at, used)
			 VALUES ($1, $2, $3, $4, $5, false)`,
			code.ID, code.Email, code.CodeHash, code.CreatedAt, code.ExpiresAt,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO recovery_attempts (email, created_at) VALUES ($1, $2)`, code.Email, code.CreatedAt,
		); err != nil {
			return err
		}

		iss.Allowed = true
		return nil
	})

	return iss, s.mapError(err)
}

// ConsumeCode runs outside the per-email advisory lock. The final UPDATE only
// flips a row that is still unused and unexpired, so a code invalidated by a
// concurrent IssueCode reports CodeUsed instead of being accepted.
func (s *DB) ConsumeCode(ctx context.Context, email, codeHash string, now time.Time) (check entity.CodeCheck, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeCode")
	defer func() { s.endSpan(span, err) }()

	var (
		id        int64
		used      bool
		expiresAt time.Time
	)
	// Live rows sort first; otherwise the newest match explains the rejection.
	err = s.conn.QueryRow(ctx,
		`SELECT id, used, expires_at FROM recovery_codes
		 WHERE email = $1 AND code_hash = $2
		 ORDER BY (used = false AND expires_at > $3) DESC, created_at DESC
		 LIMIT 1`,
		email, codeHash, now,
	).Scan(&id, &used, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.CodeUnknown, nil
	}
	if err != nil {
		return entity.CodeUnknown, s.mapError(err)
	}

	switch {
	case used:
		return entity.CodeUsed, nil
	case !expiresAt.After(now):
		return entity.CodeExpired, nil
	}

	tag, err := s.conn.Exec(ctx,
		`UPDATE recovery_codes SET used = true WHERE id = $1 AND used = false AND expires_at > $2`, id, now,
	)
	if err != nil {
		return entity.CodeUnknown, s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		// lost the race to a concurrent verify or a newer issue
		return entity.CodeUsed, nil
	}

	return entity.CodeValid, nil
}

func (s *DB) ResetCredential(ctx context.Context, email, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetCredential")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, email, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE identity_users SET password_hash = $2, updated_at = now() WHERE email = $1`, email, passwordHash,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE recovery_codes SET used = true WHERE email = $1 AND used = false`, email)
		return err
	})

	return s.mapError(err)
}

func (s *DB) DeleteStale(ctx context.Context, codesBefore, attemptsBefore time.Time) (res entity.SweepResult, err error) {
	ctx, span := s.startSpan(ctx, "DeleteStale")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM recovery_codes WHERE created_at < $1`, codesBefore)
	if err != nil {
		return res, s.mapError(err)
	}
	res.Codes = tag.RowsAffected()

	tag, err = s.conn.Exec(ctx, `DELETE FROM recovery_attempts WHERE created_at < $1`, attemptsBefore)
	if err != nil {
		return res, s.mapError(err)
	}
	res.Attempts = tag.RowsAffected()

	return res, nil
}
