package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrFilteredRemoveUnsupported is returned by RemoveFilteredPolicy.
var ErrFilteredRemoveUnsupported = errors.New("authz: filtered remove is not supported")

// DB is the subset of pgxpool.Pool the adapter uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxAdapter persists rules in the document_access_rules table.
type PgxAdapter struct {
	db DB
}

var (
	_ persist.Adapter      = (*PgxAdapter)(nil)
	_ persist.BatchAdapter = (*PgxAdapter)(nil)
)

func NewPgxAdapter(db DB) *PgxAdapter {
	return &PgxAdapter{db: db}
}

const (
	sqlSelectRules = `SELECT ptype, v0, v1, v2 FROM document_access_rules ORDER BY id`
	sqlInsertRule  = `INSERT INTO document_access_rules (ptype, v0, v1, v2) VALUES ($1, $2, $3, $4)
		ON CONFLICT (ptype, v0, v1, v2) DO NOTHING`
	sqlDeleteRule = `DELETE FROM document_access_rules WHERE ptype = $1 AND v0 = $2 AND v1 = $3 AND v2 = $4`
	sqlDeleteAll  = `DELETE FROM document_access_rules`
)

func (a *PgxAdapter) LoadPolicy(m model.Model) error {
	ctx := context.Background()

	rows, err := a.db.Query(ctx, sqlSelectRules)
	if err != nil {
		return fmt.Errorf("authz: select rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ptype, v0, v1, v2 string
		if err := rows.Scan(&ptype, &v0, &v1, &v2); err != nil {
			return fmt.Errorf("authz: scan rule: %w", err)
		}
		if err := persist.LoadPolicyArray([]string{ptype, v0, v1, v2}, m); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (a *PgxAdapter) SavePolicy(m model.Model) (err error) {
	ctx := context.Background()

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("authz: begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, sqlDeleteAll); err != nil {
		return fmt.Errorf("authz: clear rules: %w", err)
	}

	batch := &pgx.Batch{}
	for ptype, ast := range m["p"] {
		for _, rule := range ast.Policy {
			queueRule(batch, sqlInsertRule, ptype, rule)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("authz: insert rules: %w", err)
	}

	return tx.Commit(ctx)
}

func (a *PgxAdapter) AddPolicy(_, ptype string, rule []string) error {
	return a.AddPolicies("p", ptype, [][]string{rule})
}

func (a *PgxAdapter) RemovePolicy(_, ptype string, rule []string) error {
	return a.RemovePolicies("p", ptype, [][]string{rule})
}

func (a *PgxAdapter) AddPolicies(_, ptype string, rules [][]string) error {
	return a.exec(sqlInsertRule, ptype, rules)
}

func (a *PgxAdapter) RemovePolicies(_, ptype string, rules [][]string) error {
	return a.exec(sqlDeleteRule, ptype, rules)
}

func (*PgxAdapter) RemoveFilteredPolicy(string, string, int, ...string) error {
	return ErrFilteredRemoveUnsupported
}

func (a *PgxAdapter) exec(sql, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		args := ruleArgs(ptype, rule)
		if _, err := a.db.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("authz: write rule %v: %w", rule, err)
		}
	}
	return nil
}

func queueRule(b *pgx.Batch, sql, ptype string, rule []string) {
	b.Queue(sql, ruleArgs(ptype, rule)...)
}

// ruleArgs pads rule to the three value columns.
func ruleArgs(ptype string, rule []string) []any {
	args := []any{ptype, "", "", ""}
	for i := 0; i < len(rule) && i < 3; i++ {
		args[i+1] = rule[i]
	}
	return args
}
