package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/safe4law/safe4law/internal/document/entity"
)

const documentColumns = `d.id, d.owner_id, d.recipient_id, d.doc_key, d.doc_name, d.doc_type, d.doc_size,
	d.image_key, d.image_type, d.image_size, d.access_key_hash, d.access, d.expires_at, d.created_at`

func documentFields(d *entity.Document) []any {
	return []any{&d.ID, &d.OwnerID, &d.RecipientID, &d.DocKey, &d.DocName, &d.DocType, &d.DocSize,
		&d.ImageKey, &d.ImageType, &d.ImageSize, &d.AccessKeyHash, &d.Access, &d.ExpiresAt, &d.CreatedAt}
}

func (s *DB) UserExists(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UserExists")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	if err = s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM identity_users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, s.mapError(err)
	}
	return exists, nil
}

func (s *DB) GetDocument(ctx context.Context, id int64) (_ *entity.Document, err error) {
	ctx, span := s.startSpan(ctx, "GetDocument")
	defer func() { s.endSpan(span, err) }()

	var d entity.Document
	if err = s.conn.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id).
		Scan(documentFields(&d)...); err != nil {
		return nil, s.mapError(err)
	}
	return &d, nil
}

// ListDocuments joins each row with the user on the other side of the share:
// the recipient for the sent box, the owner for the received box.
func (s *DB) ListDocuments(ctx context.Context, f entity.ListFilter) (_ []entity.ListItem, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListDocuments")
	defer func() { s.endSpan(span, err) }()

	mine, party := "d.recipient_id", "d.owner_id"
	if f.Box == entity.BoxSent {
		mine, party = "d.owner_id", "d.recipient_id"
	}

	var total int64
	if err = s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM documents d WHERE `+mine+` = $1`, f.UserID).Scan(&total); err != nil {
		return nil, 0, s.mapError(err)
	}

	rows, err := s.conn.Query(ctx,
		`SELECT `+documentColumns+`, u.id, u.first_name, u.last_name
		FROM documents d JOIN identity_users u ON u.id = `+party+`
		WHERE `+mine+` = $1
		ORDER BY d.created_at DESC, d.id DESC LIMIT $2 OFFSET $3`,
		f.UserID, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ListItem, error) {
		var it entity.ListItem
		dest := append(documentFields(&it.Document), &it.Party.ID, &it.Party.FirstName, &it.Party.LastName)
		err := row.Scan(dest...)
		return it, err
	})
	if err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, total, nil
}
