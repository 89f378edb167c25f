package db

import (
	"context"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
)

func (s *DB) CreateDocument(ctx context.Context, d entity.Document) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDocument")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `INSERT INTO documents
		(id, owner_id, recipient_id, doc_key, doc_name, doc_type, doc_size,
		image_key, image_type, image_size, access_key_hash, access, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		d.ID, d.OwnerID, d.RecipientID, d.DocKey, d.DocName, d.DocType, d.DocSize,
		d.ImageKey, d.ImageType, d.ImageSize, d.AccessKeyHash, string(d.Access), d.ExpiresAt, d.CreatedAt)

	return s.mapError(err)
}

func (s *DB) DeleteDocument(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteDocument")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
