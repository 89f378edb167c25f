package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/validator"
)

const (
	msgRequiredFields = "Please fill in all required fields."
	msgKeyFormat      = `The "Enter Key" field must be a 4-digit number.`
	msgDocFormat      = "Invalid document format. Only PDF and DOC files are allowed!"
	msgImageFormat    = "Invalid image format. Only JPEG and JPG files are allowed!"
)

var documentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
}

type UploadInput struct {
	RecipientID int64  `validate:"gt=0"`
	Key         string `validate:"digits4"`
	Access      string `validate:"oneof=view download"`
	ExpiresAt   time.Time
	Doc         *entity.Upload
	Image       *entity.Upload
}

type UploadOutput struct {
	ID        int64
	DocName   string
	Access    entity.Access
	ExpiresAt time.Time
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// fileName keeps the base name of a client supplied path.
func fileName(name, fallback string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return fallback
	}
	return base
}

// Upload stores a document and its cover image and shares them with a recipient.
func (s *Usecase) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	ctx, span := s.startSpan(ctx, "Upload")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	in.Key = strings.TrimSpace(in.Key)
	in.Access = strings.ToLower(strings.TrimSpace(in.Access))

	if in.RecipientID == 0 || in.Key == "" || in.Access == "" || in.ExpiresAt.IsZero() ||
		in.Doc == nil || in.Doc.Size == 0 || in.Image == nil || in.Image.Size == 0 {
		return nil, goerror.NewBusiness(msgRequiredFields, goerror.CodeInvalidInput)
	}

	if !validator.FourDigits(in.Key) {
		return nil, goerror.NewBusiness(msgKeyFormat, goerror.CodeInvalidInput)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	docType := mediaType(in.Doc.ContentType)
	docExt, ok := documentTypes[docType]
	if !ok {
		return nil, goerror.NewBusiness(msgDocFormat, goerror.CodeInvalidInput)
	}
	if in.Doc.Size > MaxDocumentSize {
		return nil, goerror.NewInvalidInput(nil, "fileDoc", "Document must not be larger than 50MB")
	}

	imageType := mediaType(in.Image.ContentType)
	if _, ok := imageTypes[imageType]; !ok {
		return nil, goerror.NewBusiness(msgImageFormat, goerror.CodeInvalidInput)
	}
	if in.Image.Size > MaxImageSize {
		return nil, goerror.NewInvalidInput(nil, "fileImage", "Image must not be larger than 5MB")
	}

	now := s.clock.Now()
	if !in.ExpiresAt.After(now) {
		return nil, goerror.NewInvalidInput(nil, "expiration_time", "Expiration time must be in the future")
	}

	if in.RecipientID == clm.UserID {
		return nil, goerror.NewInvalidInput(nil, "user", "You cannot share a document with yourself")
	}

	exists, err := s.repoDB.UserExists(ctx, in.RecipientID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check recipient", "recipient_id", in.RecipientID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !exists {
		return nil, goerror.NewBusiness("Recipient not found", goerror.CodeNotFound)
	}

	keyHash, err := s.password.Hash(in.Key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash document key", "error", err)
		return nil, goerror.NewServer(err)
	}

	id := s.uid.Generate()
	doc := entity.Document{
		ID:            id,
		OwnerID:       clm.UserID,
		RecipientID:   in.RecipientID,
		DocKey:        fmt.Sprintf("documents/%d/document%s", id, docExt),
		DocName:       fileName(in.Doc.Name, "document"+docExt),
		DocType:       docType,
		DocSize:       in.Doc.Size,
		ImageKey:      fmt.Sprintf("documents/%d/image.jpg", id),
		ImageType:     imageType,
		ImageSize:     in.Image.Size,
		AccessKeyHash: string(keyHash),
		Access:        entity.Access(in.Access),
		ExpiresAt:     in.ExpiresAt.UTC(),
		CreatedAt:     now,
	}

	if err := s.repoStorage.Put(ctx, doc.DocKey, in.Doc.Body, doc.DocSize, doc.DocType); err != nil {
		slog.ErrorContext(ctx, "failed to store document", "document_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoStorage.Put(ctx, doc.ImageKey, in.Image.Body, doc.ImageSize, doc.ImageType); err != nil {
		slog.ErrorContext(ctx, "failed to store document image", "document_id", id, "error", err)
		s.discard(ctx, doc.DocKey)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.CreateDocument(ctx, doc); err != nil {
		slog.ErrorContext(ctx, "failed to repo create document", "document_id", id, "error", err)
		s.discard(ctx, doc.DocKey, doc.ImageKey)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "document shared", "document_id", id, "owner_id", clm.UserID, "recipient_id", in.RecipientID)

	return &UploadOutput{
		ID:        doc.ID,
		DocName:   doc.DocName,
		Access:    doc.Access,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}
