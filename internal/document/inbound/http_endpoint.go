package inbound

import (
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/document/usecase"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/samber/lo"
)

const (
	// room for both files plus the text fields and multipart framing
	maxUploadBytes  = usecase.MaxDocumentSize + usecase.MaxImageSize + 1<<20
	maxUploadMemory = 8 << 20

	// layout sent by <input type="datetime-local">
	localDateTime = "2006-01-02T15:04"
)

// HTTPEndpoint exposes document sharing.
type HTTPEndpoint struct {
	uc uc
}

func parseExpiration(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(localDateTime, s); err == nil {
		return t, nil
	}
	return time.Time{}, goerror.NewInvalidInput(nil, "expiration_time", "Expiration time must be a valid date and time")
}

func openUpload(fh *multipart.FileHeader) (*entity.Upload, io.Closer, error) {
	if fh == nil {
		return nil, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}

	return &entity.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

func closeAll(r *router.Request, closers ...io.Closer) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			slog.WarnContext(r.Context(), "failed to close upload part", "error", err)
		}
	}
}

// FileUpload shares a document and cover image with another user.
// @Summary Upload and share a document
// @Tags Document
// @Accept multipart/form-data
// @Produce json
// @Param user formData string true "Recipient id"
// @Param key formData string true "4-digit access key"
// @Param file_access formData string true "view or download"
// @Param expiration_time formData string true "Expiry (RFC3339)"
// @Param fileDoc formData file true "PDF, DOC or DOCX, up to 50MB"
// @Param fileImage formData file true "JPEG, up to 5MB"
// @Success 201 {object} router.successResponse{data=UploadResponse} "Files uploaded"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Recipient not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/file-upload [post]
func (h *HTTPEndpoint) FileUpload(r *router.Request) (any, error) {
	form, err := r.ParseMultipart(maxUploadBytes, maxUploadMemory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			slog.WarnContext(r.Context(), "failed to remove multipart temp files", "error", err)
		}
	}()

	var recipientID int64
	if raw := router.FormValue(form, "user"); raw != "" {
		if recipientID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return nil, goerror.NewInvalidInput(nil, "user", "Recipient must be a valid user id")
		}
	}

	expiresAt, err := parseExpiration(router.FormValue(form, "expiration_time"))
	if err != nil {
		return nil, err
	}

	doc, docCloser, err := openUpload(router.FormFile(form, "fileDoc"))
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}
	image, imageCloser, err := openUpload(router.FormFile(form, "fileImage"))
	if err != nil {
		closeAll(r, docCloser)
		return nil, goerror.NewInvalidFormat()
	}
	defer closeAll(r, docCloser, imageCloser)

	out, err := h.uc.Upload(r.Context(), usecase.UploadInput{
		RecipientID: recipientID,
		Key:         router.FormValue(form, "key"),
		Access:      router.FormValue(form, "file_access"),
		ExpiresAt:   expiresAt,
		Doc:         doc,
		Image:       image,
	})
	if err != nil {
		return nil, err
	}

	return UploadResponse{
		ID:        out.ID,
		DocName:   out.DocName,
		Access:    string(out.Access),
		ExpiresAt: out.ExpiresAt,
	}, nil
}

// List returns the sent or received documents of the caller.
// @Summary List documents
// @Tags Document
// @Produce json
// @Param box query string false "sent or received (default)"
// @Param page query int false "Page, from 1"
// @Param size query int false "Page size, up to 100"
// @Success 200 {object} router.successResponse{data=DocumentListResponse} "Documents"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/documents [get]
func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt32("size")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.List(r.Context(), usecase.ListInput{Box: r.GetQuery("box"), Page: page, Size: size})
	if err != nil {
		return nil, err
	}

	return DocumentListResponse{
		Documents: lo.Map(out.Documents, func(d usecase.ListedDocument, _ int) DocumentResponse {
			return DocumentResponse{
				ID:        d.ID,
				DocName:   d.DocName,
				DocType:   d.DocType,
				DocSize:   d.DocSize,
				Access:    string(d.Access),
				ExpiresAt: d.ExpiresAt,
				CreatedAt: d.CreatedAt,
				Expired:   d.Expired,
				Party:     PartyResponse{ID: d.Party.ID, FirstName: d.Party.FirstName, LastName: d.Party.LastName},
			}
		}),
		box:   string(out.Box),
		page:  out.Page,
		size:  out.Size,
		total: out.Total,
	}, nil
}

// Open checks the key and returns signed links to the document and image.
// @Summary Open a shared document
// @Tags Document
// @Accept json
// @Produce json
// @Param id path string true "Document id"
// @Param request body OpenRequest true "Key and action"
// @Success 200 {object} router.successResponse{data=OpenResponse} "Signed links"
// @Failure 400 {object} router.errorResponse "Document expired"
// @Failure 403 {object} router.errorResponse "Incorrect key or action not allowed"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Failure 429 {object} router.errorResponse "Too many incorrect key attempts"
// @Router /api/documents/{id}/open [post]
func (h *HTTPEndpoint) Open(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	var req OpenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Open(r.Context(), usecase.OpenInput{ID: id, Key: req.Key, Action: req.Action})
	if err != nil {
		return nil, err
	}

	return OpenResponse{
		DocumentURL:  out.DocumentURL,
		ImageURL:     out.ImageURL,
		DocName:      out.DocName,
		Access:       string(out.Access),
		URLExpiresAt: out.URLExpiresAt,
	}, nil
}

// Delete removes a document the caller owns.
// @Summary Delete a document
// @Tags Document
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} router.successResponse "Document deleted"
// @Failure 403 {object} router.errorResponse "Only the owner can delete this document"
// @Failure 404 {object} router.errorResponse "Document not found"
// @Router /api/documents/{id} [delete]
func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.Delete(r.Context(), usecase.DeleteInput{ID: id}); err != nil {
		return nil, err
	}

	return DeleteResponse{}, nil
}
