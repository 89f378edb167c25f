package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/safe4law/safe4law/internal/document/entity"
	"github.com/safe4law/safe4law/internal/document/usecase"
	"github.com/safe4law/safe4law/internal/pkg/config"
	"github.com/safe4law/safe4law/internal/pkg/goerror"
	"github.com/safe4law/safe4law/internal/pkg/instrument"
	"github.com/safe4law/safe4law/internal/pkg/jwt"
	"github.com/safe4law/safe4law/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	upload   usecase.UploadInput
	docBody  string
	list     usecase.ListInput
	open     usecase.OpenInput
	deleted  int64
	openErr  error
	listOut  *usecase.ListOutput
	uploaded bool
}

func (f *fakeUC) Upload(_ context.Context, in usecase.UploadInput) (*usecase.UploadOutput, error) {
	f.upload, f.uploaded = in, true
	if in.Doc != nil {
		b, err := io.ReadAll(in.Doc.Body)
		if err != nil {
			return nil, err
		}
		f.docBody = string(b)
	}
	return &usecase.UploadOutput{ID: 1001, DocName: "contract.pdf", Access: entity.Access(in.Access), ExpiresAt: in.ExpiresAt}, nil
}

func (f *fakeUC) List(_ context.Context, in usecase.ListInput) (*usecase.ListOutput, error) {
	f.list = in
	return f.listOut, nil
}

func (f *fakeUC) Open(_ context.Context, in usecase.OpenInput) (*usecase.OpenOutput, error) {
	f.open = in
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &usecase.OpenOutput{DocumentURL: "https://bucket.test/doc", ImageURL: "https://bucket.test/img", Access: entity.AccessView}, nil
}

func (f *fakeUC) Delete(_ context.Context, in usecase.DeleteInput) error {
	f.deleted = in.ID
	return nil
}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Now() }

type fixedID struct{}

func (fixedID) Generate() string { return "id" }

type harness struct {
	ro     *router.Router
	signer *jwt.HS512
}

func newHarness(t *testing.T, uc uc) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: test\n"))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret: []byte(strings.Repeat("s", 64)),
		Issuer: "safe4law",
		TTL:    15 * time.Minute,
		Clock:  fixedClock{},
		ID:     fixedID{},
	})
	require.NoError(t, err)

	ro := router.NewRouter(router.Config{Config: cfg, UUID: fixedID{}, JWT: signer, Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(ro, uc)

	return &harness{ro: ro, signer: signer}
}

func (h *harness) send(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	tok, err := h.signer.Generate(7, "ada@x.com")
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: router.CookieSession, Value: tok.Value})

	rec := httptest.NewRecorder()
	h.ro.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f[0]+`"`)
		hdr.Set("Content-Type", f[1])
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + f[0]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestFileUpload(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)
	body, ct := multipartBody(t,
		map[string]string{"user": "42", "key": "4821", "file_access": "download", "expiration_time": "2030-01-02T15:04:05Z"},
		map[string][2]string{"fileDoc": {"contract.pdf", "application/pdf"}, "fileImage": {"cover.jpg", "image/jpeg"}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/file-upload", body)
	req.Header.Set("Content-Type", ct)

	rec, out := h.send(t, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Files uploaded successfully!", out["message"])
	assert.Equal(t, "1001", out["data"].(map[string]any)["id"])

	in := uc.upload
	assert.Equal(t, int64(42), in.RecipientID)
	assert.Equal(t, "4821", in.Key)
	assert.Equal(t, "download", in.Access)
	assert.Equal(t, time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC), in.ExpiresAt)
	require.NotNil(t, in.Doc)
	assert.Equal(t, "contract.pdf", in.Doc.Name)
	assert.Equal(t, "application/pdf", in.Doc.ContentType)
	assert.Equal(t, int64(len("content of contract.pdf")), in.Doc.Size)
	assert.Equal(t, "content of contract.pdf", uc.docBody)
	require.NotNil(t, in.Image)
	assert.Equal(t, "image/jpeg", in.Image.ContentType)
}

func TestFileUpload_MissingFilePassedThrough(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)
	body, ct := multipartBody(t,
		map[string]string{"user": "42", "key": "4821", "file_access": "view", "expiration_time": "2030-01-02T15:04"},
		map[string][2]string{"fileDoc": {"contract.pdf", "application/pdf"}},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/file-upload", body)
	req.Header.Set("Content-Type", ct)

	rec, _ := h.send(t, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, uc.upload.Image)
	assert.Equal(t, time.Date(2030, 1, 2, 15, 4, 0, 0, time.UTC), uc.upload.ExpiresAt)
}

func TestFileUpload_BadFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		field  string
	}{
		{name: "user", fields: map[string]string{"user": "ada"}, field: "user"},
		{name: "expiration", fields: map[string]string{"expiration_time": "tomorrow"}, field: "expiration_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUC{}
			h := newHarness(t, uc)
			body, ct := multipartBody(t, tt.fields, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/file-upload", body)
			req.Header.Set("Content-Type", ct)

			rec, out := h.send(t, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, out["error"], tt.field)
			assert.False(t, uc.uploaded)
		})
	}
}

func TestFileUpload_NotMultipart(t *testing.T) {
	h := newHarness(t, &fakeUC{})
	req := httptest.NewRequest(http.MethodPost, "/api/file-upload", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec, _ := h.send(t, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestList(t *testing.T) {
	uc := &fakeUC{listOut: &usecase.ListOutput{
		Box: entity.BoxSent, Page: 2, Size: 5, Total: 6,
		Documents: []usecase.ListedDocument{{
			ID: 1001, DocName: "contract.pdf", Access: entity.AccessView, Expired: true,
			Party: entity.Party{ID: 42, FirstName: "Alan", LastName: "Turing"},
		}},
	}}
	h := newHarness(t, uc)

	rec, out := h.send(t, httptest.NewRequest(http.MethodGet, "/api/documents?box=sent&page=2&size=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.ListInput{Box: "sent", Page: 2, Size: 5}, uc.list)

	meta := out["meta"].(map[string]any)
	assert.Equal(t, "sent", meta["box"])
	assert.InDelta(t, 6, meta["total"], 0)

	docs := out["data"].(map[string]any)["documents"].([]any)
	require.Len(t, docs, 1)
	doc := docs[0].(map[string]any)
	assert.Equal(t, "1001", doc["id"])
	assert.Equal(t, true, doc["expired"])
	assert.Equal(t, "42", doc["party"].(map[string]any)["id"])
}

func TestOpen(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/1001/open", strings.NewReader(`{"key":"4821","action":"view"}`))
	req.Header.Set("Content-Type", "application/json")

	rec, out := h.send(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.OpenInput{ID: 1001, Key: "4821", Action: "view"}, uc.open)
	assert.Equal(t, "https://bucket.test/doc", out["data"].(map[string]any)["document_url"])
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{name: "bad id", path: "/api/documents/abc/open", want: http.StatusBadRequest},
		{name: "wrong key", path: "/api/documents/1/open", err: goerror.NewBusiness("Incorrect key", goerror.CodeForbidden), want: http.StatusForbidden},
		{name: "throttled", path: "/api/documents/1/open", err: goerror.NewBusiness("Too many", goerror.CodeTooManyRequest), want: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeUC{openErr: tt.err})
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{"key":"1111","action":"view"}`))
			req.Header.Set("Content-Type", "application/json")

			rec, _ := h.send(t, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDelete(t *testing.T) {
	uc := &fakeUC{}
	h := newHarness(t, uc)

	rec, out := h.send(t, httptest.NewRequest(http.MethodDelete, "/api/documents/1001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Document deleted", out["message"])
	assert.Equal(t, int64(1001), uc.deleted)
}

func TestRequiresSession(t *testing.T) {
	h := newHarness(t, &fakeUC{})
	rec := httptest.NewRecorder()

	h.ro.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
