package inbound

import (
	"net/http"
	"time"
)

type UploadResponse struct {
	ID        int64     `json:"id,string"`
	DocName   string    `json:"doc_name"`
	Access    string    `json:"file_access"`
	ExpiresAt time.Time `json:"expiration_time"`
}

func (UploadResponse) StatusCode() int { return http.StatusCreated }

func (UploadResponse) Message() string { return "Files uploaded successfully!" }

type PartyResponse struct {
	ID        int64  `json:"id,string"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type DocumentResponse struct {
	ID        int64         `json:"id,string"`
	DocName   string        `json:"doc_name"`
	DocType   string        `json:"doc_type"`
	DocSize   int64         `json:"doc_size"`
	Access    string        `json:"file_access"`
	ExpiresAt time.Time     `json:"expiration_time"`
	CreatedAt time.Time     `json:"created_at"`
	Expired   bool          `json:"expired"`
	Party     PartyResponse `json:"party"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`

	box   string
	page  int32
	size  int32
	total int64
}

func (DocumentListResponse) Message() string { return "Documents retrieved" }

func (r DocumentListResponse) Meta() map[string]any {
	return map[string]any{"box": r.box, "page": r.page, "size": r.size, "total": r.total}
}

type OpenRequest struct {
	Key    string `json:"key"`
	Action string `json:"action"`
}

type OpenResponse struct {
	DocumentURL  string    `json:"document_url"`
	ImageURL     string    `json:"image_url"`
	DocName      string    `json:"doc_name"`
	Access       string    `json:"file_access"`
	URLExpiresAt time.Time `json:"url_expires_at"`
}

func (OpenResponse) Message() string { return "Access granted" }

type DeleteResponse struct{}

func (DeleteResponse) Message() string { return "Document deleted" }
