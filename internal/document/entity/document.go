package entity

import (
	"io"
	"strings"
	"time"
)

// Access is what a recipient may do with a shared document.
type Access string

const (
	AccessView     Access = "view"
	AccessDownload Access = "download"
)

func (a Access) Valid() bool {
	return a == AccessView || a == AccessDownload
}

// Box selects documents by the caller's side of the share.
type Box string

const (
	BoxSent     Box = "sent"
	BoxReceived Box = "received"
)

// BoxFromString defaults to BoxReceived.
func BoxFromString(s string) Box {
	if Box(strings.ToLower(strings.TrimSpace(s))) == BoxSent {
		return BoxSent
	}
	return BoxReceived
}

// Document is a shared legal document and its cover image.
type Document struct {
	ID            int64
	OwnerID       int64
	RecipientID   int64
	DocKey        string
	DocName       string
	DocType       string
	DocSize       int64
	ImageKey      string
	ImageType     string
	ImageSize     int64
	AccessKeyHash string
	Access        Access
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the share window closed at or before now.
func (d *Document) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Party is the other side of a share as shown in a listing.
type Party struct {
	ID        int64
	FirstName string
	LastName  string
}

// ListItem is a document row joined with its counterpart.
type ListItem struct {
	Document
	Party Party
}

type ListFilter struct {
	UserID int64
	Box    Box
	Limit  int32
	Offset int32
}

// Upload is one file part of the upload form.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
