package inbound

import (
	"context"

	"github.com/safe4law/safe4law/internal/document/usecase"
	"github.com/safe4law/safe4law/internal/pkg/router"
)

type uc interface {
	Upload(ctx context.Context, in usecase.UploadInput) (*usecase.UploadOutput, error)
	List(ctx context.Context, in usecase.ListInput) (*usecase.ListOutput, error)
	Open(ctx context.Context, in usecase.OpenInput) (*usecase.OpenOutput, error)
	Delete(ctx context.Context, in usecase.DeleteInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/file-upload", end.FileUpload)
	r.GET("/api/documents", end.List)
	r.POST("/api/documents/:id/open", end.Open)
	r.DELETE("/api/documents/:id", end.Delete)
}
