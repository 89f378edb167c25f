package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// GCSOptions configures the Google Cloud Storage driver. CredentialsJSON is a
// service account key; it authenticates the client and signs URLs. Without
// it the client uses application default credentials and cannot sign.
type GCSOptions struct {
	Bucket          string
	CredentialsJSON []byte
}

// GCS implements Storage on Google Cloud Storage.
type GCS struct {
	bucket      *gcs.BucketHandle
	client      *gcs.Client
	accessID    string
	privateKey  []byte
	canSignURLs bool
}

func NewGCS(ctx context.Context, opts GCSOptions) (*GCS, error) {
	if opts.Bucket == "" {
		return nil, ErrMissingBucket
	}

	var clientOpts []option.ClientOption
	g := &GCS{}
	if len(opts.CredentialsJSON) > 0 {
		jwtCfg, err := google.JWTConfigFromJSON(opts.CredentialsJSON, gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("storage: parse gcs credentials: %w", err)
		}
		g.accessID, g.privateKey, g.canSignURLs = jwtCfg.Email, jwtCfg.PrivateKey, true
		clientOpts = append(clientOpts, option.WithCredentialsJSON(opts.CredentialsJSON))
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	g.client = client
	g.bucket = client.Bucket(opts.Bucket)
	return g, nil
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) PresignGet(_ context.Context, key string, expiry time.Duration, opts URLOptions) (string, error) {
	if !g.canSignURLs {
		return "", ErrMissingSigner
	}

	return g.bucket.SignedURL(key, &gcs.SignedURLOptions{
		GoogleAccessID: g.accessID,
		PrivateKey:     g.privateKey,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		Scheme:         gcs.SigningSchemeV4,
		QueryParameters: url.Values{
			"response-content-disposition": {opts.ContentDisposition()},
		},
	})
}

func (g *GCS) Close() error {
	return g.client.Close()
}
