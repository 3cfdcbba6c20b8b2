package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/hichoni/challenge-service/internal/config"
)

// MediaStore persists submission media blobs
type MediaStore interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// SupabaseMediaStore stores media in a Supabase Storage bucket
type SupabaseMediaStore struct {
	client  *storage_go.Client
	baseURL string
	bucket  string
	logger  *slog.Logger
}

func NewSupabaseMediaStore(cfg config.SupabaseConfig, logger *slog.Logger) *SupabaseMediaStore {
	baseURL := strings.TrimRight(cfg.URL, "/")

	return &SupabaseMediaStore{
		client:  storage_go.NewClient(baseURL+"/storage/v1", cfg.Key, nil),
		baseURL: baseURL,
		bucket:  cfg.Bucket,
		logger:  logger,
	}
}

// Upload writes the object and returns its public URL
func (s *SupabaseMediaStore) Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error) {
	options := storage_go.FileOptions{
		ContentType: &contentType,
	}

	if _, err := s.client.UploadFile(s.bucket, objectPath, body, options); err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath)
	return publicURL, nil
}

// Delete removes the object a public URL points at. Unknown URLs are an error
// so callers can decide whether to log or fail.
func (s *SupabaseMediaStore) Delete(ctx context.Context, publicURL string) error {
	if publicURL == "" {
		return nil
	}

	bucket, object, err := parseObjectURL(publicURL)
	if err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(bucket, []string{object}); err != nil {
		return fmt.Errorf("failed to delete media %s: %w", object, err)
	}

	return nil
}

// parseObjectURL extracts bucket and object path from a Supabase public URL
func parseObjectURL(publicURL string) (string, string, error) {
	const marker = "/storage/v1/object/"

	idx := strings.Index(publicURL, marker)
	if idx == -1 {
		return "", "", fmt.Errorf("not a storage object URL: %s", publicURL)
	}

	rest := strings.TrimPrefix(publicURL[idx+len(marker):], "public/")

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse bucket and object from URL: %s", publicURL)
	}

	object := parts[1]
	if qIdx := strings.Index(object, "?"); qIdx != -1 {
		object = object[:qIdx]
	}
	if unescaped, err := url.PathUnescape(object); err == nil {
		object = unescaped
	}

	return parts[0], object, nil
}

// NoopMediaStore is used when no storage backend is configured
type NoopMediaStore struct {
	logger *slog.Logger
}

func NewNoopMediaStore(logger *slog.Logger) *NoopMediaStore {
	return &NoopMediaStore{logger: logger}
}

func (s *NoopMediaStore) Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (string, error) {
	return "", fmt.Errorf("media storage is not configured")
}

func (s *NoopMediaStore) Delete(ctx context.Context, publicURL string) error {
	s.logger.WarnContext(ctx, "Media storage not configured, skipping delete", "url", publicURL)
	return nil
}
