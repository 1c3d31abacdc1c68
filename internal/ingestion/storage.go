// Package ingestion runs the hosted chaoscope pipeline: series storage,
// evaluation, result storage and evaluation bookkeeping.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chaoscope/chaoscope/pkg/config"
)

// ErrSeriesNotFound is returned when no series has been stored for a repository.
var ErrSeriesNotFound = errors.New("series not found")

// ErrResultNotFound is returned when no evaluation result has been stored for
// a repository.
var ErrResultNotFound = errors.New("result not found")

// StorageClient abstracts blob storage for series sets and evaluation results.
// Blobs are keyed by repository full name ("owner/repo").
type StorageClient interface {
	PutSeries(ctx context.Context, repoKey string, data []byte) error
	GetSeries(ctx context.Context, repoKey string) ([]byte, error)
	PutResult(ctx context.Context, repoKey string, data []byte) error
	GetResult(ctx context.Context, repoKey string) ([]byte, error)
}

const (
	seriesBlob = "series"
	resultBlob = "result"
)

// blobKey is the slash-separated object key shared by every backend.
func blobKey(repoKey, kind string) string {
	return "repos/" + config.RepoSlug(repoKey) + "/" + kind + ".json"
}

// NewStorage selects a backend from the storage config.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (StorageClient, error) {
	switch cfg.Backend {
	case "", "local":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(os.TempDir(), "chaoscope-data")
		}
		return NewLocalStorage(path), nil
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(repoKey, kind string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(blobKey(repoKey, kind)))
}

func (s *LocalStorage) put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *LocalStorage) get(path string, notFound error) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFound
	}
	return data, err
}

// PutSeries stores a series blob.
func (s *LocalStorage) PutSeries(ctx context.Context, repoKey string, data []byte) error {
	return s.put(s.path(repoKey, seriesBlob), data)
}

// GetSeries retrieves a series blob.
func (s *LocalStorage) GetSeries(ctx context.Context, repoKey string) ([]byte, error) {
	return s.get(s.path(repoKey, seriesBlob), ErrSeriesNotFound)
}

// PutResult stores the latest evaluation result blob.
func (s *LocalStorage) PutResult(ctx context.Context, repoKey string, data []byte) error {
	return s.put(s.path(repoKey, resultBlob), data)
}

// GetResult retrieves the latest evaluation result blob.
func (s *LocalStorage) GetResult(ctx context.Context, repoKey string) ([]byte, error) {
	return s.get(s.path(repoKey, resultBlob), ErrResultNotFound)
}
