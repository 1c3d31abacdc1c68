package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaoscope/chaoscope/pkg/config"
)

func TestLocalStoragePutGetSeries(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"opendigger_stars":{"raw":{"2024-01":3}}}`)
	if err := s.PutSeries(ctx, "acme/widget", data); err != nil {
		t.Fatalf("PutSeries: %v", err)
	}

	got, err := s.GetSeries(ctx, "acme/widget")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetSeries = %q, want %q", got, data)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "repos", "acme_widget", "series.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStoragePutGetResult(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"repoKey":"acme/widget"}`)
	if err := s.PutResult(ctx, "acme/widget", data); err != nil {
		t.Fatalf("PutResult: %v", err)
	}

	got, err := s.GetResult(ctx, "acme/widget")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetResult = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "repos", "acme_widget", "result.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())
	ctx := context.Background()

	if _, err := s.GetSeries(ctx, "acme/missing"); !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("GetSeries error = %v, want ErrSeriesNotFound", err)
	}
	if _, err := s.GetResult(ctx, "acme/missing"); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("GetResult error = %v, want ErrResultNotFound", err)
	}
}

func TestLocalStorageKeysAreConfined(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)

	if err := s.PutSeries(context.Background(), "../../etc/passwd", []byte(`{}`)); err != nil {
		t.Fatalf("PutSeries: %v", err)
	}
	rel, err := filepath.Rel(dir, s.path("../../etc/passwd", seriesBlob))
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Errorf("blob path escaped base dir: %s", rel)
	}
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()
	client, err := NewStorage(context.Background(), config.StorageConfig{Backend: "local", Path: dir})
	if err != nil {
		t.Fatalf("NewStorage(local): %v", err)
	}
	local, ok := client.(*LocalStorage)
	if !ok {
		t.Fatalf("NewStorage(local) = %T, want *LocalStorage", client)
	}
	if local.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", local.BaseDir, dir)
	}

	if _, err := NewStorage(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
