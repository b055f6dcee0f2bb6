package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadThenDownloadURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, "http://localhost:8080/media/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := s.Upload(ctx, "users/abc/profile.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "users", "abc", "profile.jpg"))
	if err != nil || string(got) != "jpeg" {
		t.Fatalf("stored = %q, %v", got, err)
	}
	u, err := s.DownloadURL(ctx, "users/abc/profile.jpg")
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if want := "http://localhost:8080/media/users/abc/profile.jpg"; u != want {
		t.Fatalf("url = %q, want %q", u, want)
	}

	if err := s.Upload(ctx, "users/abc/profile.jpg", strings.NewReader("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = os.ReadFile(filepath.Join(dir, "users", "abc", "profile.jpg"))
	if string(got) != "v2" {
		t.Fatalf("after overwrite = %q", got)
	}
}

func TestDownloadURLMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "http://x")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := s.DownloadURL(context.Background(), "users/none.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), "http://x")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, p := range []string{"", "/etc/passwd", "../x", "a/../../x", "..", `..\x`} {
		if err := s.Upload(context.Background(), p, strings.NewReader("x")); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Upload(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
}
