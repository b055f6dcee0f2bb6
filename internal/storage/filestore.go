// Package storage is the object store for uploaded media. Objects are
// files under a root directory and are served read-only over HTTP.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned for an object that does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidPath is returned for empty paths and paths leaving the root.
	ErrInvalidPath = errors.New("storage: invalid object path")
)

// FileStore keeps objects on the local filesystem.
type FileStore struct {
	root    string
	baseURL string
}

// NewFileStore creates root if needed. baseURL is the public prefix the
// root is served under, e.g. http://host/media.
func NewFileStore(root, baseURL string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &FileStore{root: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are stored in.
func (s *FileStore) Root() string { return s.root }

// Upload writes src to the object at p, replacing any previous content.
func (s *FileStore) Upload(ctx context.Context, p string, src io.Reader) error {
	clean, err := cleanPath(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("upload %s: %w", clean, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("upload %s: %w", clean, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("upload %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("upload %s: %w", clean, err)
	}
	log.Debug().Str("path", clean).Int64("bytes", n).Msg("object stored")
	return nil
}

// DownloadURL returns the public URL of an existing object.
func (s *FileStore) DownloadURL(ctx context.Context, p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	segs := strings.Split(clean, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segs, "/"), nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}
