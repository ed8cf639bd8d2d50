// Package storage is the media file store: a directory tree served under a
// public URL prefix.
package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

type Storage struct {
	fs      afero.Fs
	root    string
	baseURL string
}

// New returns a Storage rooted at root on fs. baseURL is the public prefix
// media files are served from, e.g. "/media/".
func New(fs afero.Fs, root, baseURL string) *Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Storage{fs: fs, root: root, baseURL: baseURL}
}

func (s *Storage) BaseURL() string {
	return s.baseURL
}

// Path maps a storage-relative name to its location on the filesystem.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(name, "/")))
}

// URL returns the public URL for a storage-relative name.
func (s *Storage) URL(name string) string {
	return s.baseURL + strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(name)), "/")
}

// Open opens a stored file. Opening for write creates missing parent
// directories first.
func (s *Storage) Open(name string, flag int) (afero.File, error) {
	p := s.Path(name)
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE) != 0 {
		if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
	}
	f, err := s.fs.OpenFile(p, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// Save writes content under name, replacing any existing file, and returns
// the public URL.
func (s *Storage) Save(name string, content io.Reader) (string, error) {
	f, err := s.Open(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return s.URL(name), nil
}

// CopyFrom copies the file at src on the source filesystem into storage
// under name.
func (s *Storage) CopyFrom(src afero.Fs, srcPath, name string) (string, error) {
	in, err := src.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source %s: %w", srcPath, err)
	}
	defer in.Close()
	return s.Save(name, in)
}

func (s *Storage) Exists(name string) bool {
	ok, err := afero.Exists(s.fs, s.Path(name))
	return err == nil && ok
}
