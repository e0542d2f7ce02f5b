package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidName = errors.New("invalid artifact name")
	ErrNotFound    = errors.New("artifact not found")
)

// Kind names one of the whitelisted artifact directories. Nothing is
// ever written or served outside these four.
type Kind string

const (
	KindUpload Kind = "uploads"
	KindResult Kind = "results"
	KindChart  Kind = "charts"
	KindReport Kind = "reports"
)

var allKinds = []Kind{KindUpload, KindResult, KindChart, KindReport}

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Store places every artifact under root/<kind>/<uuid><ext>. Disk names
// are always server-generated; client-supplied names only survive as
// display metadata, never as paths.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	for _, kind := range allKinds {
		if err := os.MkdirAll(filepath.Join(root, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir failed: %w", kind, err)
		}
	}
	return &Store{root: root}, nil
}

// Dir returns the directory backing one artifact kind, for static serving.
func (s *Store) Dir(kind Kind) string {
	return filepath.Join(s.root, string(kind))
}

// Save writes data under a fresh generated name and returns that name.
func (s *Store) Save(kind Kind, ext string, data []byte) (string, error) {
	name, err := newName(ext)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir(kind), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s artifact failed: %w", kind, err)
	}
	return name, nil
}

// SaveFrom streams r into a fresh generated name.
func (s *Store) SaveFrom(kind Kind, ext string, r io.Reader) (string, error) {
	name, err := newName(ext)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir(kind), name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s artifact failed: %w", kind, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s artifact failed: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s artifact failed: %w", kind, err)
	}
	return name, nil
}

// Resolve maps a client-supplied name to a path inside the kind's
// directory, or fails. Only base names with a known extension that
// actually exist resolve.
func (s *Store) Resolve(kind Kind, name string) (string, error) {
	cleaned, err := sanitize(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir(kind), cleaned)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat %s artifact failed: %w", kind, err)
	}
	return path, nil
}

func (s *Store) Open(kind Kind, name string) (*os.File, error) {
	path, err := s.Resolve(kind, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s artifact failed: %w", kind, err)
	}
	return f, nil
}

func (s *Store) Remove(kind Kind, name string) error {
	path, err := s.Resolve(kind, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s artifact failed: %w", kind, err)
	}
	return nil
}

func newName(ext string) (string, error) {
	ext = strings.ToLower(ext)
	if !allowedExts[ext] {
		return "", ErrInvalidName
	}
	return uuid.NewString() + ext, nil
}

// sanitize rejects rather than repairs: a name carrying a separator or
// a dot-dot component is an attack or a bug, not something to base-name
// into validity.
func sanitize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\") {
		return "", ErrInvalidName
	}
	if !allowedExts[strings.ToLower(filepath.Ext(name))] {
		return "", ErrInvalidName
	}
	return name, nil
}
