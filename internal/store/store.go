// Package store keeps markdown documents with YAML frontmatter in a
// directory. Writes are atomic and serialized across processes with a
// per-document file lock.
package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// DefaultLockTimeout is the default timeout for acquiring a file lock.
const DefaultLockTimeout = 5 * time.Second

const ext = ".md"

// Document represents a markdown file with YAML frontmatter.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Store is a directory of documents addressed by name (without extension).
type Store struct {
	dir         string
	lockTimeout time.Duration
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{dir: dir, lockTimeout: DefaultLockTimeout}
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+ext)
}

// Put writes doc under name, replacing any existing document.
func (s *Store) Put(ctx context.Context, name string, doc *Document) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	data, err := encode(doc)
	if err != nil {
		return err
	}
	path := s.path(name)
	return s.withLock(ctx, path, false, func() error {
		return atomicWriteFile(path, data, 0644)
	})
}

// Get reads the document stored under name.
func (s *Store) Get(ctx context.Context, name string) (*Document, error) {
	path := s.path(name)
	var doc *Document
	err := s.withLock(ctx, path, true, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading document %s: %w", path, err)
		}
		doc = decode(path, data)
		return nil
	})
	return doc, err
}

// List returns the names of all documents, sorted ascending.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if len(doc.Frontmatter) > 0 {
		buf.WriteString("---\n")
		fm, err := yaml.Marshal(doc.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("marshaling frontmatter: %w", err)
		}
		buf.Write(fm)
		buf.WriteString("---\n\n")
	}
	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}

func decode(path string, data []byte) *Document {
	var matter map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &matter)
	if err != nil {
		slog.Debug("no frontmatter found in document", "path", path, "error", err)
		return &Document{Frontmatter: map[string]any{}, Body: string(data)}
	}
	if matter == nil {
		matter = map[string]any{}
	}
	return &Document{Frontmatter: matter, Body: string(body)}
}

// atomicWriteFile writes data to a temp file in the same directory then
// renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// withLock holds a lock on path.lock while fn runs. Readers share the lock.
func (s *Store) withLock(ctx context.Context, path string, shared bool, fn func() error) error {
	lockPath := path + ".lock"
	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = fileLock.TryRLockContext(ctx, 50*time.Millisecond)
	} else {
		locked, err = fileLock.TryLockContext(ctx, 50*time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("acquiring lock on %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("timed out acquiring lock on %s", lockPath)
	}
	defer fileLock.Unlock()

	return fn()
}
