// Package filesystem provides a document source rooted at a local
// directory. Document IDs are slash-separated paths relative to the
// root, so a corpus moves between machines without invalidating IDs.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// DefaultExtensions are the file extensions treated as documents.
var DefaultExtensions = []string{".txt", ".md", ".markdown", ".rst", ".org", ".html", ".htm"}

// Source serves documents from a directory tree.
type Source struct {
	root       string
	extensions map[string]bool
}

// Option configures a Source.
type Option func(*Source)

// WithExtensions replaces the default extension filter. Extensions are
// matched case-insensitively and must include the leading dot.
func WithExtensions(exts ...string) Option {
	return func(s *Source) {
		s.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			s.extensions[strings.ToLower(ext)] = true
		}
	}
}

// New creates a source rooted at dir.
func New(dir string, opts ...Option) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving corpus root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", abs)
	}

	s := &Source{root: abs}
	WithExtensions(DefaultExtensions...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute corpus root directory.
func (s *Source) Root() string {
	return s.root
}

// List walks the corpus and returns all document IDs, sorted. Hidden
// files and directories are skipped.
func (s *Source) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !s.extensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		id, err := s.idFor(path)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads one document by ID.
func (s *Source) Load(ctx context.Context, id string) (domain.Document, error) {
	if ctx.Err() != nil {
		return domain.Document{}, ctx.Err()
	}
	path, err := s.pathFor(id)
	if err != nil {
		return domain.Document{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.Document{}, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading document %s: %w", id, err)
	}
	return domain.Document{ID: id, Text: string(data)}, nil
}

// IDForPath converts an absolute or root-relative file path to a
// document ID, or reports that the path lies outside the corpus.
func (s *Source) IDForPath(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	id, err := s.idFor(path)
	if err != nil {
		return "", false
	}
	return id, true
}

// Matches reports whether the path has a document extension.
func (s *Source) Matches(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

func (s *Source) idFor(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the corpus root", path)
	}
	return filepath.ToSlash(rel), nil
}

// pathFor resolves a document ID back to a path, rejecting IDs that
// escape the root.
func (s *Source) pathFor(id string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(id))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: invalid document ID %q", domain.ErrNotFound, id)
	}
	return filepath.Join(s.root, cleaned), nil
}
