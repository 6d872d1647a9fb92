package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
)

var ErrNotFound = errors.New("content not found")

const ext = ".md"

// Repository reads content/<type>/<slug>.md files. Nothing is cached:
// every call reparses from disk.
type Repository struct {
	root string
	md   goldmark.Markdown
}

func NewRepository(root string) *Repository {
	return &Repository{
		root: root,
		md:   newRenderer(),
	}
}

// ListByType returns the published items of a type, newest first. Items
// without a date keep their relative order after the dated ones.
func (r *Repository) ListByType(ctx context.Context, typ string) ([]Item, error) {
	if !validName(typ) {
		return []Item{}, nil
	}

	dir := filepath.Join(r.root, typ)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slug := strings.TrimSuffix(e.Name(), ext)
		it, err := r.load(typ, slug)
		if err != nil {
			return nil, err
		}
		if !it.Frontmatter.IsPublished() {
			continue
		}
		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].Frontmatter.Date, items[j].Frontmatter.Date
		switch {
		case di != nil && dj != nil:
			return di.After(*dj)
		case di != nil:
			return true
		default:
			return false
		}
	})

	return items, nil
}

// GetBySlug loads a single item regardless of its published flag.
func (r *Repository) GetBySlug(ctx context.Context, typ, slug string) (Item, error) {
	if !validName(typ) || !validName(slug) {
		return Item{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	return r.load(typ, slug)
}

func (r *Repository) load(typ, slug string) (Item, error) {
	path := filepath.Join(r.root, typ, slug+ext)
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("reading %s: %w", path, err)
	}

	it, err := parse(r.md, slug, src)
	if err != nil {
		return Item{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return it, nil
}

// validName keeps lookups inside the content root.
func validName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}
