// Package page maps wiki page names onto the blobs of a revision store.
package page

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mdbot/gitwiki/markdown"
	"github.com/mdbot/gitwiki/storage"
)

const (
	DefaultExtension = ".markdown"
	DefaultRef       = "HEAD"

	ClassExists  = "exists"
	ClassUnknown = "unknown"
)

// DefaultAuthor is used for commits made without an explicit author.
var DefaultAuthor = storage.Author{Name: "Anonymous", Email: "anonymous@wiki"}

// Store is the revision store pages are kept in.
type Store interface {
	Blob(path, revision string) (*storage.Blob, error)
	Stage(path string, content []byte) error
	Commit(message string, author storage.Author) (string, error)
	Log(ref, path string) ([]storage.Revision, error)
	Tree(revision string) ([]storage.Entry, error)
}

// Renderer converts a raw page body to HTML.
type Renderer interface {
	Render([]byte) (string, error)
}

type Repository struct {
	store     Store
	extension string
	ref       string
	renderer  Renderer
	resolver  *markdown.LinkResolver
	logger    *log.Logger

	// writeMutex makes each stage and commit pair atomic with respect to other
	// writers going through this repository.
	writeMutex sync.Mutex
}

type Option func(*Repository)

// WithExtension sets the file extension page names are stored under.
func WithExtension(extension string) Option {
	return func(r *Repository) {
		r.extension = extension
	}
}

// WithRef sets the reference that counts as the tip.
func WithRef(ref string) Option {
	return func(r *Repository) {
		r.ref = ref
	}
}

func WithRenderer(renderer Renderer) Option {
	return func(r *Repository) {
		r.renderer = renderer
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func NewRepository(store Store, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, errors.New("a store is required")
	}

	r := &Repository{
		store:     store,
		extension: DefaultExtension,
		ref:       DefaultRef,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.extension == "" || !strings.HasPrefix(r.extension, ".") {
		return nil, fmt.Errorf("invalid page extension %q", r.extension)
	}
	if r.renderer == nil {
		r.renderer = markdown.NewRenderer("monokai")
	}
	r.resolver = markdown.NewLinkResolver(r)

	return r, nil
}

// ValidName checks that name can be used as a page name: it must be non-empty,
// must not start with a dot, and must not contain path separators or '%'.
func ValidName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, "/\\%\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Find returns the named page as it is at the tip.
func (r *Repository) Find(name string) (*Page, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}

	blob, err := r.store.Blob(r.path(name), r.ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &PageNotFoundError{Name: name}
		}
		return nil, fmt.Errorf("finding page %s: %w", name, err)
	}
	return r.newPage(blob), nil
}

// FindRevision returns the named page as it was at the given revision.
func (r *Repository) FindRevision(name, revision string) (*Page, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}

	blob, err := r.store.Blob(r.path(name), revision)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &RevisionNotFoundError{Name: name, Revision: revision}
		}
		return nil, fmt.Errorf("finding page %s at %s: %w", name, revision, err)
	}
	return r.newPage(blob), nil
}

// FindOrCreate returns the named page, or a new page that will be created by
// its first SetBody if it does not exist yet. Nothing is written to the store
// until then.
func (r *Repository) FindOrCreate(name string) (*Page, error) {
	page, err := r.Find(name)
	var notFound *PageNotFoundError
	if errors.As(err, &notFound) {
		return r.newPage(storage.NewAbsentBlob(r.path(name))), nil
	}
	return page, err
}

// Walk calls fn for each page at the top level of the tip, in the order the
// store lists them. Pages are loaded one at a time; an error from fn stops the
// walk and is returned.
func (r *Repository) Walk(fn func(*Page) error) error {
	entries, err := r.store.Tree(r.ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("listing pages: %w", err)
	}

	for i := range entries {
		name, ok := r.pageName(entries[i].Path)
		if !ok {
			continue
		}
		page, err := r.Find(name)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
	}
	return nil
}

// FindAll returns every page at the tip. An empty store gives an empty slice.
func (r *Repository) FindAll() ([]*Page, error) {
	pages := make([]*Page, 0)
	err := r.Walk(func(p *Page) error {
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// ExistsClass returns ClassExists if the named page can be found and
// ClassUnknown if it cannot. It costs a full lookup.
func (r *Repository) ExistsClass(name string) (string, error) {
	_, err := r.Find(name)
	var notFound *PageNotFoundError
	switch {
	case err == nil:
		return ClassExists, nil
	case errors.As(err, &notFound), errors.Is(err, ErrInvalidName):
		return ClassUnknown, nil
	default:
		return "", err
	}
}

func (r *Repository) path(name string) string {
	return name + r.extension
}

func (r *Repository) pageName(path string) (string, bool) {
	if !strings.HasSuffix(path, r.extension) {
		return "", false
	}
	name := strings.TrimSuffix(path, r.extension)
	if ValidName(name) != nil {
		return "", false
	}
	return name, true
}

func (r *Repository) newPage(blob *storage.Blob) *Page {
	return &Page{repo: r, blob: blob}
}
