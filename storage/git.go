package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const configDirectory = ".wiki"

// Git is a store backed by a git repository with a working tree.
type Git struct {
	// mutex guards access to git commands. A read or write lock should be acquired in all exported methods,
	// and released at the end (via a deferral).
	mutex sync.RWMutex
	dir   string
	repo  *git.Repository

	// staged holds content passed to Stage, keyed by repository path, until the
	// next Commit writes it out. Nothing reaches the index before then, so
	// settings commits never pick up half-finished page writes.
	staged map[string][]byte
}

// NewGit opens the git repository in dataDirectory, initialising a new one if
// none exists.
func NewGit(dataDirectory string) (*Git, error) {
	gitRepo, err := openOrInit(dataDirectory)
	if err != nil {
		return nil, fmt.Errorf("unable to open working directory: %w", err)
	}

	return &Git{
		dir:    dataDirectory,
		repo:   gitRepo,
		staged: make(map[string][]byte),
	}, nil
}

func openOrInit(dataDirectory string) (*git.Repository, error) {
	gitRepo, err := git.PlainOpen(dataDirectory)
	if err == nil {
		return gitRepo, nil
	}
	gitRepo, err = git.PlainInit(dataDirectory, false)
	if err == nil {
		return gitRepo, nil
	}
	return nil, err
}

// Dir returns the directory holding the working tree.
func (g *Git) Dir() string {
	return g.dir
}

func (g *Git) resolveRevision(rv string) (*plumbing.Hash, error) {
	if rv == "" {
		rv = "HEAD"
	}
	hash, err := g.repo.ResolveRevision(plumbing.Revision(rv))
	if err != nil {
		return nil, revisionError(rv, err)
	}
	return hash, nil
}

// revisionError maps the errors go-git gives for unknown refs and objects to
// ErrNotFound. Anything else is a real failure and is passed on.
func revisionError(rv string, err error) error {
	if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
		return fmt.Errorf("%w: revision %s: %v", ErrNotFound, rv, err)
	}
	return fmt.Errorf("resolving revision %s: %w", rv, err)
}

func (g *Git) commitAt(rv string) (*object.Commit, error) {
	hash, err := g.resolveRevision(rv)
	if err != nil {
		return nil, err
	}
	commit, err := g.repo.CommitObject(*hash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: commit %s", ErrNotFound, hash)
		}
		return nil, err
	}
	return commit, nil
}

// resolvePath joins name onto base, refusing anything that would escape base or
// touch the git or config directories. It returns both the path on disk and the
// slash separated path inside the repository.
func resolvePath(base, name string) (string, string, error) {
	p := filepath.Clean(filepath.Join(base, name))

	if strings.ContainsRune(name, '%') {
		return "", "", errors.New("paths cannot contain '%'")
	}

	rel, err := filepath.Rel(base, p)
	if err != nil || strings.HasPrefix(rel, ".") {
		return "", "", fmt.Errorf("attempt to escape directory")
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for i := range parts {
		if strings.EqualFold(parts[i], ".git") || strings.EqualFold(parts[i], configDirectory) {
			return "", "", fmt.Errorf("attempt to write to reserved directory")
		}
	}
	rel = strings.ReplaceAll(rel, string(filepath.Separator), "/")

	return p, rel, nil
}
