package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// Blob returns the content of the named path as of the given revision. An empty
// revision means HEAD. ErrNotFound is returned if the revision does not exist or
// does not contain the path.
func (g *Git) Blob(name, revision string) (*Blob, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, gitPath, err := resolvePath(g.dir, name)
	if err != nil {
		return nil, err
	}

	commit, err := g.commitAt(revision)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(gitPath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s at %s", ErrNotFound, gitPath, commit.Hash)
		}
		return nil, err
	}

	b, err := readFile(file)
	if err != nil {
		return nil, err
	}

	return &Blob{
		Path:     gitPath,
		Hash:     file.Hash.String(),
		Revision: commit.Hash.String(),
		Content:  b,
	}, nil
}

// Tree lists the files at the top level of the given revision.
func (g *Git) Tree(revision string) ([]Entry, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	commit, err := g.commitAt(revision)
	if err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(tree.Entries))
	for i := range tree.Entries {
		entry := tree.Entries[i]
		if !entry.Mode.IsFile() {
			continue
		}
		blob, err := g.repo.BlobObject(entry.Hash)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Path: entry.Name,
			Size: blob.Size,
		})
	}
	return entries, nil
}

func (g *Git) GetConfig(name string) ([]byte, error) {
	filePath := filepath.Join(g.dir, configDirectory, fmt.Sprintf("%s.json.enc", name))
	return os.ReadFile(filePath)
}

func readFile(file *object.File) ([]byte, error) {
	reader, err := file.Blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}
