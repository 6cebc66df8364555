package storage

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Stage records content for the named path. It is written to the working tree
// and committed by the next call to Commit.
func (g *Git) Stage(name string, content []byte) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	_, gitPath, err := resolvePath(g.dir, name)
	if err != nil {
		return err
	}

	data := make([]byte, len(content))
	copy(data, content)
	g.staged[gitPath] = data
	return nil
}

// Commit writes everything staged since the last commit and records it as a new
// revision, returning its id. If the commit fails nothing is left in the index.
func (g *Git) Commit(message string, author Author) (string, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	staged := g.staged
	g.staged = make(map[string][]byte)

	paths := make([]string, 0, len(staged))
	for gitPath, content := range staged {
		paths = append(paths, gitPath)
		filePath := filepath.Join(g.dir, filepath.FromSlash(gitPath))
		if err := g.writeFile(filePath, gitPath, bytes.NewReader(content)); err != nil {
			g.unstage(paths)
			return "", err
		}
	}

	id, err := g.commit(message, author)
	if err != nil {
		g.unstage(paths)
		return "", err
	}
	return id, nil
}

// PutConfig writes and commits a settings file on its own. Content staged for
// pages is not included.
func (g *Git) PutConfig(name string, content []byte, user string, message string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	filePath := filepath.Join(g.dir, configDirectory, fmt.Sprintf("%s.json.enc", name))
	gitPath := configDirectory + "/" + fmt.Sprintf("%s.json.enc", name)

	if err := g.writeFile(filePath, gitPath, bytes.NewReader(content)); err != nil {
		g.unstage([]string{gitPath})
		return err
	}
	if _, err := g.commit(message, Author{Name: user}); err != nil {
		g.unstage([]string{gitPath})
		return err
	}
	return nil
}

func (g *Git) writeFile(filePath, gitPath string, content io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(filePath), os.FileMode(0755)); err != nil {
		return err
	}

	f, err := os.Create(filePath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	worktree, err := g.repo.Worktree()
	if err != nil {
		return err
	}

	_, err = worktree.Add(gitPath)
	return err
}

func (g *Git) commit(message string, author Author) (string, error) {
	worktree, err := g.repo.Worktree()
	if err != nil {
		return "", err
	}

	email := author.Email
	if email == "" {
		email = author.Name + "@wiki"
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author.Name,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// unstage puts the index back to HEAD after a failed write. Without a HEAD the
// given paths are dropped from the index instead. Failures are only logged
// since the caller is already returning an error.
func (g *Git) unstage(paths []string) {
	if err := g.resetIndex(paths); err != nil {
		log.Printf("Unable to reset index after failed commit: %v", err)
	}
}

func (g *Git) resetIndex(paths []string) error {
	if _, err := g.repo.Head(); err == nil {
		worktree, err := g.repo.Worktree()
		if err != nil {
			return err
		}
		return worktree.Reset(&git.ResetOptions{Mode: git.MixedReset})
	}

	idx, err := g.repo.Storer.Index()
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[p] = true
	}
	kept := idx.Entries[:0]
	for _, e := range idx.Entries {
		if !drop[e.Name] {
			kept = append(kept, e)
		}
	}
	idx.Entries = kept
	return g.repo.Storer.SetIndex(idx)
}
