package storage

import (
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Log returns every commit reachable from ref that touched the named path,
// newest first.
func (g *Git) Log(ref, name string) ([]Revision, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	_, gitPath, err := resolvePath(g.dir, name)
	if err != nil {
		return nil, err
	}

	from, err := g.resolveRevision(ref)
	if err != nil {
		return nil, err
	}

	commitIter, err := g.repo.Log(&git.LogOptions{
		From: *from,
		PathFilter: func(s string) bool {
			return s == gitPath
		},
	})
	if err != nil {
		return nil, err
	}
	defer commitIter.Close()

	history := make([]Revision, 0)
	err = commitIter.ForEach(func(commit *object.Commit) error {
		revision := Revision{
			ID:      commit.Hash.String(),
			ShortID: shortID(commit.Hash.String()),
			Time:    commit.Committer.When,
			Author: Author{
				Name:  commit.Author.Name,
				Email: commit.Author.Email,
			},
			Message: strings.TrimRight(commit.Message, "\n"),
		}
		// Commits that deleted the path have no blob for it.
		if file, err := commit.File(gitPath); err == nil {
			revision.BlobHash = file.Hash.String()
		}
		history = append(history, revision)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
