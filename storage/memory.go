package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryCommit struct {
	id      string
	parent  *memoryCommit
	when    time.Time
	author  Author
	message string
	tree    map[string]memoryObject
}

type memoryObject struct {
	hash    string
	content []byte
}

// Memory is a store held entirely in process. Its commits form a single linear
// branch.
type Memory struct {
	mutex  sync.RWMutex
	head   *memoryCommit
	staged map[string]memoryObject
	byID   map[string]*memoryCommit
	now    func() time.Time
}

// NewMemory returns an empty store with no commits.
func NewMemory() *Memory {
	return &Memory{
		staged: make(map[string]memoryObject),
		byID:   make(map[string]*memoryCommit),
		now:    time.Now,
	}
}

// Commits returns the number of commits made so far.
func (m *Memory) Commits() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.byID)
}

func (m *Memory) Blob(path, revision string) (*Blob, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	commit, err := m.resolve(revision)
	if err != nil {
		return nil, err
	}

	obj, ok := commit.tree[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", ErrNotFound, path, commit.id)
	}

	content := make([]byte, len(obj.content))
	copy(content, obj.content)
	return &Blob{
		Path:     path,
		Hash:     obj.hash,
		Revision: commit.id,
		Content:  content,
	}, nil
}

func (m *Memory) Stage(path string, content []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if path == "" || strings.HasPrefix(path, ".") || strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid path %q", path)
	}

	data := make([]byte, len(content))
	copy(data, content)
	m.staged[path] = memoryObject{hash: blobHash(data), content: data}
	return nil
}

func (m *Memory) Commit(message string, author Author) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tree := make(map[string]memoryObject)
	if m.head != nil {
		for k, v := range m.head.tree {
			tree[k] = v
		}
	}
	for k, v := range m.staged {
		tree[k] = v
	}
	m.staged = make(map[string]memoryObject)

	commit := &memoryCommit{
		parent:  m.head,
		when:    m.now(),
		author:  author,
		message: message,
		tree:    tree,
	}

	h := sha1.New()
	if m.head != nil {
		h.Write([]byte(m.head.id))
	}
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%d", len(m.byID), author.Name, message, commit.when.UnixNano())
	commit.id = hex.EncodeToString(h.Sum(nil))

	m.byID[commit.id] = commit
	m.head = commit
	return commit.id, nil
}

func (m *Memory) Log(ref, path string) ([]Revision, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	commit, err := m.resolve(ref)
	if err != nil {
		return nil, err
	}

	history := make([]Revision, 0)
	for c := commit; c != nil; c = c.parent {
		obj, ok := c.tree[path]
		var previous memoryObject
		var hadPrevious bool
		if c.parent != nil {
			previous, hadPrevious = c.parent.tree[path]
		}
		if ok == hadPrevious && obj.hash == previous.hash {
			continue
		}
		history = append(history, Revision{
			ID:       c.id,
			ShortID:  shortID(c.id),
			Time:     c.when,
			Author:   c.author,
			Message:  c.message,
			BlobHash: obj.hash,
		})
	}
	return history, nil
}

func (m *Memory) Tree(revision string) ([]Entry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	commit, err := m.resolve(revision)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(commit.tree))
	for path, obj := range commit.tree {
		if strings.ContainsRune(path, '/') {
			continue
		}
		entries = append(entries, Entry{Path: path, Size: int64(len(obj.content))})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// resolve accepts HEAD, a full commit id or an unambiguous prefix of at least
// four characters.
func (m *Memory) resolve(revision string) (*memoryCommit, error) {
	if revision == "" || revision == "HEAD" {
		if m.head == nil {
			return nil, fmt.Errorf("%w: revision HEAD", ErrNotFound)
		}
		return m.head, nil
	}

	if c, ok := m.byID[revision]; ok {
		return c, nil
	}

	if len(revision) >= 4 {
		var found *memoryCommit
		for id, c := range m.byID {
			if strings.HasPrefix(id, revision) {
				if found != nil {
					return nil, fmt.Errorf("%w: ambiguous revision %s", ErrNotFound, revision)
				}
				found = c
			}
		}
		if found != nil {
			return found, nil
		}
	}

	return nil, fmt.Errorf("%w: revision %s", ErrNotFound, revision)
}

// blobHash hashes content the way git hashes blob objects.
func blobHash(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
