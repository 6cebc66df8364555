// Package storage provides the revision stores that wiki pages are kept in.
//
// A store holds a tree of blobs per revision. Content is staged into a working
// area and committed with a message, producing a new revision. Two stores are
// provided: Git, backed by a git repository on disk, and Memory, which keeps
// everything in process and is used by tests.
package storage

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a revision cannot be resolved or has no blob at
// the requested path.
var ErrNotFound = errors.New("not found")

// ShortIDLength is the number of characters used for abbreviated revision ids.
const ShortIDLength = 7

// Blob is an immutable snapshot of one path at one revision.
type Blob struct {
	Path     string
	Hash     string
	Revision string
	Content  []byte
}

// NewAbsentBlob returns a blob for a path that has not been committed yet.
func NewAbsentBlob(path string) *Blob {
	return &Blob{Path: path, Content: []byte{}}
}

// Absent reports whether the blob has never been committed.
func (b *Blob) Absent() bool {
	return b == nil || b.Hash == ""
}

type Author struct {
	Name  string
	Email string
}

// Revision is a single commit that touched a path.
type Revision struct {
	ID       string
	ShortID  string
	Time     time.Time
	Author   Author
	Message  string
	BlobHash string
}

// Entry is a file in the top level tree of a revision.
type Entry struct {
	Path string
	Size int64
}

func shortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// Subject returns the first line of the revision's message.
func (r Revision) Subject() string {
	if i := strings.IndexByte(r.Message, '\n'); i >= 0 {
		return r.Message[:i]
	}
	return r.Message
}
