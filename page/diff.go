package page

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares the named page between two revisions, line by line.
func (r *Repository) Diff(name, from, to string) ([]diffmatchpatch.Diff, error) {
	before, err := r.FindRevision(name, from)
	if err != nil {
		return nil, err
	}
	after, err := r.FindRevision(name, to)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before.RawBody()), string(after.RawBody()))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)
	return dmp.DiffCleanupSemantic(diffs), nil
}
