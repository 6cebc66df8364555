package page

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches both PageNotFoundError and RevisionNotFoundError.
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid page name")
)

// PageNotFoundError is returned when a page does not exist at the tip.
type PageNotFoundError struct {
	Name string
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %s not found", e.Name)
}

func (e *PageNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RevisionNotFoundError is returned when a page is requested at a revision that
// does not exist or does not contain the page.
type RevisionNotFoundError struct {
	Name     string
	Revision string
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("page %s not found at revision %s", e.Name, e.Revision)
}

func (e *RevisionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFoundName returns the page name carried by either not found error.
func NotFoundName(err error) (string, bool) {
	var pageErr *PageNotFoundError
	if errors.As(err, &pageErr) {
		return pageErr.Name, true
	}
	var revisionErr *RevisionNotFoundError
	if errors.As(err, &revisionErr) {
		return revisionErr.Name, true
	}
	return "", false
}
