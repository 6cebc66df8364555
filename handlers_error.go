package main

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/mdbot/gitwiki/page"
)

// handlePageError sends the response for a failed page lookup or write. A
// missing revision goes back to the current page and a missing page goes to its
// edit form so it can be created.
func handlePageError(t *Templates, w http.ResponseWriter, r *http.Request, err error) {
	var revisionErr *page.RevisionNotFoundError
	var pageErr *page.PageNotFoundError

	switch {
	case errors.As(err, &revisionErr):
		http.Redirect(w, r, "/"+url.PathEscape(revisionErr.Name), http.StatusFound)
	case errors.As(err, &pageErr):
		http.Redirect(w, r, "/e/"+url.PathEscape(pageErr.Name), http.StatusFound)
	case errors.Is(err, page.ErrInvalidName):
		t.RenderBadRequest(w, r)
	default:
		log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		t.RenderInternalError(w, r)
	}
}

type notFoundInterceptWriter struct {
	realWriter http.ResponseWriter
	status     int
}

func (w *notFoundInterceptWriter) Header() http.Header {
	return w.realWriter.Header()
}

func (w *notFoundInterceptWriter) WriteHeader(status int) {
	w.status = status
	if status != http.StatusNotFound {
		w.realWriter.WriteHeader(status)
	}
}

func (w *notFoundInterceptWriter) Write(p []byte) (int, error) {
	if w.status != http.StatusNotFound {
		return w.realWriter.Write(p)
	}
	return len(p), nil
}

// NotFoundHandler replaces the plain text 404s written by h with the wiki's
// own not found page.
func NotFoundHandler(t *Templates, h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fakeWriter := &notFoundInterceptWriter{realWriter: w}

		h.ServeHTTP(fakeWriter, r)

		if fakeWriter.status == http.StatusNotFound {
			t.RenderNotFound(w, r)
		}
	}
}
