package main

import (
	"net/http"
	"strings"
)

func SearchHandler(t *Templates, pw PageWalker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pattern := strings.TrimSpace(r.FormValue("pattern"))
		var results []SearchResult
		if pattern != "" {
			var err error
			results, err = searchPages(pw, pattern)
			if err != nil {
				handlePageError(t, w, r, err)
				return
			}
		}
		t.RenderSearch(w, r, pattern, results)
	}
}
