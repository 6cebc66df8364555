package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mdbot/gitwiki/markdown"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const historySize = 50

func PageHistoryHandler(t *Templates, pf PageFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := pf.Find(mux.Vars(r)["page"])
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		history, err := p.History()
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		entries := make([]*HistoryEntry, len(history))
		for i := range history {
			entries[i] = &HistoryEntry{
				Revision: history[i],
				Latest:   i == 0,
			}
			if i+1 < len(history) {
				entries[i].Previous = history[i+1].ID
			}
		}

		// Pages are shown historySize entries at a time, starting after the
		// revision named by the after parameter.
		start := 0
		if after := r.URL.Query().Get("after"); after != "" {
			for i := range entries {
				if entries[i].Revision.ID == after {
					start = i + 1
					break
				}
			}
		}
		entries = entries[start:]

		var next string
		if len(entries) > historySize {
			entries = entries[:historySize]
			next = entries[historySize-1].Revision.ID
		}

		t.RenderHistory(w, r, p.Name(), p.Title(), entries, next)
	}
}

type DiffProvider interface {
	Diff(name, from, to string) ([]diffmatchpatch.Diff, error)
}

func DiffPageHandler(t *Templates, dp DiffProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["page"]
		from := r.FormValue("from")
		to := r.FormValue("to")
		if from == "" || to == "" {
			t.RenderBadRequest(w, r)
			return
		}

		diff, err := dp.Diff(name, from, to)
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		t.RenderDiff(w, r, name, markdown.Titleize(name), from, to, diff)
	}
}
