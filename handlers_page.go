package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/mdbot/gitwiki/config"
	"github.com/mdbot/gitwiki/page"
)

type PageFinder interface {
	Find(name string) (*page.Page, error)
}

type PageCreator interface {
	FindOrCreate(name string) (*page.Page, error)
}

type RevisionFinder interface {
	FindRevision(name, revision string) (*page.Page, error)
}

type PageLister interface {
	FindAll() ([]*page.Page, error)
}

func RedirectMainPageHandler(site *config.Site) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/"+url.PathEscape(site.Homepage), http.StatusFound)
	}
}

func ViewPageHandler(t *Templates, pf PageFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := pf.Find(mux.Vars(r)["page"])
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		renderPage(t, w, r, p)
	}
}

func ViewRevisionHandler(t *Templates, rf RevisionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		p, err := rf.FindRevision(vars["page"], vars["revision"])
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		renderPage(t, w, r, p)
	}
}

func renderPage(t *Templates, w http.ResponseWriter, r *http.Request, p *page.Page) {
	content, err := p.RenderedBody()
	if err != nil {
		handlePageError(t, w, r, err)
		return
	}

	revision, err := p.Revision()
	if err != nil {
		handlePageError(t, w, r, err)
		return
	}

	latest, err := p.IsLatest()
	if err != nil {
		handlePageError(t, w, r, err)
		return
	}

	t.RenderPage(w, r, p.Name(), p.Title(), content, revision, latest)
}

// EditPageHandler shows the edit form for a page, which need not exist yet. A
// revision query parameter fills the form with the page as it was at that
// revision so it can be reverted.
func EditPageHandler(t *Templates, pc PageCreator, rf RevisionFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["page"]
		p, err := pc.FindOrCreate(name)
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		content := p.RawBody()
		var summary string
		if revision := r.URL.Query().Get("revision"); revision != "" {
			old, err := rf.FindRevision(name, revision)
			if err != nil {
				handlePageError(t, w, r, err)
				return
			}
			content = old.RawBody()

			id := revision
			if rev, err := old.Revision(); err == nil && rev != nil {
				id = rev.ShortID
			}
			summary = fmt.Sprintf("Revert to %s", id)
		}

		t.RenderEditPage(w, r, p.Name(), p.Title(), string(content), summary, p.IsNew())
	}
}

func SubmitPageHandler(t *Templates, pc PageCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := pc.FindOrCreate(mux.Vars(r)["page"])
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		body := strings.ReplaceAll(r.FormValue("body"), "\r\n", "\n")
		changed, err := p.SetBodyAs([]byte(body), page.DefaultAuthor, r.FormValue("summary"))
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		if changed {
			putSessionKey(w, r, sessionNoticeKey, fmt.Sprintf("Saved %s", p.Title()))
		} else {
			putSessionKey(w, r, sessionNoticeKey, fmt.Sprintf("No changes to %s", p.Title()))
		}
		http.Redirect(w, r, "/"+url.PathEscape(p.Name()), http.StatusSeeOther)
	}
}

func ListPagesHandler(t *Templates, pl PageLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pages, err := pl.FindAll()
		if err != nil {
			handlePageError(t, w, r, err)
			return
		}

		summaries := make([]PageSummary, len(pages))
		for i := range pages {
			summaries[i] = PageSummary{
				Name:  pages[i].Name(),
				Title: pages[i].Title(),
				Size:  int64(len(pages[i].RawBody())),
			}
		}

		t.RenderPageList(w, r, summaries)
	}
}
