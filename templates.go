package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/csrf"
	"github.com/mdbot/gitwiki/config"
	"github.com/mdbot/gitwiki/storage"
	"github.com/sergi/go-diff/diffmatchpatch"
)

type Templates struct {
	fs         fs.FS
	siteConfig *config.Site
	version    string
}

type SiteArgs struct {
	SiteName    string
	Homepage    string
	WikiVersion string
}

type CommonArgs struct {
	Site         *SiteArgs
	RequestedUrl string
	PageTitle    string
	PageName     string
	IsWikiPage   bool
	IsError      bool
	Error        string
	Notice       string
	CsrfField    template.HTML
}

type ViewPageArgs struct {
	Common      CommonArgs
	PageContent template.HTML
	Revision    *storage.Revision
	IsLatest    bool
}

func (t *Templates) RenderPage(w http.ResponseWriter, r *http.Request, name, title string, content string, revision *storage.Revision, latest bool) {
	t.render("index.gohtml", http.StatusOK, w, &ViewPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle:  title,
			PageName:   name,
			IsWikiPage: true,
		}),
		PageContent: template.HTML(content),
		Revision:    revision,
		IsLatest:    latest,
	})
}

type EditPageArgs struct {
	Common      CommonArgs
	PageContent string
	Summary     string
	IsNew       bool
}

func (t *Templates) RenderEditPage(w http.ResponseWriter, r *http.Request, name, title, content, summary string, isNew bool) {
	t.render("edit.gohtml", http.StatusOK, w, &EditPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle: title,
			PageName:  name,
		}),
		PageContent: content,
		Summary:     summary,
		IsNew:       isNew,
	})
}

type PageSummary struct {
	Name  string
	Title string
	Size  int64
}

type ListPagesArgs struct {
	Common CommonArgs
	Pages  []PageSummary
}

func (t *Templates) RenderPageList(w http.ResponseWriter, r *http.Request, pages []PageSummary) {
	t.render("list.gohtml", http.StatusOK, w, &ListPagesArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle: "All pages",
		}),
		Pages: pages,
	})
}

type HistoryPageArgs struct {
	Common  CommonArgs
	History []*HistoryEntry
	Next    string
}

type HistoryEntry struct {
	Revision storage.Revision
	Previous string
	Latest   bool
}

func (t *Templates) RenderHistory(w http.ResponseWriter, r *http.Request, name, title string, entries []*HistoryEntry, next string) {
	t.render("history.gohtml", http.StatusOK, w, &HistoryPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle:  title,
			PageName:   name,
			IsWikiPage: true,
		}),
		History: entries,
		Next:    next,
	})
}

type SearchPageArgs struct {
	Common  CommonArgs
	Results []SearchResult
	Pattern string
}

func (t *Templates) RenderSearch(w http.ResponseWriter, r *http.Request, pattern string, results []SearchResult) {
	t.render("search.gohtml", http.StatusOK, w, &SearchPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle: "Search",
		}),
		Results: results,
		Pattern: pattern,
	})
}

type DiffPageArgs struct {
	Common CommonArgs
	From   string
	To     string
	Diff   []diffmatchpatch.Diff
}

func (t *Templates) RenderDiff(w http.ResponseWriter, r *http.Request, name, title, from, to string, diff []diffmatchpatch.Diff) {
	t.render("diff.gohtml", http.StatusOK, w, &DiffPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle:  title,
			PageName:   name,
			IsWikiPage: true,
		}),
		From: from,
		To:   to,
		Diff: diff,
	})
}

type ViewSiteArgs struct {
	Common CommonArgs
}

func (t *Templates) RenderViewSiteConfig(w http.ResponseWriter, r *http.Request) {
	t.render("siteconfig.gohtml", http.StatusOK, w, &ViewSiteArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle: "Manage site",
		}),
	})
}

type ErrorPageArgs struct {
	Common CommonArgs
}

func (t *Templates) RenderNotFound(w http.ResponseWriter, r *http.Request) {
	t.renderError(w, r, http.StatusNotFound, "Page not found")
}

func (t *Templates) RenderForbidden(w http.ResponseWriter, r *http.Request) {
	t.renderError(w, r, http.StatusForbidden, "Forbidden")
}

func (t *Templates) RenderBadRequest(w http.ResponseWriter, r *http.Request) {
	t.renderError(w, r, http.StatusBadRequest, "Bad request")
}

func (t *Templates) RenderInternalError(w http.ResponseWriter, r *http.Request) {
	t.renderError(w, r, http.StatusInternalServerError, "Server error")
}

func (t *Templates) renderError(w http.ResponseWriter, r *http.Request, status int, title string) {
	// The built in error handler sets text/plain, so make sure we're not passing that on
	w.Header().Del("Content-Type")
	name := "error.gohtml"
	if status == http.StatusNotFound {
		name = "404.gohtml"
	}
	t.render(name, status, w, &ErrorPageArgs{
		Common: t.populateArgs(w, r, CommonArgs{
			PageTitle: title,
			IsError:   true,
		}),
	})
}

func (t *Templates) render(name string, statusCode int, w http.ResponseWriter, data interface{}) {
	tpl := template.New(name)
	tpl.Funcs(map[string]interface{}{
		"bytes":     formatBytes,
		"ago":       ago,
		"diffClass": diffClass,
		"pagePath":  url.PathEscape,
	})

	buf := &bytes.Buffer{}
	if _, err := tpl.ParseFS(t.fs, name, "partials/*.gohtml"); err != nil {
		log.Printf("Error parsing template %s: %v\n", name, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := tpl.Execute(buf, data); err != nil {
		log.Printf("Error rendering template %s: %v\n", name, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = buf.WriteTo(w)
}

func (t *Templates) populateArgs(w http.ResponseWriter, r *http.Request, args CommonArgs) CommonArgs {
	args.Site = &SiteArgs{
		SiteName:    t.siteConfig.Name,
		Homepage:    t.siteConfig.Homepage,
		WikiVersion: t.version,
	}

	if args.Error = getErrorForRequest(r); args.Error != "" {
		clearSessionKey(w, r, sessionErrorKey)
	}

	if args.Notice = getNoticeForRequest(r); args.Notice != "" {
		clearSessionKey(w, r, sessionNoticeKey)
	}

	args.CsrfField = csrf.TemplateField(r)
	args.RequestedUrl = r.URL.String()
	return args
}

func ago(then time.Time) string {
	return distanceOfTime(then, time.Now())
}

func formatBytes(size int64) string {
	const multiple = 1024
	if size < multiple {
		return fmt.Sprintf("%d B", size)
	}

	denominator, power := int64(multiple), 0
	for n := size / multiple; n >= multiple; n /= multiple {
		denominator *= multiple
		power++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(denominator), "KMGTPE"[power])
}

// distanceOfTime describes the gap between two times in rough words, e.g.
// "about 3 hours" or "12 days".
func distanceOfTime(from, to time.Time) string {
	minutes := int(math.Round(math.Abs(to.Sub(from).Minutes())))

	switch {
	case minutes == 0:
		return "less than a minute"
	case minutes == 1:
		return "1 minute"
	case minutes < 45:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		return "about 1 hour"
	case minutes < 1440:
		return fmt.Sprintf("about %d hours", int(math.Round(float64(minutes)/60)))
	case minutes < 2880:
		return "1 day"
	case minutes < 43200:
		return fmt.Sprintf("%d days", minutes/1440)
	case minutes < 86400:
		return "about 1 month"
	case minutes < 525600:
		return fmt.Sprintf("%d months", minutes/43200)
	case minutes < 1051200:
		return "about 1 year"
	default:
		return fmt.Sprintf("over %d years", minutes/525600)
	}
}

func diffClass(op diffmatchpatch.Operation) string {
	switch op {
	case diffmatchpatch.DiffInsert:
		return "diff-insert"
	case diffmatchpatch.DiffDelete:
		return "diff-delete"
	default:
		return "diff-equal"
	}
}
