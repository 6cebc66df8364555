package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/mdbot/gitwiki/config"
	"github.com/mdbot/gitwiki/page"
)

func ViewSiteConfigHandler(t *Templates) http.HandlerFunc {
	return t.RenderViewSiteConfig
}

type SiteUpdater interface {
	Update(site *config.Site, responsible string) error
}

func UpdateSiteConfigHandler(updater SiteUpdater) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if err := updater.Update(&config.Site{
			Name:     strings.TrimSpace(request.FormValue("name")),
			Homepage: strings.TrimSpace(request.FormValue("homepage")),
		}, page.DefaultAuthor.Name); err != nil {
			log.Printf("Manage site: unable to save new config: %v", err)
			putSessionKey(writer, request, sessionErrorKey, "Unable to save site config")
		} else {
			putSessionKey(writer, request, sessionNoticeKey, "Site config updated")
		}

		http.Redirect(writer, request, "/_site", http.StatusSeeOther)
	}
}
