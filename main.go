package main

import (
	"context"
	"embed"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/kouhin/envflag"
	"github.com/mdbot/gitwiki/config"
	"github.com/mdbot/gitwiki/markdown"
	"github.com/mdbot/gitwiki/page"
	"github.com/mdbot/gitwiki/storage"
	"github.com/yalue/merged_fs"
)

//go:embed static
var staticFS embed.FS

//go:embed templates
var templateFS embed.FS

var (
	workDir       = flag.String("workdir", "./data", "Working directory")
	listen        = flag.String("listen", ":8080", "Address to listen on")
	homepage      = flag.String("homepage", "Home", "Page to redirect to from /, used until one is saved in the site config")
	extension     = flag.String("extension", page.DefaultExtension, "File extension pages are stored with")
	ref           = flag.String("ref", page.DefaultRef, "Git reference whose tip is served")
	codeStyle     = flag.String("code-style", "monokai", "Style to use for code highlighting")
	configKey     = flag.String("config-key", "", "Hex encoded 32 byte key used to encrypt settings stored in the wiki")
	secureCookies = flag.Bool("secure-cookies", false, "Only send cookies over https")
)

var version = "dev"

func main() {
	err := envflag.Parse()
	if err != nil {
		log.Fatalf("Unable to parse flags: %s", err.Error())
	}

	staticFiles, err := GetEmbedOrOSFS("static", staticFS)
	if err != nil {
		log.Fatalf("Unable to get static folder: %s", err.Error())
	}

	templateFiles, err := GetEmbedOrOSFS("templates", templateFS)
	if err != nil {
		log.Fatalf("Unable to get templates folder: %s", err.Error())
	}

	backend, err := storage.NewGit(*workDir)
	if err != nil {
		log.Fatalf("Unable to create git backend: %s", err.Error())
	}

	configStore := config.NewStore(backend, *configKey)
	siteConfig, err := config.LoadSite(configStore, *homepage)
	if err != nil {
		log.Fatalf("Unable to load site config: %s", err.Error())
	}

	secrets, err := config.LoadSecrets(configStore)
	if err != nil {
		log.Fatalf("Unable to load secrets: %s", err.Error())
	}

	pages, err := page.NewRepository(
		backend,
		page.WithExtension(*extension),
		page.WithRef(*ref),
		page.WithRenderer(markdown.NewRenderer(*codeStyle)),
	)
	if err != nil {
		log.Fatalf("Unable to create page repository: %s", err.Error())
	}

	sessionStore := sessions.NewCookieStore(secrets.SessionKey)
	sessionStore.Options.Secure = *secureCookies

	templates := &Templates{
		fs:         templateFiles,
		siteConfig: siteConfig,
		version:    version,
	}

	router := NewRouter(templates, pages, siteConfig, staticFiles)
	router.Use(handlers.ProxyHeaders)
	router.Use(handlers.CompressHandler)
	router.Use(NewLoggingHandler(os.Stdout))
	router.Use(SessionHandler(sessionStore))
	router.Use(csrf.Protect(
		secrets.CsrfKey,
		csrf.Secure(*secureCookies),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("CSRF failure for %s: %v", r.URL.Path, csrf.FailureReason(r))
			templates.RenderForbidden(w, r)
		})),
	))

	log.Printf("Starting server on %s serving %s", *listen, *workDir)
	server := http.Server{
		Addr:    *listen,
		Handler: router,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Unable to listen: %s", err.Error())
		}
	}()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Unable to shutdown: %s", err.Error())
	}
	log.Print("Finishing server.")
}

// Wiki bundles everything the handlers need from the page store.
type Wiki interface {
	PageFinder
	PageCreator
	RevisionFinder
	PageLister
	PageWalker
	DiffProvider
}

func NewRouter(t *Templates, wiki Wiki, site *config.Site, staticFiles fs.FS) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.RenderNotFound(w, r)
	})

	router.PathPrefix("/static/").Handler(NotFoundHandler(t, http.StripPrefix("/static/", http.FileServer(http.FS(staticFiles)))))
	router.Handle("/", RedirectMainPageHandler(site)).Methods(http.MethodGet)
	router.Handle("/_list", ListPagesHandler(t, wiki)).Methods(http.MethodGet)
	router.Handle("/_search", SearchHandler(t, wiki)).Methods(http.MethodGet)
	router.Handle("/_site", ViewSiteConfigHandler(t)).Methods(http.MethodGet)
	router.Handle("/_site", UpdateSiteConfigHandler(site)).Methods(http.MethodPost)
	router.Handle("/_api/pages", ApiListHandler(wiki)).Methods(http.MethodGet)
	router.Handle("/h/{page}", PageHistoryHandler(t, wiki)).Methods(http.MethodGet)
	router.Handle("/h/{page}/{revision}", ViewRevisionHandler(t, wiki)).Methods(http.MethodGet)
	router.Handle("/d/{page}", DiffPageHandler(t, wiki)).Methods(http.MethodGet)
	router.Handle("/e/{page}", EditPageHandler(t, wiki, wiki)).Methods(http.MethodGet)
	router.Handle("/e/{page}", SubmitPageHandler(t, wiki)).Methods(http.MethodPost)
	router.Handle("/{page}", ViewPageHandler(t, wiki)).Methods(http.MethodGet)
	return router
}

// GetEmbedOrOSFS returns the embedded directory at path, with any files in a
// directory of the same name in the working directory taking precedence.
func GetEmbedOrOSFS(path string, embedFs embed.FS) (fs.FS, error) {
	embedded, err := fs.Sub(embedFs, path)
	if err != nil {
		return nil, err
	}

	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		return embedded, nil
	}

	log.Printf("Using %s from disk in preference to embedded files", path)
	return merged_fs.NewMergedFS(os.DirFS(path), embedded), nil
}
