package page

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mdbot/gitwiki/markdown"
	"github.com/mdbot/gitwiki/storage"
)

// Page is a view of one wiki page bound to a single blob. It does not follow
// the tip: once loaded, its body only changes through its own SetBody.
type Page struct {
	repo *Repository
	blob *storage.Blob
}

func (p *Page) Name() string {
	return strings.TrimSuffix(p.blob.Path, p.repo.extension)
}

func (p *Page) String() string {
	return p.Name()
}

// Title returns the page name split into words.
func (p *Page) Title() string {
	return markdown.Titleize(p.Name())
}

// IsNew reports whether the page has never been committed.
func (p *Page) IsNew() bool {
	return p.blob.Absent()
}

// RawBody returns the page content. New pages have an empty body.
func (p *Page) RawBody() []byte {
	if p.blob.Absent() || p.blob.Content == nil {
		return []byte{}
	}
	return p.blob.Content
}

// BlobHash returns the id of the bound blob, or an empty string for new pages.
func (p *Page) BlobHash() string {
	return p.blob.Hash
}

// RenderedBody renders the body as markdown and links any WikiWords in it. The
// result is not cached.
func (p *Page) RenderedBody() (string, error) {
	rendered, err := p.repo.renderer.Render(p.RawBody())
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", p.Name(), err)
	}
	return p.repo.resolver.Resolve(rendered)
}

// SetBody commits content as the new body of the page, attributed to
// DefaultAuthor. See SetBodyAs.
func (p *Page) SetBody(content []byte) (bool, error) {
	return p.SetBodyAs(content, DefaultAuthor, "")
}

// SetBodyAs commits content as the new body of the page and binds the page to
// the committed blob. The commit message is "Created <name>" for new pages and
// "Edited <name>" otherwise, followed by summary if one is given. Nothing is
// committed, and false is returned, if content equals the current body.
func (p *Page) SetBodyAs(content []byte, author storage.Author, summary string) (bool, error) {
	if bytes.Equal(content, p.RawBody()) {
		return false, nil
	}

	message := p.commitMessage()
	if summary = strings.TrimSpace(summary); summary != "" {
		message = message + "\n\n" + summary
	}
	if author.Name == "" {
		author = DefaultAuthor
	}

	r := p.repo
	r.writeMutex.Lock()
	defer r.writeMutex.Unlock()

	if err := r.store.Stage(p.blob.Path, content); err != nil {
		return false, fmt.Errorf("staging %s: %w", p.Name(), err)
	}

	id, err := r.store.Commit(message, author)
	if err != nil {
		return false, fmt.Errorf("committing %s: %w", p.Name(), err)
	}

	blob, err := r.store.Blob(p.blob.Path, id)
	if err != nil {
		return false, fmt.Errorf("reading back %s at %s: %w", p.Name(), id, err)
	}
	p.blob = blob

	r.logger.Printf("Committed %s as %s by %s", p.Name(), id, author.Name)
	return true, nil
}

func (p *Page) commitMessage() string {
	if p.IsNew() {
		return fmt.Sprintf("Created %s", p.Name())
	}
	return fmt.Sprintf("Edited %s", p.Name())
}

// History returns the revisions that touched the page on the tip's branch,
// newest first. New pages have no history.
func (p *Page) History() ([]storage.Revision, error) {
	if p.IsNew() {
		return []storage.Revision{}, nil
	}

	history, err := p.repo.store.Log(p.repo.ref, p.blob.Path)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", p.Name(), err)
	}
	return history, nil
}

// IsLatest reports whether the page is bound to the blob of the newest revision
// of its path.
func (p *Page) IsLatest() (bool, error) {
	if p.IsNew() {
		return false, nil
	}

	history, err := p.History()
	if err != nil {
		return false, err
	}
	return len(history) > 0 && history[0].BlobHash == p.blob.Hash, nil
}

// Revision returns the revision that last changed the page as of the commit
// it was loaded from. New pages return nil.
func (p *Page) Revision() (*storage.Revision, error) {
	if p.IsNew() {
		return nil, nil
	}

	history, err := p.repo.store.Log(p.blob.Revision, p.blob.Path)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", p.Name(), err)
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}
