package markdown

import (
	"bytes"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown page bodies into sanitised HTML.
type Renderer struct {
	gm     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer(codeStyle string) *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("style").OnElements("pre", "span")

	return &Renderer{
		policy: policy,
		gm: goldmark.New(
			goldmark.WithExtensions(
				mathjax.MathJax,
				extension.GFM,
				highlighting.NewHighlighting(highlighting.WithStyle(codeStyle)),
				newWikiLinks(),
			),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Inline HTML is passed through and then cleaned by the policy.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (r *Renderer) Render(markdown []byte) (string, error) {
	b := &bytes.Buffer{}
	if err := r.gm.Convert(markdown, b); err != nil {
		return "", err
	}
	return r.policy.Sanitize(b.String()), nil
}
