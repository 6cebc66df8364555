package markdown

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	wikiWord = regexp.MustCompile(`\b[A-Z][a-z]+[A-Z][A-Za-z0-9]+\b`)

	acronymBoundary = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// Elements whose text is never scanned for WikiWords.
var skippedElements = map[string]bool{
	"a":      true,
	"code":   true,
	"pre":    true,
	"script": true,
	"style":  true,
}

// ClassChecker reports the CSS class a link to the named page should carry,
// "exists" or "unknown".
type ClassChecker interface {
	ExistsClass(name string) (string, error)
}

// LinkResolver turns WikiWords in rendered HTML into links to the pages they
// name, and fills in the existence class of links made with [[Target]] syntax.
type LinkResolver struct {
	checker ClassChecker
}

func NewLinkResolver(checker ClassChecker) *LinkResolver {
	return &LinkResolver{checker: checker}
}

// Titleize splits a WikiWord into space separated words: GetSinatra becomes
// "Get Sinatra" and ABCFoo becomes "ABC Foo".
func Titleize(name string) string {
	name = acronymBoundary.ReplaceAllString(name, "${1} ${2}")
	return wordBoundary.ReplaceAllString(name, "${1} ${2}")
}

// IsWikiWord reports whether the whole of name is a single WikiWord.
func IsWikiWord(name string) bool {
	loc := wikiWord.FindStringIndex(name)
	return loc != nil && loc[0] == 0 && loc[1] == len(name)
}

// Resolve rewrites content, which must be HTML. Only text is scanned: attribute
// values are left alone, as is anything inside a, code, pre, script and style
// elements. Each distinct page name is checked once per call.
func (l *LinkResolver) Resolve(content string) (string, error) {
	classes := make(map[string]string)
	classFor := func(name string) (string, error) {
		if class, ok := classes[name]; ok {
			return class, nil
		}
		class, err := l.checker.ExistsClass(name)
		if err != nil {
			return "", fmt.Errorf("checking page %s: %w", name, err)
		}
		classes[name] = class
		return class, nil
	}

	z := html.NewTokenizer(strings.NewReader(content))
	out := &strings.Builder{}
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out.String(), nil
			}
			return "", z.Err()

		case html.TextToken:
			raw := z.Raw()
			if skipDepth > 0 || !wikiWord.Match(raw) {
				out.Write(raw)
				continue
			}
			if err := l.linkify(out, string(z.Text()), classFor); err != nil {
				return "", err
			}

		case html.StartTagToken:
			raw := string(z.Raw())
			name, hasAttr := z.TagName()
			tag := string(name)
			if skippedElements[tag] {
				skipDepth++
			}
			if tag == "a" && hasAttr {
				rewritten, err := resolveWikiLink(z, classFor)
				if err != nil {
					return "", err
				}
				if rewritten != "" {
					out.WriteString(rewritten)
					continue
				}
			}
			out.WriteString(raw)

		case html.EndTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if skippedElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
			out.WriteString(raw)

		default:
			out.Write(z.Raw())
		}
	}
}

func (l *LinkResolver) linkify(out *strings.Builder, text string, classFor func(string) (string, error)) error {
	last := 0
	for _, loc := range wikiWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		class, err := classFor(word)
		if err != nil {
			return err
		}
		out.WriteString(html.EscapeString(text[last:loc[0]]))
		out.WriteString(PageLink(word, class))
		last = loc[1]
	}
	out.WriteString(html.EscapeString(text[last:]))
	return nil
}

// PageLink returns the anchor for a link to the named page.
func PageLink(name, class string) string {
	return fmt.Sprintf(`<a class="%s" href="/%s">%s</a>`,
		html.EscapeString(class),
		html.EscapeString(url.PathEscape(name)),
		html.EscapeString(Titleize(name)),
	)
}

// resolveWikiLink returns the anchor tag the tokenizer is positioned on with its
// wikilink class replaced by the existence class of the target. It returns an
// empty string if the tag is not a wikilink.
func resolveWikiLink(z *html.Tokenizer, classFor func(string) (string, error)) (string, error) {
	var attrs []html.Attribute
	classIndex, href := -1, ""
	for {
		key, val, more := z.TagAttr()
		attr := html.Attribute{Key: string(key), Val: string(val)}
		switch attr.Key {
		case "class":
			if attr.Val == wikiLinkClass {
				classIndex = len(attrs)
			}
		case "href":
			href = attr.Val
		}
		attrs = append(attrs, attr)
		if !more {
			break
		}
	}

	if classIndex == -1 || !strings.HasPrefix(href, "/") {
		return "", nil
	}

	target, err := url.PathUnescape(strings.TrimPrefix(href, "/"))
	if err != nil {
		return "", nil
	}

	class, err := classFor(target)
	if err != nil {
		return "", err
	}
	attrs[classIndex].Val = class

	token := html.Token{Type: html.StartTagToken, Data: "a", Attr: attrs}
	return token.String(), nil
}
