package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// wikiLinkClass marks links produced from [[Target]] syntax. The LinkResolver
// replaces it with the existence class of the target page.
const wikiLinkClass = "wikilink"

type wikiLinkParser struct{}

func newWikiLinkParser() parser.InlineParser {
	return &wikiLinkParser{}
}

func (w *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (w *wikiLinkParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, segment := block.PeekLine()

	if len(line) < 2 || line[1] != '[' {
		return nil
	}

	endIndex := bytes.Index(line, []byte{']', ']'})
	if endIndex == -1 {
		return nil
	}

	pipeIndex := bytes.Index(line[:endIndex], []byte{'|'})

	var target []byte
	if pipeIndex == -1 {
		target = line[2:endIndex]
	} else {
		target = line[2:pipeIndex]
	}
	target = bytes.TrimSpace(target)
	if len(target) == 0 {
		return nil
	}

	block.Advance(endIndex + 2)

	link := ast.NewLink()
	link.Title = target
	link.Destination = append([]byte{'/'}, target...)
	link.SetAttributeString("class", []byte(wikiLinkClass))

	t := ast.NewText()
	if pipeIndex == -1 {
		t.Segment = text.NewSegment(segment.Start+2, segment.Start+endIndex)
	} else {
		t.Segment = text.NewSegment(segment.Start+pipeIndex+1, segment.Start+endIndex)
	}
	link.AppendChild(link, t)

	return link
}

type wikiLinkExtension struct{}

func newWikiLinks() goldmark.Extender {
	return &wikiLinkExtension{}
}

func (e *wikiLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(newWikiLinkParser(), 102),
	))
}
