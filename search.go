package main

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/mdbot/gitwiki/page"
)

type PageWalker interface {
	Walk(fn func(*page.Page) error) error
}

type SearchResult struct {
	Name       string
	Title      string
	FoundLines []string
}

// searchPages returns every page whose name or body contains pattern, ignoring
// case, along with the matching lines of its body.
func searchPages(pw PageWalker, pattern string) ([]SearchResult, error) {
	results := make([]SearchResult, 0)
	needle := strings.ToLower(pattern)
	err := pw.Walk(func(p *page.Page) error {
		result, ok, err := searchPage(p, needle)
		if err != nil {
			return err
		}
		if ok {
			results = append(results, result)
		}
		return nil
	})
	return results, err
}

func searchPage(p *page.Page, needle string) (SearchResult, bool, error) {
	result := SearchResult{
		Name:  p.Name(),
		Title: p.Title(),
	}
	found := strings.Contains(strings.ToLower(p.Name()), needle)

	body := p.RawBody()
	scanner := bufio.NewScanner(bytes.NewReader(body))
	// A single line may be the whole body.
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), len(body)+1)
	for scanner.Scan() {
		if strings.Contains(strings.ToLower(scanner.Text()), needle) {
			found = true
			result.FoundLines = append(result.FoundLines, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return SearchResult{}, false, fmt.Errorf("searching %s: %w", p.Name(), err)
	}
	return result, found, nil
}
