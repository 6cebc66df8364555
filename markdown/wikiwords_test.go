package markdown

import (
	"errors"
	"strings"
	"testing"
)

type fakeChecker struct {
	pages map[string]bool
	calls map[string]int
	err   error
}

func newFakeChecker(pages ...string) *fakeChecker {
	f := &fakeChecker{pages: make(map[string]bool), calls: make(map[string]int)}
	for _, p := range pages {
		f.pages[p] = true
	}
	return f
}

func (f *fakeChecker) ExistsClass(name string) (string, error) {
	f.calls[name]++
	if f.err != nil {
		return "", f.err
	}
	if f.pages[name] {
		return "exists", nil
	}
	return "unknown", nil
}

func TestLinkResolver_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"existing and unknown pages",
			"Visit GetSinatra and FooBar today",
			`Visit <a class="exists" href="/GetSinatra">Get Sinatra</a> and <a class="unknown" href="/FooBar">Foo Bar</a> today`,
		},
		{
			"inside paragraph",
			"<p>See GetSinatra.</p>",
			`<p>See <a class="exists" href="/GetSinatra">Get Sinatra</a>.</p>`,
		},
		{
			"no wiki words",
			"<p>Nothing to see &amp; nothing to link</p>",
			"<p>Nothing to see &amp; nothing to link</p>",
		},
		{
			"attributes untouched",
			`<img alt="GetSinatra" src="/img/FooBar.png">`,
			`<img alt="GetSinatra" src="/img/FooBar.png">`,
		},
		{
			"existing anchors untouched",
			`<a href="https://example.com">GetSinatra</a> FooBar`,
			`<a href="https://example.com">GetSinatra</a> <a class="unknown" href="/FooBar">Foo Bar</a>`,
		},
		{
			"code untouched",
			`<pre><code>type FooBar struct{}</code></pre><code>GetSinatra</code>`,
			`<pre><code>type FooBar struct{}</code></pre><code>GetSinatra</code>`,
		},
		{
			"single capital word",
			"Sinatra HTML getSinatra",
			"Sinatra HTML getSinatra",
		},
		{
			"entities are preserved",
			"Tom &amp; GetSinatra",
			`Tom &amp; <a class="exists" href="/GetSinatra">Get Sinatra</a>`,
		},
		{
			"wikilink class resolved",
			`<a href="/GetSinatra" class="wikilink">the sinatra page</a>`,
			`<a href="/GetSinatra" class="exists">the sinatra page</a>`,
		},
		{
			"escaped wikilink target",
			`<a href="/Missing%20Page" class="wikilink">Missing</a>`,
			`<a href="/Missing%20Page" class="unknown">Missing</a>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLinkResolver(newFakeChecker("GetSinatra")).Resolve(tt.input)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkResolver_ChecksEachNameOnce(t *testing.T) {
	checker := newFakeChecker("GetSinatra")
	_, err := NewLinkResolver(checker).Resolve("<p>FooBar FooBar</p><p>FooBar GetSinatra</p>")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if checker.calls["FooBar"] != 1 || checker.calls["GetSinatra"] != 1 {
		t.Errorf("Resolve() made calls %v, want one per name", checker.calls)
	}
}

func TestLinkResolver_PropagatesCheckerErrors(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("disk on fire")

	if _, err := NewLinkResolver(checker).Resolve("FooBar"); !errors.Is(err, checker.err) {
		t.Errorf("Resolve() error = %v, want %v", err, checker.err)
	}

	if _, err := NewLinkResolver(checker).Resolve("nothing here"); err != nil {
		t.Errorf("Resolve() without wiki words error = %v, want nil", err)
	}
}

func TestTitleize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GetSinatra", "Get Sinatra"},
		{"FooBarBaz", "Foo Bar Baz"},
		{"ABCFoo", "ABC Foo"},
		{"GetHTTPServer", "Get HTTP Server"},
		{"Version2Release", "Version2 Release"},
		{"Home", "Home"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Titleize(tt.in); got != tt.want {
				t.Errorf("Titleize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWikiWord(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"GetSinatra", true},
		{"FooBar2", true},
		{"Home", false},
		{"getSinatra", false},
		{"Get Sinatra", false},
		{"ABCFoo", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsWikiWord(tt.in); got != tt.want {
				t.Errorf("IsWikiWord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderThenResolve(t *testing.T) {
	r := NewRenderer("monokai")

	rendered, err := r.Render([]byte("# Welcome\n\nRead GetSinatra or [[FooBar|the foo page]].\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(rendered, "<script>") {
		t.Errorf("Render() kept script tag: %s", rendered)
	}
	if !strings.Contains(rendered, `class="wikilink"`) || !strings.Contains(rendered, `href="/FooBar"`) {
		t.Errorf("Render() did not produce wiki link: %s", rendered)
	}

	resolved, err := NewLinkResolver(newFakeChecker("GetSinatra")).Resolve(rendered)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	for _, want := range []string{
		`<a class="exists" href="/GetSinatra">Get Sinatra</a>`,
		`class="unknown"`,
		`the foo page</a>`,
	} {
		if !strings.Contains(resolved, want) {
			t.Errorf("Resolve() output missing %q: %s", want, resolved)
		}
	}
	if strings.Contains(resolved, "wikilink") {
		t.Errorf("Resolve() left wikilink marker: %s", resolved)
	}
}
