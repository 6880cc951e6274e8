package koffetch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	minifyModule "github.com/tdewolff/minify/v2"
	minifyHTML "github.com/tdewolff/minify/v2/html"
)

// DocumentHandle is the opaque result of parsing an HTML document (spec
// §4.E). The default implementation hands back the root *html.Node of
// golang.org/x/net/html's parse tree. DocumentHandle is an alias of
// *html.Node, so an HTMLParser of the caller's own returns that type too.
type DocumentHandle = *html.Node

// HTMLParser is the collaborator interface the core consumes to turn a
// fetched HTML body into a DocumentHandle (spec §6). Implementations must
// wrap any recoverable parse failure into a *Error with Kind ==
// KindDecoding, and must be safe to call concurrently, since Follow calls it
// from multiple goroutines at once.
type HTMLParser interface {
	Parse(htmlSource string) (DocumentHandle, error)
}

// defaultHTMLParser parses HTML with golang.org/x/net/html, the parser the
// pack uses directly for this purpose (see
// _examples/other_examples/2cbe8d3c_krlanguet-Debian-Mirror-Selector). It
// takes owned input per call, so it's inherently safe for concurrent use.
type defaultHTMLParser struct {
	// Minify, when true, runs the document through tdewolff/minify's
	// HTML minifier before parsing — grounded on the teacher's
	// minifier.go, which dispatches the same minify.M singleton by MIME
	// type. Off by default: minifying before parsing is a lossy
	// normalization step callers must opt into.
	Minify bool

	m *minifyModule.M
}

// NewDefaultHTMLParser returns the default HTMLParser.
func NewDefaultHTMLParser() HTMLParser {
	return &defaultHTMLParser{}
}

// NewMinifyingHTMLParser returns a default HTMLParser that minifies incoming
// HTML before parsing it.
func NewMinifyingHTMLParser() HTMLParser {
	m := minifyModule.New()
	m.AddFunc("text/html", minifyHTML.Minify)
	return &defaultHTMLParser{Minify: true, m: m}
}

// Parse implements HTMLParser.
func (p *defaultHTMLParser) Parse(htmlSource string) (DocumentHandle, error) {
	src := htmlSource
	if p.Minify && p.m != nil {
		buf := &bytes.Buffer{}
		if err := p.m.Minify("text/html", buf, strings.NewReader(htmlSource)); err == nil {
			src = buf.String()
		}
	}

	node, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, decodingError("HTML parsing error", err)
	}
	return node, nil
}
