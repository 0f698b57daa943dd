package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/tdewolff/minify/v2"
	minhtml "github.com/tdewolff/minify/v2/html"
	"golang.org/x/net/html"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns the shared HTML minifier.
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &minhtml.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// RenderOption configures Render.
type RenderOption func(*renderConfig)

type renderConfig struct {
	minify   bool
	bodyOnly bool
}

// Minified strips insignificant whitespace and the anchor comments.
func Minified() RenderOption {
	return func(c *renderConfig) { c.minify = true }
}

// BodyOnly renders the children of <body> instead of the whole document.
func BodyOnly() RenderOption {
	return func(c *renderConfig) { c.bodyOnly = true }
}

// Render writes the current tree to w.
func (d *Document) Render(w io.Writer, opts ...RenderOption) error {
	var cfg renderConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var buf bytes.Buffer
	if cfg.bodyOnly {
		body := d.Body()
		if body == nil {
			return fmt.Errorf("document has no body")
		}
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return fmt.Errorf("failed to render node: %w", err)
			}
		}
	} else if err := html.Render(&buf, d.root); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}

	if !cfg.minify {
		_, err := w.Write(buf.Bytes())
		return err
	}
	if err := getMinifier().Minify("text/html", w, &buf); err != nil {
		return fmt.Errorf("failed to minify: %w", err)
	}
	return nil
}

// String renders the whole document, unminified.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
