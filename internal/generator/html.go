package generator

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/docflow/docflow/internal/content"
)

// HTMLGenerator renders the document to a standalone HTML page by way of
// the markdown rendition, converted with goldmark's GFM extensions so pipe
// tables survive.
type HTMLGenerator struct {
	Log *slog.Logger
}

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: %s, sans-serif; max-width: 52rem; margin: 2rem auto; padding: 0 1rem; line-height: %.2f; }
table { border-collapse: collapse; margin: 1rem 0; }
td, th { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }
img { max-width: 100%%; }
hr { margin: 2rem 0; }
</style>
</head>
<body>
%s</body>
</html>
`

func (g *HTMLGenerator) Generate(doc *content.Document, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(renderMarkdown(doc, opts)), &body); err != nil {
		return nil, &GenerationError{Msg: "failed to render HTML", Err: err}
	}

	title := firstNonEmpty(opts.Title, doc.Metadata.Title, "Converted Document")
	page := fmt.Sprintf(htmlShell, html.EscapeString(title), opts.FontFamily, opts.LineSpacing, body.String())

	return &Result{
		Data:           []byte(page),
		PageCount:      len(doc.Pages),
		WordCount:      doc.WordCount(),
		CharacterCount: utf8.RuneCountInString(doc.FullText),
		CreatedAt:      time.Now(),
	}, nil
}
