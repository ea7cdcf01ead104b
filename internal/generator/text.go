package generator

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/docflow/docflow/internal/content"
)

// TextGenerator emits a plain-text rendition: page banners, raw page text,
// and one-line stand-ins for images and tables.
type TextGenerator struct{}

func (g *TextGenerator) Generate(doc *content.Document, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	var b strings.Builder

	if opts.IncludeMetadata {
		title := firstNonEmpty(opts.Title, doc.Metadata.Title)
		if title != "" {
			b.WriteString(title + "\n")
			b.WriteString(strings.Repeat("=", utf8.RuneCountInString(title)) + "\n\n")
		}
		if author := firstNonEmpty(opts.Author, doc.Metadata.Author); author != "" {
			b.WriteString("Author: " + author + "\n\n")
		}
	}

	for i, page := range doc.Pages {
		if i > 0 {
			b.WriteString("\n")
		}
		if opts.IncludePageNumbers || opts.IncludeHeaders {
			banner := "--- Page " + strconv.Itoa(page.PageNumber) + " ---"
			b.WriteString(banner + "\n\n")
		}
		if text := strings.TrimSpace(page.RawText); text != "" {
			b.WriteString(text + "\n")
		}
		for _, img := range page.Images {
			b.WriteString("[image: " + img.ID + "]\n")
		}
		for _, tbl := range page.Tables {
			writeTextTable(&b, tbl)
		}
	}

	data := []byte(b.String())
	return &Result{
		Data:           data,
		PageCount:      len(doc.Pages),
		WordCount:      doc.WordCount(),
		CharacterCount: utf8.RuneCountInString(doc.FullText),
		CreatedAt:      time.Now(),
	}, nil
}

// writeTextTable renders a table as tab-separated rows.
func writeTextTable(b *strings.Builder, t content.DetectedTable) {
	b.WriteString("\n")
	for _, row := range t.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, strings.TrimSpace(c.Content))
		}
		b.WriteString(strings.Join(cells, "\t") + "\n")
	}
	b.WriteString("\n")
}
