package generator

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/docflow/docflow/internal/content"
)

// renderMarkdown produces a GFM rendition of the document. It is the
// intermediate form the HTML generator feeds through goldmark; tables become
// pipe tables and images become data URIs so the output is self-contained.
func renderMarkdown(doc *content.Document, opts Options) string {
	var b strings.Builder

	if opts.IncludeMetadata {
		title := firstNonEmpty(opts.Title, doc.Metadata.Title)
		if title != "" {
			b.WriteString("# " + escapeMarkdown(title) + "\n\n")
		}
		if author := firstNonEmpty(opts.Author, doc.Metadata.Author); author != "" {
			b.WriteString("*" + escapeMarkdown(author) + "*\n\n")
		}
	}

	for i, page := range doc.Pages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		if opts.IncludePageNumbers || opts.IncludeHeaders {
			fmt.Fprintf(&b, "## Page %d\n\n", page.PageNumber)
		}

		for _, line := range strings.Split(page.RawText, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			b.WriteString(escapeMarkdown(line) + "\n\n")
		}

		for _, img := range page.Images {
			writeMarkdownImage(&b, img)
		}
		for _, tbl := range page.Tables {
			writeMarkdownTable(&b, tbl)
		}
	}
	return b.String()
}

func writeMarkdownImage(b *strings.Builder, img content.ImageAsset) {
	if len(img.Processed) == 0 {
		b.WriteString("*[image unavailable]*\n\n")
		return
	}
	mime := "image/png"
	if img.ProcessedFormat == "jpeg" {
		mime = "image/jpeg"
	}
	fmt.Fprintf(b, "![%s](data:%s;base64,%s)\n\n",
		img.ID, mime, base64.StdEncoding.EncodeToString(img.Processed))
}

// writeMarkdownTable emits a GFM pipe table padded to the detected column
// count. The first row doubles as the header since positional detection
// carries no header semantics.
func writeMarkdownTable(b *strings.Builder, t content.DetectedTable) {
	if t.ColumnCount < 1 || len(t.Rows) == 0 {
		return
	}
	for ri, row := range t.Rows {
		cells := make([]string, t.ColumnCount)
		for ci := range cells {
			if ci < len(row.Cells) {
				cells[ci] = escapePipes(strings.TrimSpace(row.Cells[ci].Content))
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if ri == 0 {
			sep := make([]string, t.ColumnCount)
			for ci := range sep {
				sep[ci] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	b.WriteString("\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"*", "\\*",
	"_", "\\_",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"#", "\\#",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
