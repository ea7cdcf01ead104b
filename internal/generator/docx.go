package generator

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fumiama/go-docx"

	"github.com/docflow/docflow/internal/content"
)

// Fragments this many points above the base font size render as emphasized
// (heading-like) text.
const emphasisDelta = 2.0

// DocxGenerator renders the content model into a Word package. Page order
// is preserved, and within a page the emission order is fixed: text, then
// images, then tables.
type DocxGenerator struct {
	Log *slog.Logger
}

// Generate builds the .docx binary. Per-element failures (one image, one
// table) degrade to inline placeholders; a failure to assemble or pack the
// container is the only fatal outcome.
func (g *DocxGenerator) Generate(doc *content.Document, opts Options) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = &GenerationError{Msg: "failed to build Word document", Err: fmt.Errorf("%v", rec)}
		}
	}()

	if g.Log == nil {
		g.Log = slog.Default()
	}
	opts = opts.withDefaults()
	w := docx.New().WithDefaultTheme()
	emitted := 0

	if opts.IncludeMetadata {
		emitted += g.addTitleSection(w, doc, opts)
	}

	for i, page := range doc.Pages {
		if i > 0 {
			w.AddParagraph().AddPageBreaks()
		}
		if opts.IncludeHeaders || opts.IncludePageNumbers {
			head := w.AddParagraph()
			g.styled(head.AddText(fmt.Sprintf("Page %d", page.PageNumber)), opts, opts.FontSize+2).Bold()
			emitted++
		}

		if opts.SimpleMode || !opts.PreserveFormatting {
			emitted += g.addPlainText(w, page.RawText, opts)
		} else {
			emitted += g.addFormattedText(w, page, opts)
		}

		if !opts.SimpleMode {
			for _, img := range page.Images {
				g.addImage(w, img, opts)
				emitted++
			}
			for _, tbl := range page.Tables {
				g.addTable(w, tbl, opts)
				emitted++
			}
		}

		if opts.IncludeFooters {
			foot := w.AddParagraph().Justification("center")
			g.styled(foot.AddText(fmt.Sprintf("- %d -", page.PageNumber)), opts, opts.FontSize-2).Color("808080")
		}
	}

	// Pathological input: nothing was emitted at all. Fall back to the raw
	// full text so the output is never empty.
	if emitted == 0 {
		g.addPlainText(w, doc.FullText, opts)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, &GenerationError{Msg: "failed to pack Word document", Err: err}
	}

	return &Result{
		Data:           buf.Bytes(),
		PageCount:      len(doc.Pages),
		WordCount:      doc.WordCount(),
		CharacterCount: utf8.RuneCountInString(doc.FullText),
		CreatedAt:      time.Now(),
	}, nil
}

// addTitleSection emits the leading metadata section and returns how many
// elements it produced. Best-effort: a failure here never blocks the body.
func (g *DocxGenerator) addTitleSection(w *docx.Docx, doc *content.Document, opts Options) (emitted int) {
	defer func() {
		if rec := recover(); rec != nil {
			g.Log.Warn("title section skipped", "error", fmt.Sprint(rec))
		}
	}()

	title := opts.Title
	if title == "" {
		title = doc.Metadata.Title
	}
	if title == "" {
		title = "Converted Document"
	}

	p := w.AddParagraph().Justification("center")
	g.styled(p.AddText(title), opts, opts.FontSize+6).Bold()
	emitted++

	lines := make([]string, 0, 4)
	if author := firstNonEmpty(opts.Author, doc.Metadata.Author); author != "" {
		lines = append(lines, "Author: "+author)
	}
	if subject := firstNonEmpty(opts.Subject, doc.Metadata.Subject); subject != "" {
		lines = append(lines, "Subject: "+subject)
	}
	if !doc.Metadata.CreationDate.IsZero() {
		lines = append(lines, "Originally created: "+doc.Metadata.CreationDate.Format("2 January 2006"))
	}
	lines = append(lines, fmt.Sprintf("Converted from a %d-page PDF on %s", doc.TotalPages, time.Now().Format("2 January 2006")))

	for _, line := range lines {
		p := w.AddParagraph().Justification("center")
		g.styled(p.AddText(line), opts, opts.FontSize-1).Color("595959")
		emitted++
	}

	w.AddParagraph().AddPageBreaks()
	return emitted
}

// addPlainText emits text as unstyled paragraphs, one per line.
func (g *DocxGenerator) addPlainText(w *docx.Docx, text string, opts Options) (emitted int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p := w.AddParagraph()
		g.styled(p.AddText(line), opts, opts.FontSize)
		emitted++
	}
	return emitted
}

// addFormattedText groups a page's fragments into visual lines and emits
// one paragraph per line, carrying bold/italic flags and treating
// larger-than-base font sizes as emphasis.
func (g *DocxGenerator) addFormattedText(w *docx.Docx, page content.PageContent, opts Options) (emitted int) {
	lines := groupLines(page.TextItems)
	base := float64(opts.FontSize)

	for _, line := range lines {
		p := w.AddParagraph()
		for _, frag := range line {
			size := opts.FontSize
			emphasized := frag.FontSize >= base+emphasisDelta
			if emphasized {
				size = int(frag.FontSize)
			}
			run := g.styled(p.AddText(frag.Text+" "), opts, size)
			if frag.Bold || emphasized {
				run.Bold()
			}
			if frag.Italic {
				run.Italic()
			}
		}
		emitted++
	}
	return emitted
}

// addImage embeds one normalized image, substituting an inline placeholder
// on any processing failure so the page structure survives.
func (g *DocxGenerator) addImage(w *docx.Docx, img content.ImageAsset, opts Options) {
	if len(img.Processed) == 0 {
		g.addPlaceholder(w, opts, fmt.Sprintf("[image %s could not be processed]", img.ID))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			g.addPlaceholder(w, opts, fmt.Sprintf("[image %s could not be embedded]", img.ID))
		}
	}()

	p := w.AddParagraph()
	if _, err := p.AddInlineDrawing(img.Processed); err != nil {
		g.Log.Warn("image embed failed", "image", img.ID, "error", err)
		g.addPlaceholder(w, opts, fmt.Sprintf("[image %s could not be embedded]", img.ID))
	}
}

// addTable renders a detected table as a bordered grid, padding short rows
// to the table's column count. On failure it substitutes a one-cell
// placeholder table rather than aborting the page.
func (g *DocxGenerator) addTable(w *docx.Docx, t content.DetectedTable, opts Options) {
	defer func() {
		if rec := recover(); rec != nil {
			g.Log.Warn("table build failed", "table", t.ID, "error", fmt.Sprint(rec))
			g.addPlaceholderTable(w, opts, t.ID)
		}
	}()

	tbl := w.AddTable(t.RowCount, t.ColumnCount, 0, nil)
	for ri, row := range t.Rows {
		if ri >= len(tbl.TableRows) {
			break
		}
		cells := tbl.TableRows[ri].TableCells
		for ci, cell := range row.Cells {
			if ci >= len(cells) {
				break
			}
			p := cells[ci].AddParagraph()
			g.styled(p.AddText(cell.Content), opts, opts.FontSize-1)
		}
		// Trailing cells of short rows stay empty: padding by construction.
	}
	w.AddParagraph() // spacing after the grid
}

func (g *DocxGenerator) addPlaceholder(w *docx.Docx, opts Options, msg string) {
	p := w.AddParagraph()
	g.styled(p.AddText(msg), opts, opts.FontSize).Italic().Color("999999")
}

func (g *DocxGenerator) addPlaceholderTable(w *docx.Docx, opts Options, id string) {
	defer func() {
		if rec := recover(); rec != nil {
			g.addPlaceholder(w, opts, fmt.Sprintf("[table %s could not be rendered]", id))
		}
	}()
	tbl := w.AddTable(1, 1, 0, nil)
	p := tbl.TableRows[0].TableCells[0].AddParagraph()
	g.styled(p.AddText(fmt.Sprintf("[table %s could not be rendered]", id)), opts, opts.FontSize).Italic().Color("999999")
}

// styled applies the common font family and a size in points to a run.
func (g *DocxGenerator) styled(run *docx.Run, opts Options, sizePts int) *docx.Run {
	if sizePts < 6 {
		sizePts = 6
	}
	// Word sizes are half-points.
	return run.Size(strconv.Itoa(sizePts * 2)).Font(opts.FontFamily, "", opts.FontFamily, "default")
}

// groupLines buckets ordered fragments into visual lines by Y proximity.
func groupLines(frags []content.TextFragment) [][]content.TextFragment {
	const tol = 2.0
	var lines [][]content.TextFragment
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		if n := len(lines); n > 0 {
			last := lines[n-1]
			if diff := last[0].Y - f.Y; diff >= -tol && diff <= tol {
				lines[n-1] = append(last, f)
				continue
			}
		}
		lines = append(lines, []content.TextFragment{f})
	}
	return lines
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
