package parser

import (
	"fmt"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/docflow/docflow/internal/content"
)

const (
	// lineTolerance groups glyphs whose baselines are within this many
	// points into the same visual line.
	lineTolerance = 2.0
	// wordGapFactor: a horizontal gap above this fraction of the font size
	// is a word boundary within a fragment.
	wordGapFactor = 0.3
	// fragGapFactor: a gap above this fraction of the font size ends the
	// fragment entirely (column gutters, table cells).
	fragGapFactor = 1.5
)

// extractPage pulls text fragments, raw text, and detected tables from one
// page. ledongthuc/pdf can panic on malformed page content; the recover
// turns that into a per-page error so the rest of the document survives.
func (p *Parser) extractPage(r *pdflib.Reader, num int) (pc content.PageContent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page content panic: %v", rec)
		}
	}()

	page := r.Page(num)
	pc = content.PageContent{PageNumber: num}
	if page.V.IsNull() {
		return pc, nil
	}

	pc.Width, pc.Height = pageSize(page)
	frags := buildFragments(page.Content().Text)
	pc.TextItems = frags
	pc.RawText = rawText(frags)
	pc.Tables = detectTables(num, frags)
	return pc, nil
}

// pageSize resolves the page MediaBox, walking up the page tree since the
// entry is inheritable. Falls back to US Letter.
func pageSize(page pdflib.Page) (w, h float64) {
	v := page.V
	for i := 0; i < 16 && !v.IsNull(); i++ {
		if mb := v.Key("MediaBox"); !mb.IsNull() && mb.Len() == 4 {
			x0 := mb.Index(0).Float64()
			y0 := mb.Index(1).Float64()
			x1 := mb.Index(2).Float64()
			y1 := mb.Index(3).Float64()
			return x1 - x0, y1 - y0
		}
		v = v.Key("Parent")
	}
	return 612, 792
}

// buildFragments groups the per-glyph text items the library produces into
// positioned runs: same visual line, same font and size, with horizontal
// gaps below the fragment threshold. Gaps between the word and fragment
// thresholds become spaces inside the run.
func buildFragments(texts []pdflib.Text) []content.TextFragment {
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdflib.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var frags []content.TextFragment
	var cur *content.TextFragment
	var lastEnd float64

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			frags = append(frags, *cur)
		}
		cur = nil
	}

	for _, t := range sorted {
		size := t.FontSize
		if size <= 0 {
			size = 10
		}

		sameLine := cur != nil && absf(t.Y-cur.Y) <= lineTolerance
		sameStyle := cur != nil && t.Font == cur.FontName && t.FontSize == cur.FontSize
		gap := t.X - lastEnd

		switch {
		case cur == nil, !sameLine, !sameStyle, gap > fragGapFactor*size:
			flush()
			cur = &content.TextFragment{
				Text:      t.S,
				X:         t.X,
				Y:         t.Y,
				Height:    size,
				FontName:  t.Font,
				FontSize:  t.FontSize,
				Bold:      looksBold(t.Font),
				Italic:    looksItalic(t.Font),
				Direction: "ltr",
			}
		case gap > wordGapFactor*size:
			cur.Text += " " + t.S
		default:
			cur.Text += t.S
		}
		lastEnd = t.X + t.W
		if cur != nil {
			cur.Width = lastEnd - cur.X
		}
	}
	flush()
	return frags
}

// rawText joins fragments in their already-sorted top-to-bottom,
// left-to-right order with normalized whitespace. This is a display
// approximation; multi-column layouts will interleave.
func rawText(frags []content.TextFragment) string {
	if len(frags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Text)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Bold/italic detection from font name substrings, the usual convention in
// embedded font naming (e.g. "ABCDEF+Helvetica-BoldOblique").
func looksBold(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

func looksItalic(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "italic") || strings.Contains(f, "oblique")
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
