// Package content defines the intermediate representation extracted from a
// source PDF: pages of positioned text fragments, embedded images, and
// heuristically detected tables. It is independent of any output format.
package content

import (
	"strings"
	"time"
)

// TextFragment is a single positioned run of text, the atomic unit of
// extracted content. Coordinates are in PDF page space (origin bottom-left,
// points).
type TextFragment struct {
	Text      string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	FontName  string
	FontSize  float64
	Bold      bool
	Italic    bool
	Direction string
}

// ImageAsset is a raster image embedded in a page. Data holds the bytes as
// extracted from the source; Processed holds the normalized blob once the
// imaging stage has run. Assets with non-positive dimensions are discarded
// at extraction time and never enter the model.
type ImageAsset struct {
	ID         string
	PageNumber int
	X          float64
	Y          float64
	Width      int
	Height     int
	Format     string // source encoding tag: "png", "jpeg", ...
	Data       []byte

	Processed       []byte
	ProcessedFormat string // "png" or "jpeg" after normalization
}

// TableCell is one cell of a detected table.
type TableCell struct {
	Content string
	Row     int
	Col     int
	ColSpan int
	X       float64
	Y       float64
	Width   float64
	Height  float64
}

// TableRow is an ordered run of cells. Rows may hold fewer cells than the
// table's column count; renderers pad with empty trailing cells.
type TableRow struct {
	Cells []TableCell
}

// DetectedTable is the output of the positional table heuristic.
// ColumnCount equals the maximum cell count across all rows.
type DetectedTable struct {
	ID          string
	PageNumber  int
	X           float64
	Y           float64
	Width       float64
	Height      float64
	RowCount    int
	ColumnCount int
	Rows        []TableRow
}

// Metadata holds document-level metadata. Every field is optional; source
// PDFs frequently carry none of it.
type Metadata struct {
	Title            string
	Author           string
	Subject          string
	Creator          string
	Producer         string
	Keywords         string
	CreationDate     time.Time
	ModificationDate time.Time
}

// PageContent is everything extracted from one source page.
type PageContent struct {
	PageNumber int // 1-based, strictly increasing, no gaps
	Width      float64
	Height     float64
	TextItems  []TextFragment
	RawText    string // top-to-bottom, left-to-right approximation
	Images     []ImageAsset
	Tables     []DetectedTable
}

// Document is the parsed content model for a whole PDF.
type Document struct {
	Pages      []PageContent
	TotalPages int
	Metadata   Metadata
	FullText   string // per-page raw text joined with blank lines; derived
}

// Images returns the cross-page image collection in page order. It is a
// convenience view over the per-page data, never a separate source of truth.
func (d *Document) Images() []ImageAsset {
	var out []ImageAsset
	for _, p := range d.Pages {
		out = append(out, p.Images...)
	}
	return out
}

// Tables returns the cross-page table collection in page order.
func (d *Document) Tables() []DetectedTable {
	var out []DetectedTable
	for _, p := range d.Pages {
		out = append(out, p.Tables...)
	}
	return out
}

// WordCount counts whitespace-separated words in the full text.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.FullText))
}
