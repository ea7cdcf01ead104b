package generator

import (
	"strings"
	"testing"

	"github.com/docflow/docflow/internal/content"
)

func TestHTMLGenerator(t *testing.T) {
	gen := &HTMLGenerator{}
	res, err := gen.Generate(sampleDocument(), DefaultOptions())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	out := string(res.Data)
	if !strings.Contains(out, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(out, "<title>Sample</title>") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Page 1") {
		t.Error("missing page heading")
	}
	// The detected table must survive as an HTML table via the GFM pipe form.
	if !strings.Contains(out, "<table>") {
		t.Errorf("table not rendered:\n%s", out)
	}
	if !strings.Contains(out, "quick brown fox") {
		t.Error("missing body text")
	}
}

func TestRenderMarkdown_PipeTablePaddedAndEscaped(t *testing.T) {
	doc := &content.Document{
		TotalPages: 1,
		Pages: []content.PageContent{
			{
				PageNumber: 1,
				Tables: []content.DetectedTable{
					{
						ID: "tbl_1", RowCount: 2, ColumnCount: 3,
						Rows: []content.TableRow{
							{Cells: []content.TableCell{{Content: "h1"}, {Content: "h|2"}, {Content: "h3"}}},
							{Cells: []content.TableCell{{Content: "v1"}}}, // short row
						},
					},
				},
			},
		},
	}

	md := renderMarkdown(doc, DefaultOptions().withDefaults())
	if !strings.Contains(md, `h\|2`) {
		t.Errorf("pipe not escaped:\n%s", md)
	}
	if !strings.Contains(md, "| v1 |  |  |") {
		t.Errorf("short row not padded:\n%s", md)
	}
	if !strings.Contains(md, "| --- | --- | --- |") {
		t.Errorf("missing separator row:\n%s", md)
	}
}

func TestRenderMarkdown_ImagePlaceholder(t *testing.T) {
	doc := &content.Document{
		TotalPages: 1,
		Pages: []content.PageContent{
			{
				PageNumber: 1,
				Images:     []content.ImageAsset{{ID: "img_1"}},
			},
		},
	}
	md := renderMarkdown(doc, DefaultOptions().withDefaults())
	if !strings.Contains(md, "*[image unavailable]*") {
		t.Errorf("missing placeholder:\n%s", md)
	}
}

func TestRenderMarkdown_InlinesProcessedImage(t *testing.T) {
	doc := &content.Document{
		TotalPages: 1,
		Pages: []content.PageContent{
			{
				PageNumber: 1,
				Images: []content.ImageAsset{
					{ID: "img_1", Processed: []byte{1, 2, 3}, ProcessedFormat: "jpeg"},
				},
			},
		},
	}
	md := renderMarkdown(doc, DefaultOptions().withDefaults())
	if !strings.Contains(md, "data:image/jpeg;base64,") {
		t.Errorf("missing data URI:\n%s", md)
	}
}
