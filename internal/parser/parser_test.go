package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// frag is one positioned text show for the fixture builder.
type frag struct {
	X, Y float64
	Size float64
	Text string
}

// buildPDF assembles a minimal but structurally valid PDF: one catalog, one
// page tree, a shared Helvetica font, and one content stream per page. The
// xref offsets are computed from the actual byte positions.
func buildPDF(pages [][]frag, info map[string]string) []byte {
	n := len(pages)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i := range pages {
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			4+n+i))
	}
	for _, frags := range pages {
		var sb strings.Builder
		for _, f := range frags {
			fmt.Fprintf(&sb, "BT /F1 %g Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", f.Size, f.X, f.Y, f.Text)
		}
		stream := sb.String()
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
	}
	infoNum := 0
	if len(info) > 0 {
		var sb strings.Builder
		sb.WriteString("<<")
		for _, key := range []string{"Title", "Author", "Subject", "Creator", "Producer", "Keywords", "CreationDate", "ModDate"} {
			if v, ok := info[key]; ok {
				fmt.Fprintf(&sb, " /%s (%s)", key, v)
			}
		}
		sb.WriteString(" >>")
		objs = append(objs, sb.String())
		infoNum = len(objs)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	buf.WriteString("trailer\n")
	if infoNum > 0 {
		fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R /Info %d 0 R >>\n", len(objs)+1, infoNum)
	} else {
		fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R >>\n", len(objs)+1)
	}
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	return pe.Kind
}

func TestValidate_EmptyInput(t *testing.T) {
	p := New(nil)
	err := p.Validate(nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if kindOf(t, err) != KindInvalidInput {
		t.Errorf("expected KindInvalidInput, got %v", kindOf(t, err))
	}
}

func TestValidate_TooLarge(t *testing.T) {
	p := New(nil)
	p.MaxFileSize = 8

	err := p.Validate([]byte("%PDF-1.4 more than eight bytes"))
	if err == nil {
		t.Fatal("expected error for oversized input")
	}
	if kindOf(t, err) != KindTooLarge {
		t.Errorf("expected KindTooLarge, got %v", kindOf(t, err))
	}
	// Sub-MiB ceilings report bytes rather than a rounded-down "0 MB".
	if !strings.Contains(err.Error(), "8 byte size limit") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidate_TooLargeMegabyteMessage(t *testing.T) {
	p := New(nil)
	p.MaxFileSize = 2 << 20

	err := p.Validate(bytes.Repeat([]byte("%PDF"), 1<<20))
	if err == nil {
		t.Fatal("expected error for oversized input")
	}
	if !strings.Contains(err.Error(), "2 MB size limit") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidate_BadSignature(t *testing.T) {
	p := New(nil)
	err := p.Validate([]byte("GIF89a this is not a pdf"))
	if err == nil {
		t.Fatal("expected error for non-PDF input")
	}
	if kindOf(t, err) != KindBadSignature {
		t.Errorf("expected KindBadSignature, got %v", kindOf(t, err))
	}
	if !strings.Contains(err.Error(), "not a PDF") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidate_AcceptsPDFSignature(t *testing.T) {
	p := New(nil)
	if err := p.Validate([]byte("%PDF-1.7\nrest of document")); err != nil {
		t.Fatalf("expected signature check to pass, got %v", err)
	}
}

func TestParse_CorruptStructure(t *testing.T) {
	p := New(nil)
	_, _, err := p.Parse(context.Background(), []byte("%PDF-1.4\ngarbage with no xref\n"))
	if err == nil {
		t.Fatal("expected error for corrupt document")
	}
	if kindOf(t, err) != KindCorrupt {
		t.Errorf("expected KindCorrupt, got %v", kindOf(t, err))
	}
}

func TestParse_TextAndPageOrder(t *testing.T) {
	data := buildPDF([][]frag{
		{{X: 72, Y: 720, Size: 12, Text: "Hello first page"}},
		{{X: 72, Y: 720, Size: 12, Text: "Second page here"}},
	}, nil)

	p := New(nil)
	doc, _, err := p.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.TotalPages)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 page entries, got %d", len(doc.Pages))
	}
	for i, page := range doc.Pages {
		if page.PageNumber != i+1 {
			t.Errorf("page %d: expected number %d, got %d", i, i+1, page.PageNumber)
		}
	}
	if !strings.Contains(doc.Pages[0].RawText, "Hello") {
		t.Errorf("page 1 text missing: %q", doc.Pages[0].RawText)
	}
	if !strings.Contains(doc.Pages[1].RawText, "Second") {
		t.Errorf("page 2 text missing: %q", doc.Pages[1].RawText)
	}
	if !strings.Contains(doc.FullText, "Hello") || !strings.Contains(doc.FullText, "Second") {
		t.Errorf("full text incomplete: %q", doc.FullText)
	}
	if doc.Pages[0].Width != 612 || doc.Pages[0].Height != 792 {
		t.Errorf("expected 612x792 page, got %gx%g", doc.Pages[0].Width, doc.Pages[0].Height)
	}
}

func TestParse_Metadata(t *testing.T) {
	data := buildPDF([][]frag{
		{{X: 72, Y: 720, Size: 12, Text: "Body"}},
	}, map[string]string{
		"Title":        "Quarterly Report",
		"Author":       "Jane Doe",
		"CreationDate": "D:20240115093000Z",
	})

	p := New(nil)
	doc, _, err := p.Parse(context.Background(), data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if doc.Metadata.Title != "Quarterly Report" {
		t.Errorf("title: got %q", doc.Metadata.Title)
	}
	if doc.Metadata.Author != "Jane Doe" {
		t.Errorf("author: got %q", doc.Metadata.Author)
	}
	if doc.Metadata.CreationDate.Year() != 2024 || doc.Metadata.CreationDate.Month() != 1 {
		t.Errorf("creation date: got %v", doc.Metadata.CreationDate)
	}
}

func TestParse_Canceled(t *testing.T) {
	data := buildPDF([][]frag{
		{{X: 72, Y: 720, Size: 12, Text: "Body"}},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(nil)
	_, _, err := p.Parse(ctx, data)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
