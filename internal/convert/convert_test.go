package convert

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

// testPDF assembles a small valid PDF with one text line per page.
func testPDF(pageTexts ...string) []byte {
	n := len(pageTexts)
	kids := make([]string, n)
	for i := range pageTexts {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i := range pageTexts {
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			4+n+i))
	}
	for _, text := range pageTexts {
		stream := fmt.Sprintf("BT /F1 12 Tf 1 0 0 1 72 720 Tm (%s) Tj ET\n", text)
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
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
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\n", len(objs)+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestConvert_NotAPDF(t *testing.T) {
	c := New(nil, nil)
	res := c.Convert(context.Background(), []byte("plain text, no signature"), DefaultOptions(), nil)

	if res.Success {
		t.Fatal("expected failure for non-PDF input")
	}
	if !strings.Contains(res.Error, "not a PDF") {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if len(res.Data) != 0 {
		t.Error("failed conversion produced data")
	}
}

func TestConvert_OversizedInput(t *testing.T) {
	c := New(nil, nil)
	c.MaxInputBytes = 16

	res := c.Convert(context.Background(), []byte("%PDF-1.4 well beyond sixteen bytes"), DefaultOptions(), nil)
	if res.Success {
		t.Fatal("expected failure for oversized input")
	}
	if !strings.Contains(res.Error, "size limit") {
		t.Errorf("unexpected error message: %q", res.Error)
	}
}

func TestConvert_UnsupportedFormat(t *testing.T) {
	c := New(nil, nil)
	opts := DefaultOptions()
	opts.Format = "odt"

	res := c.Convert(context.Background(), testPDF("body"), opts, nil)
	if res.Success {
		t.Fatal("expected failure for unsupported format")
	}
	if !strings.Contains(res.Error, "unsupported output format") {
		t.Errorf("unexpected error message: %q", res.Error)
	}
}

func TestConvert_InvalidOptions(t *testing.T) {
	c := New(nil, nil)
	opts := DefaultOptions()
	opts.FontSize = 300

	res := c.Convert(context.Background(), testPDF("body"), opts, nil)
	if res.Success {
		t.Fatal("expected failure for invalid options")
	}
	if !strings.Contains(res.Error, "font size") {
		t.Errorf("unexpected error message: %q", res.Error)
	}
}

func TestConvert_WordDocumentHappyPath(t *testing.T) {
	// 50 words across two pages.
	page1 := strings.TrimSpace(strings.Repeat("alpha ", 30))
	page2 := strings.TrimSpace(strings.Repeat("beta ", 20))

	c := New(nil, nil)
	res := c.Convert(context.Background(), testPDF(page1, page2), DefaultOptions(), nil)

	if !res.Success {
		t.Fatalf("conversion failed: %s", res.Error)
	}
	if !bytes.HasPrefix(res.Data, []byte("PK")) {
		t.Error("output is not a Word package")
	}
	if res.Format != "docx" {
		t.Errorf("expected docx, got %q", res.Format)
	}
	if res.Metadata.OriginalPages != 2 || res.Metadata.ConvertedPages != 2 {
		t.Errorf("page counts: original=%d converted=%d", res.Metadata.OriginalPages, res.Metadata.ConvertedPages)
	}
	if res.Metadata.WordCount != 50 {
		t.Errorf("expected 50 words, got %d", res.Metadata.WordCount)
	}
	if res.Metadata.Duration <= 0 {
		t.Error("expected a positive duration")
	}
}

func TestConvert_TextFormat(t *testing.T) {
	c := New(nil, nil)
	opts := DefaultOptions()
	opts.Format = "txt"

	res := c.Convert(context.Background(), testPDF("hello text output"), opts, nil)
	if !res.Success {
		t.Fatalf("conversion failed: %s", res.Error)
	}
	if !strings.Contains(string(res.Data), "hello text output") {
		t.Errorf("missing body text:\n%s", res.Data)
	}
}

func TestConvert_ProgressSequence(t *testing.T) {
	var stages []string
	var percents []int
	onProgress := func(p Progress) {
		stages = append(stages, p.Stage)
		percents = append(percents, p.Percent)
	}

	c := New(nil, nil)
	res := c.Convert(context.Background(), testPDF("body"), DefaultOptions(), onProgress)
	if !res.Success {
		t.Fatalf("conversion failed: %s", res.Error)
	}

	want := []string{StageIdle, StageParsing, StageParsing, StageProcessing, StageProcessing, StageGenerating, StageComplete}
	if len(stages) != len(want) {
		t.Fatalf("expected %d checkpoints, got %d (%v)", len(want), len(stages), stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("checkpoint %d: %q, want %q", i, stages[i], want[i])
		}
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress went backwards at %d: %v", i, percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("expected final percent 100, got %d", percents[len(percents)-1])
	}
}

func TestConvert_FailureReachesTerminalStage(t *testing.T) {
	var stages []string
	var lastPercent int
	onProgress := func(p Progress) {
		stages = append(stages, p.Stage)
		lastPercent = p.Percent
	}

	c := New(nil, nil)
	res := c.Convert(context.Background(), []byte("not a pdf at all"), DefaultOptions(), onProgress)
	if res.Success {
		t.Fatal("expected failure")
	}
	if len(stages) == 0 {
		t.Fatal("no progress reported")
	}
	if last := stages[len(stages)-1]; last != StageComplete {
		t.Errorf("expected terminal stage %q, got %q (%v)", StageComplete, last, stages)
	}
	if lastPercent != 100 {
		t.Errorf("expected terminal percent 100, got %d", lastPercent)
	}
}

func TestConvert_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(nil, nil)
	res := c.Convert(ctx, testPDF("body"), DefaultOptions(), nil)
	if res.Success {
		t.Fatal("expected failure for canceled context")
	}
}
