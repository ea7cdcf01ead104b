package convert

import (
	"strings"
	"testing"

	"github.com/docflow/docflow/internal/content"
)

func docWithText(pages ...string) *content.Document {
	doc := &content.Document{TotalPages: len(pages)}
	var parts []string
	for i, text := range pages {
		doc.Pages = append(doc.Pages, content.PageContent{PageNumber: i + 1, RawText: text})
		if text != "" {
			parts = append(parts, text)
		}
	}
	doc.FullText = strings.Join(parts, "\n\n")
	return doc
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestContentWarnings_NoText(t *testing.T) {
	warnings := contentWarnings(docWithText("", ""))
	// An empty document trips both the no-text and the little-text
	// warnings, plus the per-page count.
	if !hasWarning(warnings, "no extractable text") {
		t.Errorf("missing scanned-document warning: %v", warnings)
	}
	if !hasWarning(warnings, "very little text") {
		t.Errorf("missing image-based hint: %v", warnings)
	}
	if !hasWarning(warnings, "2 of 2 pages") {
		t.Errorf("missing empty-page count: %v", warnings)
	}
}

func TestContentWarnings_LittleText(t *testing.T) {
	warnings := contentWarnings(docWithText("short"))
	if !hasWarning(warnings, "very little text") {
		t.Errorf("missing image-based hint: %v", warnings)
	}
	if hasWarning(warnings, "no extractable text") {
		t.Errorf("no-text warning for a non-empty document: %v", warnings)
	}
}

func TestContentWarnings_PartialEmptyPages(t *testing.T) {
	body := strings.Repeat("plenty of text here ", 10)
	warnings := contentWarnings(docWithText(body, "", body))
	if !hasWarning(warnings, "1 of 3 pages") {
		t.Errorf("missing empty-page warning: %v", warnings)
	}
}

func TestContentWarnings_LargeDocument(t *testing.T) {
	body := strings.Repeat("text ", 30)
	pages := make([]string, 101)
	for i := range pages {
		pages[i] = body
	}
	warnings := contentWarnings(docWithText(pages...))
	if !hasWarning(warnings, "101 pages") {
		t.Errorf("missing large-document warning: %v", warnings)
	}
}

func TestContentWarnings_MissingMetadata(t *testing.T) {
	doc := docWithText(strings.Repeat("words and more words ", 10))
	warnings := contentWarnings(doc)
	if !hasWarning(warnings, "no title or author") {
		t.Errorf("missing metadata warning: %v", warnings)
	}

	doc.Metadata.Title = "Titled"
	warnings = contentWarnings(doc)
	if hasWarning(warnings, "no title or author") {
		t.Errorf("metadata warning present despite title: %v", warnings)
	}
}

func TestContentWarnings_CleanDocument(t *testing.T) {
	doc := docWithText(strings.Repeat("a perfectly ordinary sentence with words ", 5))
	doc.Metadata.Title = "T"
	doc.Metadata.Author = "A"
	if warnings := contentWarnings(doc); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}
