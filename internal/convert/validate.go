package convert

import (
	"fmt"
	"strings"

	"github.com/docflow/docflow/internal/content"
)

// largeDocumentPages is the page count past which conversion is flagged as
// potentially slow.
const largeDocumentPages = 100

// minTextChars is the extracted-text length under which a document is
// likely scanned or image-based.
const minTextChars = 100

// contentWarnings inspects a parsed document for conditions worth
// surfacing to the caller. None of them block conversion.
func contentWarnings(doc *content.Document) []string {
	var warnings []string

	text := strings.TrimSpace(doc.FullText)
	if text == "" {
		warnings = append(warnings, "no extractable text found; the document may be scanned or image-based")
	}
	if len(text) < minTextChars {
		warnings = append(warnings, "very little text was extracted; the document may be mostly image-based")
	}

	empty := 0
	for _, page := range doc.Pages {
		if strings.TrimSpace(page.RawText) == "" {
			empty++
		}
	}
	if empty > 0 {
		warnings = append(warnings, fmt.Sprintf("%d of %d pages contain no extractable text", empty, len(doc.Pages)))
	}

	if doc.TotalPages > largeDocumentPages {
		warnings = append(warnings, fmt.Sprintf("document has %d pages; conversion may take a while", doc.TotalPages))
	}

	if doc.Metadata.Title == "" && doc.Metadata.Author == "" {
		warnings = append(warnings, "document carries no title or author metadata")
	}

	return warnings
}
