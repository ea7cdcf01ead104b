package parser

import (
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/docflow/docflow/internal/content"
)

// extractMetadata reads the trailer Info dictionary. Every field is
// optional and any failure degrades to empty metadata; a document without
// an Info dict is common and never an error.
func extractMetadata(r *pdflib.Reader) (meta content.Metadata) {
	defer func() {
		if rec := recover(); rec != nil {
			meta = content.Metadata{}
		}
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}

	meta.Title = infoString(info, "Title")
	meta.Author = infoString(info, "Author")
	meta.Subject = infoString(info, "Subject")
	meta.Creator = infoString(info, "Creator")
	meta.Producer = infoString(info, "Producer")
	meta.Keywords = infoString(info, "Keywords")
	meta.CreationDate = parsePDFDate(infoString(info, "CreationDate"))
	meta.ModificationDate = parsePDFDate(infoString(info, "ModDate"))
	return meta
}

func infoString(info pdflib.Value, key string) string {
	v := info.Key(key)
	if v.IsNull() {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// parsePDFDate parses the "D:YYYYMMDDHHmmSS" date form, tolerating the
// optional prefix, truncated precision, and timezone suffixes. Returns the
// zero time on anything unparseable.
func parsePDFDate(s string) time.Time {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if s == "" {
		return time.Time{}
	}
	// Strip timezone ("Z", "+02'00'", "-07'00'"); the offset is dropped
	// rather than applied, which is fine for display metadata.
	if i := strings.IndexAny(s, "Z+-"); i >= 0 {
		s = s[:i]
	}

	layouts := []string{"20060102150405", "200601021504", "2006010215", "20060102", "200601", "2006"}
	for _, layout := range layouts {
		if len(s) == len(layout) {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
