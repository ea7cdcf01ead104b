// Package generator renders the parsed content model into an output
// document. DOCX is the primary target; plain text and HTML renditions are
// also available. Per-element failures degrade to inline placeholders; only
// the inability to construct the output container at all is fatal.
package generator

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docflow/docflow/internal/content"
)

// Format names accepted by ForFormat.
const (
	FormatDocx = "docx"
	FormatText = "txt"
	FormatHTML = "html"
)

// SupportedFormats lists the output formats this service can produce.
var SupportedFormats = map[string]bool{
	FormatDocx: true,
	FormatText: true,
	FormatHTML: true,
}

// ContentTypes maps formats to their MIME types.
var ContentTypes = map[string]string{
	FormatDocx: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatText: "text/plain; charset=utf-8",
	FormatHTML: "text/html; charset=utf-8",
}

// Result is a generated document plus generation metadata.
type Result struct {
	Data           []byte
	PageCount      int
	WordCount      int
	CharacterCount int
	CreatedAt      time.Time
}

// GenerationError is the fatal case: the output container could not be
// built at all.
type GenerationError struct {
	Msg string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator renders a content model into one output format.
type Generator interface {
	Generate(doc *content.Document, opts Options) (*Result, error)
}

// ForFormat returns the generator for an output format name.
func ForFormat(format string, log *slog.Logger) (Generator, error) {
	if log == nil {
		log = slog.Default()
	}
	switch strings.ToLower(format) {
	case "", FormatDocx:
		return &DocxGenerator{Log: log}, nil
	case FormatText:
		return &TextGenerator{}, nil
	case FormatHTML:
		return &HTMLGenerator{Log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
