// Package parser turns raw PDF bytes into the content model: per-page
// positioned text fragments, embedded images, detected tables, and document
// metadata. Structural failures (the document cannot be opened at all) are
// fatal; per-page and per-asset failures are absorbed and surfaced as
// warnings.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/docflow/docflow/internal/content"
)

// DefaultMaxFileSize is the input ceiling enforced before any parsing.
const DefaultMaxFileSize = 100 << 20 // 100 MiB

// pdfSignature is the 4-byte magic every PDF starts with.
const pdfSignature = "%PDF"

// ErrorKind categorizes fatal parse failures so callers can produce
// cause-specific messages instead of a generic "parsing failed".
type ErrorKind int

const (
	KindInvalidInput ErrorKind = iota // empty or missing input
	KindTooLarge                      // input exceeds the size ceiling
	KindBadSignature                  // not a PDF at all
	KindCorrupt                       // recognizable PDF, unreadable structure
	KindEncrypted                     // password-protected document
	KindRuntime                       // parser runtime failure
)

// ParseError is a fatal parse failure with a human-readable cause category.
type ParseError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser extracts the content model from PDF bytes.
type Parser struct {
	Log *slog.Logger

	// MaxFileSize overrides the input ceiling; zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// New returns a Parser with the default size ceiling.
func New(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{Log: log}
}

func (p *Parser) maxSize() int64 {
	if p.MaxFileSize > 0 {
		return p.MaxFileSize
	}
	return DefaultMaxFileSize
}

// Validate runs the cheap pre-parse checks: presence, size ceiling, and
// magic signature. Parse calls it, but it is exported so callers can fail
// fast before buffering a whole upload.
func (p *Parser) Validate(data []byte) error {
	if len(data) == 0 {
		return &ParseError{Kind: KindInvalidInput, Msg: "no document data provided"}
	}
	if limit := p.maxSize(); int64(len(data)) > limit {
		msg := fmt.Sprintf("document exceeds the %d MB size limit", limit>>20)
		if limit < 1<<20 {
			msg = fmt.Sprintf("document exceeds the %d byte size limit", limit)
		}
		return &ParseError{Kind: KindTooLarge, Msg: msg}
	}
	if !bytes.HasPrefix(data, []byte(pdfSignature)) {
		return &ParseError{Kind: KindBadSignature, Msg: "invalid file format: not a PDF document"}
	}
	return nil
}

// Parse extracts the full content model. The returned warnings describe
// non-fatal degradations (skipped pages, dropped images); they never imply
// failure.
func (p *Parser) Parse(ctx context.Context, data []byte) (*content.Document, []string, error) {
	if err := p.Validate(data); err != nil {
		return nil, nil, err
	}

	// The PDF libraries want a file path (pdfcpu) and a ReaderAt
	// (ledongthuc/pdf), so stage the bytes in a temp file once.
	tmp, err := os.CreateTemp("", "docflow-*.pdf")
	if err != nil {
		return nil, nil, &ParseError{Kind: KindRuntime, Msg: "create temp file", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, nil, &ParseError{Kind: KindRuntime, Msg: "write temp file", Err: err}
	}
	tmp.Close()

	reader, err := openDocument(data)
	if err != nil {
		return nil, nil, err
	}

	doc := &content.Document{
		TotalPages: reader.NumPage(),
		Metadata:   extractMetadata(reader),
	}

	// Raster extraction runs once for the whole document; a failure here
	// degrades to a text-only conversion, never a fatal error.
	pageImages, warnings := p.extractImages(tmpPath, reader)

	var fullText strings.Builder
	for num := 1; num <= reader.NumPage(); num++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, &ParseError{Kind: KindRuntime, Msg: "parse canceled", Err: err}
		}

		page, pageErr := p.extractPage(reader, num)
		if pageErr != nil {
			p.Log.Warn("page extraction failed, emitting empty page", "page", num, "error", pageErr)
			warnings = append(warnings, fmt.Sprintf("page %d: content could not be extracted (%v)", num, pageErr))
			page = content.PageContent{PageNumber: num}
		}
		page.Images = pageImages[num]

		doc.Pages = append(doc.Pages, page)
		if fullText.Len() > 0 {
			fullText.WriteString("\n\n")
		}
		fullText.WriteString(page.RawText)
	}

	doc.FullText = strings.TrimSpace(fullText.String())
	return doc, warnings, nil
}

// openDocument opens the structural document model, mapping library
// failures (including panics, which ledongthuc/pdf is known to raise on
// malformed input) to ParseError categories.
func openDocument(data []byte) (r *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = &ParseError{
				Kind: KindCorrupt,
				Msg:  "failed to parse PDF: document structure is corrupt",
				Err:  fmt.Errorf("%v", rec),
			}
		}
	}()

	r, openErr := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if openErr != nil {
		if isEncryptedErr(openErr) {
			return nil, &ParseError{
				Kind: KindEncrypted,
				Msg:  "document is password-protected and cannot be converted",
				Err:  openErr,
			}
		}
		return nil, &ParseError{
			Kind: KindCorrupt,
			Msg:  "failed to parse PDF: document structure is corrupt",
			Err:  openErr,
		}
	}
	return r, nil
}

func isEncryptedErr(err error) bool {
	if errors.Is(err, pdflib.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
