// Package convert orchestrates the full conversion: parse the PDF into the
// content model, normalize embedded images, and render the requested output
// format. Failures come back as a structured Result rather than a bare
// error so callers always get the warnings gathered before the failure.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docflow/docflow/internal/content"
	"github.com/docflow/docflow/internal/generator"
	"github.com/docflow/docflow/internal/imaging"
	"github.com/docflow/docflow/internal/parser"
)

// Conversion stages, reported through the progress callback in order.
const (
	StageIdle       = "idle"
	StageParsing    = "parsing"
	StageProcessing = "processing"
	StageGenerating = "generating"
	StageComplete   = "complete"
)

// Progress is one progress checkpoint.
type Progress struct {
	Stage       string `json:"stage"`
	Percent     int    `json:"percent"`
	Message     string `json:"message"`
	CurrentPage int    `json:"currentPage,omitempty"`
	TotalPages  int    `json:"totalPages,omitempty"`
}

// ProgressFunc receives progress checkpoints. It is called synchronously;
// implementations should return quickly.
type ProgressFunc func(Progress)

// Options configures a conversion. The generator fields mirror
// generator.Options; Format selects the output rendition.
type Options struct {
	Format string

	Title   string
	Author  string
	Subject string

	IncludeMetadata    bool
	IncludePageNumbers bool
	IncludeHeaders     bool
	IncludeFooters     bool
	PreserveFormatting bool

	FontSize    int
	FontFamily  string
	LineSpacing float64
	Margins     generator.Margins

	SimpleMode bool
}

// DefaultOptions returns the options a conversion uses when the caller
// specifies nothing.
func DefaultOptions() Options {
	g := generator.DefaultOptions()
	return Options{
		Format:             generator.FormatDocx,
		IncludeMetadata:    g.IncludeMetadata,
		IncludePageNumbers: g.IncludePageNumbers,
		IncludeHeaders:     g.IncludeHeaders,
		IncludeFooters:     g.IncludeFooters,
		PreserveFormatting: g.PreserveFormatting,
		FontSize:           g.FontSize,
		FontFamily:         g.FontFamily,
		LineSpacing:        g.LineSpacing,
		Margins:            g.Margins,
	}
}

func (o Options) generatorOptions() generator.Options {
	return generator.Options{
		Title:              o.Title,
		Author:             o.Author,
		Subject:            o.Subject,
		IncludeMetadata:    o.IncludeMetadata,
		IncludePageNumbers: o.IncludePageNumbers,
		IncludeHeaders:     o.IncludeHeaders,
		IncludeFooters:     o.IncludeFooters,
		PreserveFormatting: o.PreserveFormatting,
		FontSize:           o.FontSize,
		FontFamily:         o.FontFamily,
		LineSpacing:        o.LineSpacing,
		Margins:            o.Margins,
		SimpleMode:         o.SimpleMode,
	}
}

// Metadata summarizes a completed conversion.
type Metadata struct {
	OriginalTitle  string        `json:"originalTitle,omitempty"`
	OriginalAuthor string        `json:"originalAuthor,omitempty"`
	OriginalPages  int           `json:"originalPages"`
	ConvertedPages int           `json:"convertedPages"`
	WordCount      int           `json:"wordCount"`
	CharacterCount int           `json:"characterCount"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Result is the outcome of one conversion. On failure Success is false,
// Error holds the message, and Warnings still carries everything collected
// before the failure.
type Result struct {
	Success  bool
	Data     []byte
	Format   string
	Metadata Metadata
	Error    string
	Warnings []string
}

// Converter runs conversions. Safe for concurrent use.
type Converter struct {
	normalizer *imaging.Normalizer
	log        *slog.Logger

	// MaxInputBytes overrides the parser's input size ceiling when > 0.
	MaxInputBytes int64
}

// New returns a Converter sharing one image cache across conversions.
func New(log *slog.Logger, cache *imaging.Cache) *Converter {
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		normalizer: imaging.New(log, cache),
		log:        log,
	}
}

// Convert runs the pipeline end to end. onProgress may be nil.
func (c *Converter) Convert(ctx context.Context, data []byte, opts Options, onProgress ProgressFunc) (res Result) {
	start := time.Now()
	report := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	// The complete stage is terminal for failures too, so progress
	// consumers always see the conversion finish.
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("conversion panic", "error", fmt.Sprint(rec))
			res = Result{
				Success:  false,
				Format:   opts.Format,
				Error:    "internal conversion failure",
				Warnings: res.Warnings,
			}
			report(Progress{Stage: StageComplete, Percent: 100, Message: "conversion failed"})
		}
	}()

	fail := func(msg string, warnings []string) Result {
		report(Progress{Stage: StageComplete, Percent: 100, Message: "conversion failed"})
		return Result{Success: false, Format: opts.Format, Error: msg, Warnings: warnings}
	}

	if opts.Format == "" {
		opts.Format = generator.FormatDocx
	}
	if !generator.SupportedFormats[strings.ToLower(opts.Format)] {
		return fail(fmt.Sprintf("unsupported output format: %s", opts.Format), nil)
	}
	if errs := opts.generatorOptions().Validate(); len(errs) > 0 {
		return fail("invalid options: "+strings.Join(errs, "; "), nil)
	}

	report(Progress{Stage: StageIdle, Percent: 0, Message: "starting conversion"})

	p := parser.New(c.log)
	if c.MaxInputBytes > 0 {
		p.MaxFileSize = c.MaxInputBytes
	}

	report(Progress{Stage: StageParsing, Percent: 0, Message: "parsing document"})
	doc, warnings, err := p.Parse(ctx, data)
	if err != nil {
		c.log.Warn("parse failed", "error", err)
		return fail(err.Error(), warnings)
	}
	report(Progress{
		Stage: StageParsing, Percent: 30,
		Message:    fmt.Sprintf("parsed %d pages", doc.TotalPages),
		TotalPages: doc.TotalPages,
	})

	warnings = append(warnings, contentWarnings(doc)...)

	report(Progress{Stage: StageProcessing, Percent: 30, Message: "processing images", TotalPages: doc.TotalPages})
	warnings = append(warnings, c.processImages(ctx, doc)...)
	report(Progress{Stage: StageProcessing, Percent: 60, Message: "images processed", TotalPages: doc.TotalPages})

	if err := ctx.Err(); err != nil {
		return fail("conversion canceled", warnings)
	}

	report(Progress{Stage: StageGenerating, Percent: 70, Message: "generating output", TotalPages: doc.TotalPages})
	gen, err := generator.ForFormat(opts.Format, c.log)
	if err != nil {
		return fail(err.Error(), warnings)
	}
	out, err := gen.Generate(doc, opts.generatorOptions())
	if err != nil {
		c.log.Error("generation failed", "format", opts.Format, "error", err)
		return fail(err.Error(), warnings)
	}

	report(Progress{
		Stage: StageComplete, Percent: 100,
		Message:    "conversion complete",
		TotalPages: doc.TotalPages,
	})

	return Result{
		Success:  true,
		Data:     out.Data,
		Format:   opts.Format,
		Warnings: warnings,
		Metadata: Metadata{
			OriginalTitle:  doc.Metadata.Title,
			OriginalAuthor: doc.Metadata.Author,
			OriginalPages:  doc.TotalPages,
			ConvertedPages: out.PageCount,
			WordCount:      out.WordCount,
			CharacterCount: out.CharacterCount,
			Duration:       time.Since(start),
			CreatedAt:      out.CreatedAt,
		},
	}
}

// processImages normalizes every embedded image in place and returns one
// warning per asset that could not be processed. Degraded assets keep their
// original bytes with Processed unset so generators emit placeholders.
func (c *Converter) processImages(ctx context.Context, doc *content.Document) []string {
	assets := doc.Images()
	if len(assets) == 0 {
		return nil
	}

	results := c.normalizer.NormalizeAll(ctx, assets)

	var warnings []string
	byID := make(map[string]content.ImageAsset, len(results))
	for _, r := range results {
		if r.Err != nil {
			c.log.Warn("image normalization failed", "image", r.Asset.ID, "error", r.Err)
			warnings = append(warnings, fmt.Sprintf("image %s on page %d could not be processed", r.Asset.ID, r.Asset.PageNumber))
		}
		byID[r.Asset.ID] = r.Asset
	}

	for pi := range doc.Pages {
		for ii, img := range doc.Pages[pi].Images {
			if updated, ok := byID[img.ID]; ok {
				doc.Pages[pi].Images[ii] = updated
			}
		}
	}
	return warnings
}
