package generator

import "fmt"

// Margins are page margins in inches.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Options configures output generation. Zero-value fields fall back to the
// defaults from DefaultOptions at generation time.
type Options struct {
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
	Margins     Margins

	// SimpleMode bypasses table/image layout in favor of plain paragraphs.
	SimpleMode bool
}

// DefaultOptions mirrors the defaults the conversion front end always used.
func DefaultOptions() Options {
	return Options{
		IncludeMetadata:    true,
		IncludePageNumbers: true,
		IncludeHeaders:     true,
		IncludeFooters:     true,
		PreserveFormatting: true,
		FontSize:           11,
		FontFamily:         "Calibri",
		LineSpacing:        1.15,
		Margins:            Margins{Top: 1, Bottom: 1, Left: 1, Right: 1},
	}
}

// Validate returns every option violation, empty when the options are
// acceptable. Zero values are "unset" and pass.
func (o Options) Validate() []string {
	var errs []string
	if o.FontSize != 0 && (o.FontSize < 6 || o.FontSize > 72) {
		errs = append(errs, "font size must be between 6 and 72 points")
	}
	if o.LineSpacing != 0 && (o.LineSpacing < 0.5 || o.LineSpacing > 3.0) {
		errs = append(errs, "line spacing must be between 0.5 and 3.0")
	}
	for _, m := range []struct {
		name  string
		value float64
	}{
		{"top", o.Margins.Top},
		{"bottom", o.Margins.Bottom},
		{"left", o.Margins.Left},
		{"right", o.Margins.Right},
	} {
		if m.value < 0 || m.value > 5 {
			errs = append(errs, fmt.Sprintf("%s margin must be between 0 and 5 inches", m.name))
		}
	}
	return errs
}

// withDefaults fills unset fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.FontSize == 0 {
		o.FontSize = def.FontSize
	}
	if o.FontFamily == "" {
		o.FontFamily = def.FontFamily
	}
	if o.LineSpacing == 0 {
		o.LineSpacing = def.LineSpacing
	}
	return o
}
