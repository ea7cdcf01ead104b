package parser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/fumiama/imgsz"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/docflow/docflow/internal/content"
)

// pdfcpu names extracted files <base>_page_<n>_<obj>.<ext>.
var imagePageRe = regexp.MustCompile(`_page_(\d+)_`)

// extractImages pulls embedded raster images out of the document with
// pdfcpu and attributes them to pages via the extraction filename
// convention. Placement on the page comes from a separate content-stream
// scan, since the raster extraction yields pixel data only.
//
// Non-fatal throughout: any failure drops the affected assets and returns
// warnings; text conversion proceeds regardless.
func (p *Parser) extractImages(pdfPath string, r *pdflib.Reader) (map[int][]content.ImageAsset, []string) {
	out := make(map[int][]content.ImageAsset)
	var warnings []string

	dir, err := os.MkdirTemp("", "docflow-img-*")
	if err != nil {
		p.Log.Warn("image extraction skipped", "error", err)
		return out, append(warnings, "embedded images could not be extracted and were skipped")
	}
	defer os.RemoveAll(dir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ExtractImagesFile(pdfPath, dir, nil, conf); err != nil {
		p.Log.Warn("image extraction failed, continuing without images", "error", err)
		return out, append(warnings, "embedded images could not be extracted and were skipped")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out, append(warnings, "embedded images could not be read back and were skipped")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		m := imagePageRe.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		pageNum, _ := strconv.Atoi(m[1])

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: image %s could not be read and was dropped", pageNum, name))
			continue
		}

		sz, format, err := imgsz.DecodeSize(bytes.NewReader(data))
		if err != nil {
			p.Log.Warn("unreadable image dropped", "file", name, "error", err)
			warnings = append(warnings, fmt.Sprintf("page %d: an embedded image could not be decoded and was dropped", pageNum))
			continue
		}
		w, h := sz.Width, sz.Height
		if w <= 0 || h <= 0 {
			// Zero-dimension assets never enter the model.
			continue
		}

		out[pageNum] = append(out[pageNum], content.ImageAsset{
			ID:         content.NewID("img"),
			PageNumber: pageNum,
			Width:      w,
			Height:     h,
			Format:     format,
			Data:       data,
		})
	}

	// Recover page positions from the paint operators. Count mismatches
	// leave the remaining assets at the page origin.
	for pageNum, assets := range out {
		placements := imagePlacements(r.Page(pageNum))
		for i := range assets {
			if i < len(placements) {
				assets[i].X = placements[i].x
				assets[i].Y = placements[i].y
			}
		}
	}

	return out, warnings
}
