package parser

import (
	"math"
	"sort"

	"github.com/docflow/docflow/internal/content"
)

// Minimum structure before a page's fragments count as table evidence.
const (
	minTableRows    = 2
	minRowFragments = 2
	minTableColumns = 2
)

// detectTables runs the positional table heuristic over a page's fragments.
// It groups fragments into candidate rows by rounded Y-coordinate, keeps
// rows with at least two fragments, and accepts the page's candidate only
// with at least two such rows and two columns. Cells are assigned
// sequential column indices left to right; there is no border or merged-
// cell detection, so multi-column text layouts can register as tables.
//
// Never fails: any internal error yields no tables for the page.
func detectTables(pageNum int, frags []content.TextFragment) (tables []content.DetectedTable) {
	defer func() {
		if rec := recover(); rec != nil {
			tables = nil
		}
	}()

	if len(frags) < minTableRows*minRowFragments {
		return nil
	}

	// Candidate rows keyed by rounded Y.
	rowsByY := make(map[int][]content.TextFragment)
	for _, f := range frags {
		y := int(math.Round(f.Y))
		rowsByY[y] = append(rowsByY[y], f)
	}

	var ys []int
	for y, row := range rowsByY {
		if len(row) >= minRowFragments {
			ys = append(ys, y)
		}
	}
	if len(ys) < minTableRows {
		return nil
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys))) // top of page first

	columnCount := 0
	for _, y := range ys {
		if n := len(rowsByY[y]); n > columnCount {
			columnCount = n
		}
	}
	if columnCount < minTableColumns {
		return nil
	}

	table := content.DetectedTable{
		ID:          content.NewID("tbl"),
		PageNumber:  pageNum,
		RowCount:    len(ys),
		ColumnCount: columnCount,
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for rowIdx, y := range ys {
		rowFrags := rowsByY[y]
		sort.Slice(rowFrags, func(i, j int) bool { return rowFrags[i].X < rowFrags[j].X })

		row := content.TableRow{}
		for colIdx, f := range rowFrags {
			row.Cells = append(row.Cells, content.TableCell{
				Content: f.Text,
				Row:     rowIdx,
				Col:     colIdx,
				X:       f.X,
				Y:       f.Y,
				Width:   f.Width,
				Height:  f.Height,
			})
			minX = math.Min(minX, f.X)
			minY = math.Min(minY, f.Y)
			maxX = math.Max(maxX, f.X+f.Width)
			maxY = math.Max(maxY, f.Y+f.Height)
		}
		table.Rows = append(table.Rows, row)
	}

	table.X = minX
	table.Y = minY
	table.Width = maxX - minX
	table.Height = maxY - minY
	return []content.DetectedTable{table}
}
