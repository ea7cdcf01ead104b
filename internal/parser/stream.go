package parser

import (
	"io"
	"strconv"

	pdflib "github.com/ledongthuc/pdf"
)

// Minimal content-stream scan: enough of the operator grammar to track the
// transform matrix (q/Q/cm) and spot image XObject paints (Do). Everything
// else is skipped. This recovers where on the page each image lands; the
// pixel data itself comes from pdfcpu.

type placement struct {
	name string
	x, y float64
	w, h float64
}

// matrix is a PDF transform [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m applied before ctm (the cm composition order).
func mul(m, ctm matrix) matrix {
	return matrix{
		m[0]*ctm[0] + m[1]*ctm[2],
		m[0]*ctm[1] + m[1]*ctm[3],
		m[2]*ctm[0] + m[3]*ctm[2],
		m[2]*ctm[1] + m[3]*ctm[3],
		m[4]*ctm[0] + m[5]*ctm[2] + ctm[4],
		m[4]*ctm[1] + m[5]*ctm[3] + ctm[5],
	}
}

// imagePlacements returns, in paint order, the positions of the page's
// image XObject draws. Never fails; a malformed stream yields what was
// scanned up to that point.
func imagePlacements(page pdflib.Page) (out []placement) {
	defer func() {
		if rec := recover(); rec != nil {
			// Keep whatever was collected before the stream went bad.
		}
	}()

	if page.V.IsNull() {
		return nil
	}
	images := imageXObjectNames(page)
	if len(images) == 0 {
		return nil
	}
	data := pageContentBytes(page)
	if len(data) == 0 {
		return nil
	}

	ctm := identity
	var stack []matrix
	var nums []float64
	var lastName string

	tok := newTokenizer(data)
	for {
		t, ok := tok.next()
		if !ok {
			break
		}
		switch t.kind {
		case tokNumber:
			nums = append(nums, t.num)
			if len(nums) > 6 {
				nums = nums[len(nums)-6:]
			}
		case tokName:
			lastName = t.text
		case tokOperator:
			switch t.text {
			case "q":
				stack = append(stack, ctm)
			case "Q":
				if n := len(stack); n > 0 {
					ctm = stack[n-1]
					stack = stack[:n-1]
				}
			case "cm":
				if len(nums) >= 6 {
					m := matrix{nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]}
					ctm = mul(m, ctm)
				}
			case "Do":
				if lastName != "" && images[lastName] {
					out = append(out, placement{
						name: lastName,
						x:    ctm[4],
						y:    ctm[5],
						w:    absf(ctm[0]),
						h:    absf(ctm[3]),
					})
				}
			case "BI":
				// Inline image: skip to EI so its binary payload does not
				// confuse the scanner.
				tok.skipInlineImage()
			}
			nums = nums[:0]
			lastName = ""
		}
	}
	return out
}

// imageXObjectNames collects the resource names of image XObjects, walking
// up the page tree since Resources is inheritable.
func imageXObjectNames(page pdflib.Page) map[string]bool {
	names := make(map[string]bool)
	v := page.V
	for i := 0; i < 16 && !v.IsNull(); i++ {
		xobj := v.Key("Resources").Key("XObject")
		if !xobj.IsNull() {
			for _, name := range xobj.Keys() {
				if xobj.Key(name).Key("Subtype").Name() == "Image" {
					names[name] = true
				}
			}
			break
		}
		v = v.Key("Parent")
	}
	return names
}

// pageContentBytes decodes and concatenates the page's content stream(s).
func pageContentBytes(page pdflib.Page) []byte {
	contents := page.V.Key("Contents")
	if contents.IsNull() {
		return nil
	}
	var buf []byte
	readStream := func(v pdflib.Value) {
		rc := v.Reader()
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err == nil {
			buf = append(buf, b...)
			buf = append(buf, '\n')
		}
	}
	if contents.Kind() == pdflib.Array {
		for i := 0; i < contents.Len(); i++ {
			readStream(contents.Index(i))
		}
	} else {
		readStream(contents)
	}
	return buf
}

type tokKind int

const (
	tokNumber tokKind = iota
	tokName
	tokOperator
)

type token struct {
	kind tokKind
	text string
	num  float64
}

type tokenizer struct {
	data []byte
	pos  int
}

func newTokenizer(data []byte) *tokenizer {
	return &tokenizer{data: data}
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (t *tokenizer) next() (token, bool) {
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		switch {
		case isWhite(c):
			t.pos++
		case c == '%':
			t.skipToEOL()
		case c == '(':
			t.skipString()
		case c == '<':
			t.skipAngle()
		case c == '>', c == ')', c == '[', c == ']', c == '{', c == '}':
			t.pos++
		case c == '/':
			t.pos++
			start := t.pos
			for t.pos < len(t.data) && !isWhite(t.data[t.pos]) && !isDelim(t.data[t.pos]) {
				t.pos++
			}
			return token{kind: tokName, text: string(t.data[start:t.pos])}, true
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			start := t.pos
			t.pos++
			for t.pos < len(t.data) {
				d := t.data[t.pos]
				if (d >= '0' && d <= '9') || d == '.' || d == '-' || d == '+' {
					t.pos++
				} else {
					break
				}
			}
			n, err := strconv.ParseFloat(string(t.data[start:t.pos]), 64)
			if err != nil {
				continue
			}
			return token{kind: tokNumber, num: n}, true
		default:
			start := t.pos
			for t.pos < len(t.data) && !isWhite(t.data[t.pos]) && !isDelim(t.data[t.pos]) {
				t.pos++
			}
			if t.pos > start {
				return token{kind: tokOperator, text: string(t.data[start:t.pos])}, true
			}
			t.pos++
		}
	}
	return token{}, false
}

func (t *tokenizer) skipToEOL() {
	for t.pos < len(t.data) && t.data[t.pos] != '\n' {
		t.pos++
	}
}

// skipString skips a (...) literal with nesting and backslash escapes.
func (t *tokenizer) skipString() {
	depth := 0
	for t.pos < len(t.data) {
		switch t.data[t.pos] {
		case '\\':
			t.pos++ // skip the escaped byte
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				t.pos++
				return
			}
		}
		t.pos++
	}
}

// skipAngle skips a hex string <...> or a dictionary <<...>>.
func (t *tokenizer) skipAngle() {
	if t.pos+1 < len(t.data) && t.data[t.pos+1] == '<' {
		t.pos += 2
		return // "<<" acts as a delimiter; dict contents tokenize normally
	}
	for t.pos < len(t.data) && t.data[t.pos] != '>' {
		t.pos++
	}
	if t.pos < len(t.data) {
		t.pos++
	}
}

// skipInlineImage advances past a BI ... ID <binary> EI block.
func (t *tokenizer) skipInlineImage() {
	for t.pos+1 < len(t.data) {
		if t.data[t.pos] == 'E' && t.data[t.pos+1] == 'I' &&
			(t.pos+2 >= len(t.data) || isWhite(t.data[t.pos+2])) {
			t.pos += 2
			return
		}
		t.pos++
	}
	t.pos = len(t.data)
}
