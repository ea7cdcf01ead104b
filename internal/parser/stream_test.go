package parser

import "testing"

func TestTokenizer_Basics(t *testing.T) {
	data := []byte("q 1 0 0 1 100 200 cm /Im1 Do Q")
	tok := newTokenizer(data)

	var kinds []tokKind
	var texts []string
	for {
		tk, ok := tok.next()
		if !ok {
			break
		}
		kinds = append(kinds, tk.kind)
		if tk.kind != tokNumber {
			texts = append(texts, tk.text)
		}
	}

	wantKinds := []tokKind{
		tokOperator,
		tokNumber, tokNumber, tokNumber, tokNumber, tokNumber, tokNumber,
		tokOperator, tokName, tokOperator, tokOperator,
	}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("expected %d tokens, got %d", len(wantKinds), len(kinds))
	}
	for i := range kinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("token %d: kind %d, want %d", i, kinds[i], wantKinds[i])
		}
	}
	wantTexts := []string{"q", "cm", "Im1", "Do", "Q"}
	for i := range texts {
		if texts[i] != wantTexts[i] {
			t.Errorf("text %d: %q, want %q", i, texts[i], wantTexts[i])
		}
	}
}

func TestTokenizer_SkipsStringsAndDicts(t *testing.T) {
	// String literals (with nesting and escapes), hex strings, and comments
	// must not leak tokens.
	data := []byte("(literal (nested) \\) text) <48656C6C6F> % comment\nBT")
	tok := newTokenizer(data)

	tk, ok := tok.next()
	if !ok {
		t.Fatal("expected a token")
	}
	if tk.kind != tokOperator || tk.text != "BT" {
		t.Fatalf("expected BT operator, got kind=%d text=%q", tk.kind, tk.text)
	}
	if _, ok := tok.next(); ok {
		t.Error("expected end of stream")
	}
}

func TestTokenizer_NegativeAndDecimalNumbers(t *testing.T) {
	tok := newTokenizer([]byte("-12.5 .25 3"))
	want := []float64{-12.5, 0.25, 3}
	for i, w := range want {
		tk, ok := tok.next()
		if !ok {
			t.Fatalf("token %d missing", i)
		}
		if tk.kind != tokNumber || tk.num != w {
			t.Errorf("token %d: got %v, want %v", i, tk.num, w)
		}
	}
}

func TestMatrixMul_TranslationComposition(t *testing.T) {
	// Scale then translate: image placed at (100,200) scaled 50x30.
	ctm := identity
	ctm = mul(matrix{50, 0, 0, 30, 100, 200}, ctm)

	if ctm[4] != 100 || ctm[5] != 200 {
		t.Errorf("translation: got (%g,%g)", ctm[4], ctm[5])
	}
	if ctm[0] != 50 || ctm[3] != 30 {
		t.Errorf("scale: got (%g,%g)", ctm[0], ctm[3])
	}

	// A second translation composes on top.
	ctm = mul(matrix{1, 0, 0, 1, 10, 20}, ctm)
	if ctm[4] != 100+10*50 || ctm[5] != 200+20*30 {
		t.Errorf("composed translation: got (%g,%g)", ctm[4], ctm[5])
	}
}

func TestTokenizer_SkipInlineImage(t *testing.T) {
	data := []byte("BI /W 2 /H 2 ID \x00\x01EI\n/Im1 Do")
	tok := newTokenizer(data)

	// Consume BI, then skip to EI the way the scanner does.
	tk, _ := tok.next()
	if tk.text != "BI" {
		t.Fatalf("expected BI, got %q", tk.text)
	}
	tok.skipInlineImage()

	tk, ok := tok.next()
	if !ok || tk.kind != tokName || tk.text != "Im1" {
		t.Fatalf("expected /Im1 after inline image, got %+v", tk)
	}
}
