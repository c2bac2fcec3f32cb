package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"menud/internal/common"
)

// menuPDF builds a minimal one-font PDF with one page per entry in pageTexts.
// An empty string produces a page with an empty content stream, i.e. a blank
// page. Object offsets in the xref table are computed while writing, so the
// document is structurally valid.
func menuPDF(pageTexts []string) []byte {
	var buf bytes.Buffer
	n := len(pageTexts)
	objCount := 2 + 2*n + 1 // catalog, pages, page+content per entry, font
	offsets := make([]int, objCount+1)

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	fontObj := objCount
	buf.WriteString("%PDF-1.4\n")
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < n; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))

	for i := 0; i < n; i++ {
		writeObj(3+i, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, 3+n+i))
	}
	for i, text := range pageTexts {
		stream := ""
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		writeObj(3+n+i, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	writeObj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", objCount+1)
	for i := 1; i <= objCount; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		objCount+1, xrefPos)
	return buf.Bytes()
}

func TestPDFExtractMissingFile(t *testing.T) {
	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPDFExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 this is not a real pdf body"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestPDFExtractNonPDFBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.pdf")
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrCorruptDocument) {
		t.Fatalf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestPDFExtractSkipsBlankPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.pdf")
	if err := os.WriteFile(path, menuPDF([]string{"page one", "", "page three"}), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewPDFExtractor(nil)
	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "page one\n\npage three" {
		t.Errorf("text = %q, want %q", res.Text, "page one\n\npage three")
	}
	if res.Pages != 3 {
		t.Errorf("pages = %d, want 3", res.Pages)
	}
}

func TestPDFExtractAllBlankPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, menuPDF([]string{"", ""}), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewPDFExtractor(nil)
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrNoExtractableText) {
		t.Fatalf("expected ErrNoExtractableText, got %v", err)
	}
}

func TestJoinPageTexts(t *testing.T) {
	cases := []struct {
		name  string
		pages []string
		want  string
	}{
		{"none", nil, ""},
		{"single", []string{"Starters"}, "Starters"},
		{"ordered", []string{"Starters", "Mains", "Desserts"}, "Starters\n\nMains\n\nDesserts"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := joinPageTexts(c.pages); got != c.want {
				t.Errorf("joinPageTexts(%v) = %q, want %q", c.pages, got, c.want)
			}
		})
	}
}
