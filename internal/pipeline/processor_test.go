package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"menud/constants"
	"menud/internal/common"
	"menud/internal/extract"
	"menud/internal/llm"
	"menud/internal/repository"
)

type fakeExtractor struct {
	result extract.TextExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return f.result, f.err
}

type fakeOCR struct {
	text string
	err  error
	got  []byte
}

func (f *fakeOCR) ExtractImage(_ context.Context, image []byte) (string, error) {
	f.got = image
	return f.text, f.err
}

type fakeStructurer struct {
	out []byte
	err error
}

func (f *fakeStructurer) Structure(context.Context, string) ([]byte, error) {
	return f.out, f.err
}

type fakeRepo struct {
	id   int64
	err  error
	menu *llm.StructuredMenu
}

func (f *fakeRepo) Persist(_ context.Context, menu *llm.StructuredMenu) (int64, error) {
	f.menu = menu
	return f.id, f.err
}

func (f *fakeRepo) ListMenuItemRows(context.Context) ([]repository.MenuItemRow, error) {
	return nil, nil
}

const structuredDoc = `{
	"restaurant": {"name": "Café México", "location": "Cancún"},
	"menu_sections": [
		{"section_name": "Entrées", "items": [
			{"name": "Crème Brûlée", "description": null, "price": 9.5, "dietary_restriction_id": 3}
		]}
	]
}`

func newTestProcessor(t *testing.T, ex extract.TextExtractor, ocr extract.ImageOCR, st llm.MenuStructurer, repo repository.MenuRepository) (*Processor, string) {
	t.Helper()
	scratch := t.TempDir()
	return NewProcessor(ex, ocr, st, repo, scratch, nil), scratch
}

func upload(name, content string) Upload {
	return Upload{Filename: name, Content: strings.NewReader(content)}
}

func TestProcessRejectsUnsupportedExtension(t *testing.T) {
	p, _ := newTestProcessor(t,
		&fakeExtractor{}, &fakeOCR{}, &fakeStructurer{}, &fakeRepo{})

	res, err := p.Process(context.Background(), upload("menu.docx", "x"))
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if res.Stage != constants.StageFailed {
		t.Errorf("stage = %s, want FAILED", res.Stage)
	}
}

func TestProcessSuccessNormalizesBeforePersist(t *testing.T) {
	repo := &fakeRepo{id: 42}
	p, scratch := newTestProcessor(t,
		&fakeExtractor{result: extract.TextExtractionResult{Text: "menu text", Method: "pdf-text", Pages: 2}},
		&fakeOCR{err: common.ErrOCRUnavailable},
		&fakeStructurer{out: []byte(structuredDoc)},
		repo)

	res, err := p.Process(context.Background(), upload("menu.pdf", "%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stage != constants.StageDone || res.MenuID != 42 {
		t.Errorf("result = %+v", res)
	}
	if res.ExtractionMethod != "pdf-text" || res.Pages != 2 {
		t.Errorf("extraction metadata = %+v", res)
	}

	if repo.menu == nil {
		t.Fatal("repository never saw the menu")
	}
	if repo.menu.Restaurant.Name != "Cafe Mexico" {
		t.Errorf("restaurant = %q, diacritics not stripped", repo.menu.Restaurant.Name)
	}
	if repo.menu.MenuSections[0].SectionName != "Entrees" {
		t.Errorf("section = %q, diacritics not stripped", repo.menu.MenuSections[0].SectionName)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch dir not cleaned, %d entries left", len(entries))
	}
}

func TestProcessImageGoesStraightToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "SOUP OF THE DAY 5.00"}
	repo := &fakeRepo{id: 7}
	p, _ := newTestProcessor(t,
		&fakeExtractor{err: errors.New("should not be called")},
		ocr,
		&fakeStructurer{out: []byte(structuredDoc)},
		repo)

	res, err := p.Process(context.Background(), upload("menu.jpg", "fake image bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExtractionMethod != "image-ocr" {
		t.Errorf("method = %q, want image-ocr", res.ExtractionMethod)
	}
	if string(ocr.got) != "fake image bytes" {
		t.Errorf("ocr received %q", ocr.got)
	}
}

func TestProcessPDFFallsBackToOCR(t *testing.T) {
	ocr := &fakeOCR{text: "scanned menu text"}
	p, _ := newTestProcessor(t,
		&fakeExtractor{err: common.ErrNoExtractableText},
		ocr,
		&fakeStructurer{out: []byte(structuredDoc)},
		&fakeRepo{id: 9})

	res, err := p.Process(context.Background(), upload("scan.pdf", "%PDF scanned"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExtractionMethod != "image-ocr" {
		t.Errorf("method = %q, want image-ocr", res.ExtractionMethod)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a fallback warning")
	}
}

func TestProcessFailsWhenOCRUnavailable(t *testing.T) {
	p, scratch := newTestProcessor(t,
		&fakeExtractor{err: common.ErrNoExtractableText},
		&fakeOCR{err: common.ErrOCRUnavailable},
		&fakeStructurer{},
		&fakeRepo{})

	res, err := p.Process(context.Background(), upload("scan.pdf", "%PDF scanned"))
	if !errors.Is(err, common.ErrOCRUnavailable) {
		t.Fatalf("expected ErrOCRUnavailable, got %v", err)
	}
	if res.Stage != constants.StageFailed {
		t.Errorf("stage = %s, want FAILED", res.Stage)
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch dir not cleaned on failure, %d entries left", len(entries))
	}
}

func TestProcessStructuringErrorPropagates(t *testing.T) {
	p, _ := newTestProcessor(t,
		&fakeExtractor{result: extract.TextExtractionResult{Text: "menu text"}},
		&fakeOCR{},
		&fakeStructurer{err: common.ErrStructuring},
		&fakeRepo{})

	res, err := p.Process(context.Background(), upload("menu.pdf", "%PDF"))
	if !errors.Is(err, common.ErrStructuring) {
		t.Fatalf("expected ErrStructuring, got %v", err)
	}
	if res.Stage != constants.StageFailed {
		t.Errorf("stage = %s, want FAILED", res.Stage)
	}
}

func TestProcessRejectsOffSchemaDocument(t *testing.T) {
	p, _ := newTestProcessor(t,
		&fakeExtractor{result: extract.TextExtractionResult{Text: "menu text"}},
		&fakeOCR{},
		&fakeStructurer{out: []byte(`{"restaurant": {"name": "x"}}`)},
		&fakeRepo{})

	_, err := p.Process(context.Background(), upload("menu.pdf", "%PDF"))
	if !errors.Is(err, common.ErrMalformedData) {
		t.Fatalf("expected ErrMalformedData, got %v", err)
	}
}

func TestProcessPersistErrorPropagates(t *testing.T) {
	p, _ := newTestProcessor(t,
		&fakeExtractor{result: extract.TextExtractionResult{Text: "menu text"}},
		&fakeOCR{},
		&fakeStructurer{out: []byte(structuredDoc)},
		&fakeRepo{err: common.ErrPersist})

	res, err := p.Process(context.Background(), upload("menu.pdf", "%PDF"))
	if !errors.Is(err, common.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if res.Stage != constants.StageFailed {
		t.Errorf("stage = %s, want FAILED", res.Stage)
	}
}
