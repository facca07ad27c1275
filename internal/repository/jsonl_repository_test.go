package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glutenfree/internal/model"
)

func TestJSONLWriterTruncatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte("{\"stale\":true}\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := CreateJSONL(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := &model.Product{URL: "https://example.test/Products/Details?id=1", Title: model.StringPtr("Kruh <bez> glutena & soli")}
	first.Details.Set("EAN", "111")
	second := &model.Product{URL: "https://example.test/Products/Details?id=2"}

	ctx := context.Background()
	if err := w.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	// Flushed after every record, before Close.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "stale") {
		t.Fatal("file was not truncated")
	}
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Fatalf("expected one line after first save, got %d", got)
	}

	if err := w.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	want := `{"title":"Kruh <bez> glutena & soli","url":"https://example.test/Products/Details?id=1","short_description":null,"details":{"EAN":"111"},"image":null}`
	if lines[0] != want {
		t.Fatalf("line 1:\n got %s\nwant %s", lines[0], want)
	}
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"title":"A","url":"u1","short_description":null,"details":{"EAN":"1"},"image":null}`,
		``,
		`not json`,
		`{"title":null,"url":"u2","details":{"notes":["x"]}}`,
	}, "\n")

	var urls []string
	skipped, err := ReadJSONL(strings.NewReader(input), func(p *model.Product) error {
		urls = append(urls, p.URL)
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d want 1", skipped)
	}
	if strings.Join(urls, ",") != "u1,u2" {
		t.Fatalf("urls = %v", urls)
	}
}
