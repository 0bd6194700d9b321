package generation

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/kailas-cloud/raggate/internal/domain"
)

func TestFormatContext(t *testing.T) {
	docs := []domain.Document{
		domain.NewDocument("  first passage \n", map[string]string{"source": "a.md"}, 0.9),
		domain.NewDocument("second passage", map[string]string{"source": "b.md"}, 0.8),
	}

	got := FormatContext(docs)
	want := "first passage\n\n---\n\nsecond passage"
	if got != want {
		t.Errorf("FormatContext = %q, want %q", got, want)
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestFormatContext_NoMetadata(t *testing.T) {
	docs := []domain.Document{
		domain.NewDocument("Refunds take five days.", map[string]string{"source": "billing-policy.md", "chunk": "chunk-17"}, 0.9),
	}

	got := FormatContext(docs)
	for _, leak := range []string{"billing-policy.md", "chunk-17", "Document 1", "[1]"} {
		if strings.Contains(got, leak) {
			t.Errorf("context leaks %q: %q", leak, got)
		}
	}
}

func genDocs(t *rapid.T) []domain.Document {
	n := rapid.IntRange(0, 6).Draw(t, "n")
	docs := make([]domain.Document, n)
	for i := range docs {
		content := rapid.StringMatching(`[a-z ]{1,40}`).Draw(t, "content")
		meta := map[string]string{
			"source": fmt.Sprintf("SRC-%d-%s.md", i, rapid.StringMatching(`[A-Z]{6}`).Draw(t, "tag")),
		}
		docs[i] = domain.NewDocument(content, meta, 0.5)
	}
	return docs
}

func TestFormatContext_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		docs := genDocs(t)

		first := FormatContext(docs)
		if second := FormatContext(docs); first != second {
			t.Fatalf("not idempotent: %q vs %q", first, second)
		}
		if len(docs) == 0 && first != "" {
			t.Fatalf("empty list must give empty string, got %q", first)
		}
		for i, d := range docs {
			src, _ := d.MetadataValue("source")
			if strings.Contains(first, src) {
				t.Fatalf("metadata %q leaked", src)
			}
			if strings.Contains(first, fmt.Sprintf("Document %d", i+1)) {
				t.Fatalf("ordinal marker leaked")
			}
		}
	})
}
