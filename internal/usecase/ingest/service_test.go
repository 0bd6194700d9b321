package ingest

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kailas-cloud/raggate/internal/domain"
	dombatch "github.com/kailas-cloud/raggate/internal/domain/batch"
	"github.com/kailas-cloud/raggate/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
	calls   int
}

func (m *mockEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type upsertCall struct {
	ids   []string
	texts []string
	metas []map[string]string
}

type mockUpserter struct {
	err   error
	calls []upsertCall
}

func (m *mockUpserter) Upsert(_ context.Context, ids []string, _ [][]float32, texts []string, metas []map[string]string) error {
	m.calls = append(m.calls, upsertCall{ids: ids, texts: texts, metas: metas})
	return m.err
}

func item(id, content, source string) Item {
	return Item{ID: id, Content: content, Metadata: map[string]string{"source": source}}
}

// --- Tests ---

func TestIngest_Success(t *testing.T) {
	emb := &mockEmbedder{}
	up := &mockUpserter{}
	svc := New(emb, up, Options{}, nil)

	results := svc.Ingest(context.Background(), []Item{
		item("faq-1", "RAG pairs retrieval with generation.", "faq.md"),
		{ID: "guide-1", Content: "Vectors live in an index.", Metadata: map[string]string{"filename": "guide.pdf"}},
	})

	ok, failed := dombatch.Summary(results)
	if ok != 2 || failed != 0 {
		t.Fatalf("ok=%d failed=%d", ok, failed)
	}
	if len(up.calls) != 1 || len(up.calls[0].ids) != 2 {
		t.Fatalf("expected one upsert of 2, got %+v", up.calls)
	}
	if up.calls[0].metas[1]["source"] != "guide.pdf" {
		t.Errorf("source must default to filename, got %v", up.calls[0].metas[1])
	}
}

func TestIngest_GeneratesID(t *testing.T) {
	up := &mockUpserter{}
	results := New(&mockEmbedder{}, up, Options{}, nil).Ingest(context.Background(), []Item{
		item("  ", "No id given.", "notes.md"),
	})

	if results[0].Status() != dombatch.StatusOK {
		t.Fatalf("unexpected error: %v", results[0].Err())
	}
	if len(results[0].ID()) != 36 {
		t.Errorf("expected uuid, got %q", results[0].ID())
	}
	if up.calls[0].ids[0] != results[0].ID() {
		t.Error("reported id must match the stored id")
	}
}

func TestIngest_InvalidItemsSkipped(t *testing.T) {
	up := &mockUpserter{}
	results := New(&mockEmbedder{}, up, Options{}, nil).Ingest(context.Background(), []Item{
		item("a", "good passage", "a.md"),
		item("b", "   ", "b.md"),
		{ID: "c", Content: "no source at all"},
		item("bad id!", "text", "d.md"),
		item("e", "another good one", "e.md"),
	})

	want := []dombatch.ItemStatus{dombatch.StatusOK, dombatch.StatusError, dombatch.StatusError, dombatch.StatusError, dombatch.StatusOK}
	for i, r := range results {
		if r.Status() != want[i] {
			t.Errorf("item %d: status %q, want %q (%v)", i, r.Status(), want[i], r.Err())
		}
		if r.Status() == dombatch.StatusError && !errors.Is(r.Err(), domain.ErrInvalidDocument) {
			t.Errorf("item %d: expected ErrInvalidDocument, got %v", i, r.Err())
		}
	}
	if got := up.calls[0].ids; len(got) != 2 || got[0] != "a" || got[1] != "e" {
		t.Errorf("upserted ids = %v", got)
	}
}

func TestIngest_Batches(t *testing.T) {
	emb := &mockEmbedder{}
	up := &mockUpserter{}
	svc := New(emb, up, Options{BatchSize: 2}, nil)

	items := make([]Item, 5)
	for i := range items {
		items[i] = item(string(rune('a'+i)), "passage", "s.md")
	}
	svc.Ingest(context.Background(), items)

	if emb.calls != 3 || len(up.calls) != 3 {
		t.Errorf("embed calls=%d upsert calls=%d, want 3/3", emb.calls, len(up.calls))
	}
	if len(up.calls[2].ids) != 1 || up.calls[2].ids[0] != "e" {
		t.Errorf("last chunk = %v", up.calls[2].ids)
	}
}

func TestIngest_TooMany(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(emb, &mockUpserter{}, Options{MaxItems: 2}, nil)

	results := svc.Ingest(context.Background(), []Item{item("a", "x", "s"), item("b", "x", "s"), item("c", "x", "s")})

	for _, r := range results {
		if !errors.Is(r.Err(), domain.ErrInvalidDocument) || !strings.Contains(r.Err().Error(), "exceeds 2") {
			t.Errorf("expected size error, got %v", r.Err())
		}
	}
	if emb.calls != 0 {
		t.Error("nothing may be embedded")
	}
}

func TestIngest_ChunkFailuresAreLocal(t *testing.T) {
	call := 0
	emb := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		call++
		if call == 1 {
			return nil, errors.New("provider 500")
		}
		return make([][]float32, len(texts)), nil
	}}
	svc := New(emb, &mockUpserter{}, Options{BatchSize: 1}, nil)

	results := svc.Ingest(context.Background(), []Item{item("a", "x", "s"), item("b", "y", "s")})

	if results[0].Status() != dombatch.StatusError || !strings.Contains(results[0].Err().Error(), "embed") {
		t.Errorf("first = %q %v", results[0].Status(), results[0].Err())
	}
	if results[1].Status() != dombatch.StatusOK {
		t.Errorf("second should succeed, got %v", results[1].Err())
	}
}

func TestIngest_UpsertError(t *testing.T) {
	up := &mockUpserter{err: errors.New("READONLY")}
	results := New(&mockEmbedder{}, up, Options{}, nil).Ingest(context.Background(), []Item{item("a", "x", "s")})

	if results[0].Status() != dombatch.StatusError || !strings.Contains(results[0].Err().Error(), "upsert") {
		t.Errorf("got %q %v", results[0].Status(), results[0].Err())
	}
}

func TestIngest_CancelStopsRemaining(t *testing.T) {
	emb := &mockEmbedder{embedFn: func(context.Context, []string) ([][]float32, error) {
		return nil, context.Canceled
	}}
	svc := New(emb, &mockUpserter{}, Options{BatchSize: 1}, nil)

	results := svc.Ingest(context.Background(), []Item{item("a", "x", "s"), item("b", "y", "s"), item("c", "z", "s")})

	if emb.calls != 1 {
		t.Errorf("embed calls = %d, want 1", emb.calls)
	}
	for i, r := range results {
		if !errors.Is(r.Err(), context.Canceled) {
			t.Errorf("item %d: expected cancellation, got %v", i, r.Err())
		}
	}
	if results[2].ID() != "c" {
		t.Errorf("ID = %q", results[2].ID())
	}
}
