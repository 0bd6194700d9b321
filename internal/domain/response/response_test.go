package response

import "testing"

func TestSource_CopiesMetadata(t *testing.T) {
	meta := map[string]string{"source": "a.md"}
	s := NewSource("a.md", "text", meta)

	meta["source"] = "changed"
	if s.Metadata()["source"] != "a.md" {
		t.Error("caller map change leaked into Source")
	}

	got := s.Metadata()
	got["source"] = "mutated"
	if s.Metadata()["source"] != "a.md" {
		t.Error("returned map must be a copy")
	}
}

func TestResponse_HasAnswerFollowsAnswer(t *testing.T) {
	r := New(NewAnswer("no", false), nil, "q", 0)
	if r.HasAnswer() {
		t.Error("expected no answer")
	}
	r = New(NewAnswer("yes", true), []Source{NewSource("f", "e", nil)}, "q", 1)
	if !r.HasAnswer() || r.RetrievalCount() != 1 || len(r.Sources()) != 1 {
		t.Errorf("unexpected response: %+v", r)
	}
}

func TestResponse_SourcesAreCopied(t *testing.T) {
	in := []Source{NewSource("a.md", "first", nil)}
	r := New(NewAnswer("yes", true), in, "q", 1)

	in[0] = NewSource("changed.md", "x", nil)
	got := r.Sources()
	if got[0].Filename() != "a.md" {
		t.Fatalf("caller slice change leaked into Response: %q", got[0].Filename())
	}

	got[0] = NewSource("mutated.md", "y", nil)
	if r.Sources()[0].Filename() != "a.md" {
		t.Error("returned slice must be a copy")
	}
}
