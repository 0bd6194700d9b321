package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// fakeRuntime records the last request and replies with body or err.
type fakeRuntime struct {
	lastModel string
	lastBody  []byte
	body      string
	err       error
}

func (f *fakeRuntime) InvokeModel(
	_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options),
) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastModel = *in.ModelId
	f.lastBody = in.Body
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestEmbedder_Embed(t *testing.T) {
	rt := &fakeRuntime{body: `{"embedding":[0.1,0.2,0.3],"inputTextTokenCount":7}`}
	emb := NewEmbedder(rt, "amazon.titan-embed-text-v2:0", 3, nil)

	res, err := emb.Embed(context.Background(), "What is RAG?")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(res.Embedding) != 3 || res.PromptTokens != 7 {
		t.Errorf("result = %+v", res)
	}
	if rt.lastModel != "amazon.titan-embed-text-v2:0" {
		t.Errorf("model = %q", rt.lastModel)
	}

	var req titanRequest
	if err := json.Unmarshal(rt.lastBody, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if req.InputText != "What is RAG?" || req.Dimensions != 3 || !req.Normalize {
		t.Errorf("request = %+v", req)
	}
}

func TestEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name string
		rt   *fakeRuntime
	}{
		{"invoke error", &fakeRuntime{err: errors.New("throttled")}},
		{"empty vector", &fakeRuntime{body: `{"embedding":[]}`}},
		{"bad json", &fakeRuntime{body: `{`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEmbedder(tc.rt, "m", 0, nil).Embed(context.Background(), "x")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
			}
		})
	}
}

func TestEmbedder_BatchViaFallback(t *testing.T) {
	rt := &fakeRuntime{body: `{"embedding":[1,0],"inputTextTokenCount":2}`}
	res, err := domain.BatchFallback(context.Background(), NewEmbedder(rt, "m", 2, nil), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 4 {
		t.Errorf("result = %+v", res)
	}
}

func TestGenerator_Generate(t *testing.T) {
	rt := &fakeRuntime{body: `{
		"content":[{"type":"text","text":" RAG pairs retrieval "},{"type":"text","text":"with generation. "}],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":40,"output_tokens":9}
	}`}
	gen := NewGenerator(rt, GeneratorConfig{Model: "anthropic.claude-3-haiku", Temperature: 0.1}, nil)

	out, err := gen.Generate(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "rules"},
		{Role: domain.RoleUser, Content: "What is RAG?"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "RAG pairs retrieval with generation." {
		t.Errorf("answer = %q", out)
	}

	var req claudeRequest
	if err := json.Unmarshal(rt.lastBody, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if req.AnthropicVersion != anthropicVersion {
		t.Errorf("anthropic_version = %q", req.AnthropicVersion)
	}
	if req.System != "rules" {
		t.Errorf("system = %q", req.System)
	}
	if req.MaxTokens != 1024 {
		t.Errorf("max_tokens default = %d", req.MaxTokens)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestGenerator_InvokeError(t *testing.T) {
	gen := NewGenerator(&fakeRuntime{err: errors.New("access denied")}, GeneratorConfig{Model: "m"}, nil)
	_, err := gen.Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "x"}})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Errorf("expected ErrGenerationProviderError, got %v", err)
	}
}
