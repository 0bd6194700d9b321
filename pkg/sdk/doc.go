// Package raggate embeds the guarded retrieval-augmented answering pipeline
// in a Go program, without running the HTTP server.
//
//	client, err := raggate.New(ctx, raggate.WithEnv("local"))
//	if err != nil { ... }
//	defer client.Close()
//
//	_ = client.Ingest(ctx, []raggate.Document{{Content: "...", Metadata: map[string]string{"source": "faq.md"}}})
//	ans, err := client.Query(ctx, "What is RAG?", raggate.WithK(4))
//	if errors.Is(err, raggate.ErrGuardrailViolation) { ... }
package raggate
