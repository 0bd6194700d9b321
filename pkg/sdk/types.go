package raggate

// Source summarizes one retrieved passage.
type Source struct {
	Filename string
	Excerpt  string
	Metadata map[string]string
}

// Answer is the result of a query.
type Answer struct {
	Text           string
	HasAnswer      bool
	Query          string
	RetrievalCount int
	Sources        []Source
}

// Document is a passage to ingest. A blank ID gets a generated one.
// Metadata needs "source" or "filename".
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// IngestResult is the per-document outcome of Ingest.
type IngestResult struct {
	ID  string
	Err error
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
	// GenerationReady is false until the first answer forced the backend to be built.
	GenerationReady bool
	Provider        string
	Model           string
}
