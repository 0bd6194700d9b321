package domain

import "maps"

// Document is a retrieved passage. It is immutable once built.
type Document struct {
	content  string
	metadata map[string]string
	score    float64
}

// NewDocument copies metadata so later changes to the caller's map do not leak in.
func NewDocument(content string, metadata map[string]string, score float64) Document {
	return Document{content: content, metadata: maps.Clone(metadata), score: score}
}

// Content returns the passage text.
func (d Document) Content() string { return d.content }

// Metadata returns a copy of the metadata map.
func (d Document) Metadata() map[string]string { return maps.Clone(d.metadata) }

// MetadataValue returns one metadata value.
func (d Document) MetadataValue(key string) (string, bool) {
	v, ok := d.metadata[key]
	return v, ok
}

// Score returns the similarity score, higher is more similar.
func (d Document) Score() float64 { return d.score }
