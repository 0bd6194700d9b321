// Package document holds the passage aggregate accepted for indexing.
package document

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxContentSize is the maximum passage size in bytes.
const MaxContentSize = 163840 // 160KB

// Metadata keys with special meaning.
const (
	KeySource   = "source"
	KeyFilename = "filename"
)

// Document is a passage waiting to be embedded and upserted (immutable value object).
type Document struct {
	id       string
	content  string
	metadata map[string]string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_.:-]+$, 1-256 chars. Content: non-blank, max 160KB.
// A missing source falls back to the filename; one of them is required.
func New(id, content string, metadata map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID must be alphanumeric with '_', '-', '.' or ':'")
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, fmt.Errorf("content is required")
	}
	if len(content) > MaxContentSize {
		return Document{}, fmt.Errorf("content too large (max %d bytes)", MaxContentSize)
	}

	meta := maps.Clone(metadata)
	if meta == nil {
		meta = map[string]string{}
	}
	if meta[KeySource] == "" {
		if meta[KeyFilename] == "" {
			return Document{}, fmt.Errorf("metadata %q or %q is required", KeySource, KeyFilename)
		}
		meta[KeySource] = meta[KeyFilename]
	}

	return Document{id: id, content: content, metadata: meta}, nil
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Content returns the passage text.
func (d Document) Content() string { return d.content }

// Metadata returns a copy of the metadata map.
func (d Document) Metadata() map[string]string { return maps.Clone(d.metadata) }

// Source returns the source identifier.
func (d Document) Source() string { return d.metadata[KeySource] }
