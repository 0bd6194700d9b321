// Package response shapes the caller-facing result from the answer and its documents.
package response

import (
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain"
	domresp "github.com/kailas-cloud/raggate/internal/domain/response"
)

const (
	// ExcerptLength bounds source excerpts, in runes.
	ExcerptLength = 200
	// TruncationMarker is appended to cut excerpts.
	TruncationMarker = "..."
	// UnknownFilename is used when metadata names no file.
	UnknownFilename = "unknown"
	// NoDocumentsAnswer is returned when retrieval finds nothing.
	NoDocumentsAnswer = "I couldn't find any relevant documents to answer your question."
)

// noInformation phrases mark a model reply that does not answer the question.
var noInformation = []string{
	"i don't have enough information",
	"i do not have enough information",
	"no relevant information",
	"i couldn't find any relevant",
	"the context does not contain",
	"not mentioned in the provided context",
}

// filenameKeys are tried in order when promoting a filename.
var filenameKeys = []string{"filename", "source"}

// Formatter builds Response values. It holds no state.
type Formatter struct{}

// Format builds the response for a generated answer.
func (Formatter) Format(answer string, docs []domain.Document, query string) domresp.Response {
	sources := make([]domresp.Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, domresp.NewSource(Filename(d), Excerpt(d.Content()), d.Metadata()))
	}
	return domresp.New(domresp.NewAnswer(answer, HasAnswer(answer)), sources, query, len(docs))
}

// NoDocuments builds the response for an empty retrieval.
func (Formatter) NoDocuments(query string) domresp.Response {
	return domresp.New(domresp.NewAnswer(NoDocumentsAnswer, false), []domresp.Source{}, query, 0)
}

// HasAnswer reports whether answer is non-blank and carries none of the no-information phrases.
func HasAnswer(answer string) bool {
	lower := strings.ToLower(strings.TrimSpace(answer))
	if lower == "" {
		return false
	}
	// Models emit typographic apostrophes as often as ASCII ones.
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, p := range noInformation {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// Excerpt returns content cut to ExcerptLength runes plus TruncationMarker.
func Excerpt(content string) string {
	r := []rune(content)
	if len(r) <= ExcerptLength {
		return content
	}
	return string(r[:ExcerptLength]) + TruncationMarker
}

// Filename promotes a file name from document metadata.
func Filename(d domain.Document) string {
	for _, k := range filenameKeys {
		if v, ok := d.MetadataValue(k); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return UnknownFilename
}
