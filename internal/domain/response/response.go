// Package response holds the caller-facing result of a pipeline call.
package response

import (
	"maps"
	"slices"
)

// Answer is generated text plus whether it actually answers the question.
type Answer struct {
	text      string
	hasAnswer bool
}

// NewAnswer creates an Answer. hasAnswer is derived by the formatter, not by the model.
func NewAnswer(text string, hasAnswer bool) Answer {
	return Answer{text: text, hasAnswer: hasAnswer}
}

// Text returns the answer text.
func (a Answer) Text() string { return a.text }

// HasAnswer reports whether the text carries an actual answer.
func (a Answer) HasAnswer() bool { return a.hasAnswer }

// Source summarizes one retrieved document for attribution.
type Source struct {
	filename string
	excerpt  string
	metadata map[string]string
}

// NewSource creates a Source, copying metadata.
func NewSource(filename, excerpt string, metadata map[string]string) Source {
	return Source{filename: filename, excerpt: excerpt, metadata: maps.Clone(metadata)}
}

// Filename returns the promoted file name.
func (s Source) Filename() string { return s.filename }

// Excerpt returns the bounded content excerpt.
func (s Source) Excerpt() string { return s.excerpt }

// Metadata returns a copy of the original metadata.
func (s Source) Metadata() map[string]string { return maps.Clone(s.metadata) }

// Response is the full result of one query.
type Response struct {
	answer         Answer
	sources        []Source
	query          string
	retrievalCount int
}

// New creates a Response.
func New(answer Answer, sources []Source, query string, retrievalCount int) Response {
	return Response{answer: answer, sources: slices.Clone(sources), query: query, retrievalCount: retrievalCount}
}

// Answer returns the answer.
func (r Response) Answer() Answer { return r.answer }

// Sources returns a copy of the source summaries.
func (r Response) Sources() []Source { return slices.Clone(r.sources) }

// Query returns the originating question.
func (r Response) Query() string { return r.query }

// RetrievalCount returns how many documents were retrieved.
func (r Response) RetrievalCount() int { return r.retrievalCount }

// HasAnswer reports whether the answer carries an actual answer.
func (r Response) HasAnswer() bool { return r.answer.hasAnswer }
