package generation

import (
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain"
)

// Separator sits between passages in the context block.
const Separator = "\n\n---\n\n"

// FormatContext joins trimmed document contents with Separator.
// Metadata and ordinals never reach the model; sources are rebuilt from the documents afterwards.
func FormatContext(docs []domain.Document) string {
	if len(docs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(strings.TrimSpace(d.Content()))
	}
	return b.String()
}
