// Package threat defines the ordered severity scale guardrails report.
package threat

// Level is a guardrail severity. Ordering: none < low < medium < high < critical.
type Level string

const (
	// None means nothing suspicious was found.
	None Level = "none"
	// Low is a cosmetic or length problem.
	Low Level = "low"
	// Medium is suspicious but not clearly hostile.
	Medium Level = "medium"
	// High is hostile markup or control bytes.
	High Level = "high"
	// Critical is a manipulation attempt or a prompt leak.
	Critical Level = "critical"
)

var ranks = map[Level]int{
	None:     0,
	Low:      1,
	Medium:   2,
	High:     3,
	Critical: 4,
}

// IsValid reports whether l is one of the five known levels.
func (l Level) IsValid() bool {
	_, ok := ranks[l]
	return ok
}

// Rank returns the ordinal of l; unknown levels rank as Medium.
func (l Level) Rank() int {
	if r, ok := ranks[l]; ok {
		return r
	}
	return ranks[Medium]
}

// String returns the level name.
func (l Level) String() string { return string(l) }

// Combine returns the higher of a and b.
// Unknown values are treated as Medium, so Combine never fails.
func Combine(a, b Level) Level {
	a, b = normalize(a), normalize(b)
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

func normalize(l Level) Level {
	if l.IsValid() {
		return l
	}
	return Medium
}
