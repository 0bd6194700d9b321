package guardrail

import (
	"regexp"
	"strings"

	"github.com/kailas-cloud/raggate/internal/domain/threat"
	"github.com/kailas-cloud/raggate/internal/domain/validation"
)

const maxNewlines = 10

// Manipulation phrasing. The table is heuristic, not exhaustive.
var injectionPatterns = []pattern{
	// Instruction override.
	{regexp.MustCompile(`(?i)\bignore\s+(all\s+)?(of\s+)?(the\s+|your\s+)?(previous|prior|above|earlier|preceding|former)\s+(instructions?|prompts?|rules?|directions?|guidelines?|context)`), "instruction override"},
	{regexp.MustCompile(`(?i)\bdisregard\s+(all\s+)?(the\s+|your\s+)?(previous|prior|above|earlier|preceding)?\s*(instructions?|prompts?|rules?|guidelines?)`), "instruction override"},
	{regexp.MustCompile(`(?i)\bforget\s+(all\s+|everything\s+)?(about\s+)?(your|the|previous|prior|my)\s+(instructions?|rules?|training|guidelines?)`), "instruction override"},
	{regexp.MustCompile(`(?i)\bforget\s+everything\b`), "instruction override"},
	{regexp.MustCompile(`(?i)\boverride\s+(your|the|all)\s+(instructions?|rules?|settings|guidelines?)`), "instruction override"},

	// Role switch and jailbreak.
	{regexp.MustCompile(`(?i)(^|[.!?;:]\s*|\byou\s+(will|must|should|shall|can)\s+(now\s+)?)(please\s+)?act\s+as\s+(a|an|if|my|the)\b`), "role switch"},
	{regexp.MustCompile(`(?i)\b(i\s+(want|need|would\s+like)\s+you\s+to|(can|could|would|will)\s+you(\s+please)?|now)\s+act\s+as\s+(a|an|if|my|the)\b`), "role switch"},
	{regexp.MustCompile(`(?i)\byou\s+are\s+(now|no\s+longer)\s+`), "role switch"},
	{regexp.MustCompile(`(?i)\bpretend\s+(to\s+be|you\s+are|that\s+you)\b`), "role switch"},
	{regexp.MustCompile(`(?i)\brole[\s-]?play\s+as\b`), "role switch"},
	{regexp.MustCompile(`(?i)\bfrom\s+now\s+on,?\s+(you|respond|answer|act)\b`), "role switch"},
	{regexp.MustCompile(`(?i)\bjailbr(eak|oken)\b`), "jailbreak"},
	{regexp.MustCompile(`(?i)\bdo\s+anything\s+now\b`), "jailbreak"},
	{regexp.MustCompile(`(?i)\b(developer|god|sudo|unrestricted)\s+mode\b`), "jailbreak"},
	{regexp.MustCompile(`(?i)\b(bypass|disable|ignore|turn\s+off)\s+(your\s+|the\s+|all\s+)?(safety|guardrails?|filters?|restrictions?|content\s+polic(y|ies))`), "jailbreak"},

	// System prompt extraction.
	{regexp.MustCompile(`(?i)\b(show|reveal|print|display|tell|repeat|output|give|leak|dump)\s+(me\s+)?(all\s+)?(of\s+)?(your\s+(system\s+|initial\s+|original\s+|hidden\s+|secret\s+)?(prompt|instructions)|the\s+(system|initial|original|hidden|secret)\s+(prompt|instructions))`), "system prompt extraction"},
	{regexp.MustCompile(`(?i)\bwhat\s+(is|are|was|were)\s+your\s+(system\s+|initial\s+|original\s+|hidden\s+)?(prompt|instructions)\b`), "system prompt extraction"},

	// Chat-template delimiters.
	{regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:`), "role delimiter"},
	{regexp.MustCompile(`(?i)<\|?(im_start|im_end|endoftext)\|?>|\[/?INST\]|<<\s*/?SYS\s*>>`), "template delimiter"},
}

// InjectionDetector flags manipulation attempts in an already validated question.
type InjectionDetector struct{}

// NewInjectionDetector creates a detector over the built-in pattern table.
func NewInjectionDetector() *InjectionDetector { return &InjectionDetector{} }

// Detect checks text. All hits are CRITICAL.
func (d *InjectionDetector) Detect(text string) validation.Result {
	if p, ok := matchAny(injectionPatterns, text); ok {
		return validation.Fail(validation.ReasonInjection+": "+p.detail, threat.Critical)
	}
	if strings.Count(text, "\n") > maxNewlines {
		return validation.Fail(validation.ReasonExcessiveNewline, threat.Critical)
	}
	if strings.Contains(text, "```") {
		return validation.Fail(validation.ReasonCodeBlock, threat.Critical)
	}
	return validation.Pass(text)
}
