package mapper

import (
	"github.com/codeatlas-io/codeatlas/internal/element"
)

// Scoring baselines and boosts. A fenced code block naming a symbol is much
// stronger evidence than prose mentioning the same word, so code blocks start
// higher and paragraphs can never catch up on equal corroboration.
const (
	codeBlockBaseline = 0.7
	paragraphBaseline = 0.5

	codeBlockExactCaseBoost = 0.05
	paragraphExactCaseBoost = 0.1
	qualifiedNameBoost      = 0.15
	baseClassProximityBoost = 0.1
)

// MatchContext captures everything confidence scoring looks at for one
// doc→code name match. It carries no references into the element lists so
// Score stays a pure function over plain values.
type MatchContext struct {
	// ElementType is the documentation element kind the match occurred in.
	// Only CODE_BLOCK and PARAGRAPH participate in reference matching.
	ElementType element.ElementType

	// ExactCase reports whether the name matched with identical casing,
	// not just case-insensitively.
	ExactCase bool

	// QualifiedNamePresent reports whether the element's full qualified
	// name (module.Class.member) also appears in the content.
	QualifiedNamePresent bool

	// BaseClassNearby reports whether one of the element's declared base
	// classes appears within the proximity window around the match.
	BaseClassNearby bool
}

// Score computes the confidence for one match. Deterministic and
// side-effect free; the result is clamped to [0, 1].
func Score(m MatchContext) float64 {
	var score float64
	switch m.ElementType {
	case element.TypeCodeBlock:
		score = codeBlockBaseline
		if m.ExactCase {
			score += codeBlockExactCaseBoost
		}
	case element.TypeParagraph:
		score = paragraphBaseline
		if m.ExactCase {
			score += paragraphExactCaseBoost
		}
	default:
		return 0
	}

	if m.QualifiedNamePresent {
		score += qualifiedNameBoost
	}
	if m.BaseClassNearby {
		score += baseClassProximityBoost
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ExtractContext returns a slice of content centered on pos, at most window
// bytes to each side. Used for match diagnostics, never for scoring.
func ExtractContext(content string, pos, window int) string {
	if pos < 0 || pos > len(content) {
		return ""
	}
	start := pos - window
	if start < 0 {
		start = 0
	}
	end := pos + window
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}
