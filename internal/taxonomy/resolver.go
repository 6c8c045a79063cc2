// Package taxonomy maps AI-suggested paths onto a valid, bounded
// classification tree.
package taxonomy

import (
	"log/slog"
	"strings"

	"github.com/sortd/sortd/internal/model"
)

// Similarity thresholds for fuzzy resolution.
const (
	matchThreshold      = 0.3
	vocabularyThreshold = 0.2
)

// unclassifiedSentinel stands in for an empty suggestion before
// similarity scoring. The Chinese form matches what providers return
// when CategoryLanguage is zh; the resolver treats both as one token set.
const unclassifiedSentinel = "未分类 Unclassified"

// Outcome describes how a suggestion was resolved, for observability.
type Outcome string

// Resolution outcomes.
const (
	OutcomeExact      Outcome = "exact"
	OutcomeFuzzy      Outcome = "fuzzy"
	OutcomeFallback   Outcome = "fallback"
	OutcomeRoot       Outcome = "root"
	OutcomeVerbatim   Outcome = "verbatim"
	OutcomeVocabulary Outcome = "vocabulary"
)

// Resolution is the result of resolving one suggested path.
type Resolution struct {
	Path    string
	Outcome Outcome
	Score   float64
}

// LowConfidence reports whether the resolution was forced rather than
// earned (no exact or fuzzy match cleared the threshold).
func (r Resolution) LowConfidence() bool {
	return r.Outcome == OutcomeFallback
}

// Resolve maps an arbitrary suggested path to a valid classification
// bounded by cfg. existing is the flattened category set in stable
// tree order; the forced fallback in strict mode deliberately returns
// its first entry, so the same taxonomy snapshot always resolves the
// same way.
func Resolve(suggested string, existing []string, cfg model.TaxonomyConfig) Resolution {
	suggested = model.NormalizePath(suggested)
	if suggested == "" {
		suggested = unclassifiedSentinel
	}

	// Bound depth before the mode branch so no later step sees an
	// over-deep path.
	suggested = TruncateDepth(suggested, cfg.MaxDepth)

	var res Resolution
	if cfg.Mode == model.ModeFlexible {
		res = Resolution{Path: suggested, Outcome: OutcomeVerbatim}
	} else {
		res = resolveStrict(suggested, existing, cfg)
	}

	res = enforceVocabulary(res, existing, cfg)

	// A fuzzy or vocabulary match can itself exceed bounds.
	res.Path = TruncateDepth(res.Path, cfg.MaxDepth)
	return res
}

func resolveStrict(suggested string, existing []string, cfg model.TaxonomyConfig) Resolution {
	if len(existing) == 0 {
		// Do not invent a taxonomy from nothing.
		return Resolution{Path: "", Outcome: OutcomeRoot}
	}

	for _, cat := range existing {
		if cat == suggested || cat == "/"+suggested {
			return Resolution{Path: suggested, Outcome: OutcomeExact, Score: 1}
		}
	}

	best, score := bestMatch(suggested, existing)
	if score > matchThreshold {
		return Resolution{Path: best, Outcome: OutcomeFuzzy, Score: score}
	}

	slog.Debug("No fuzzy match above threshold, forcing fallback",
		"suggested", suggested,
		"best_score", score,
		"fallback", existing[0])
	return Resolution{Path: existing[0], Outcome: OutcomeFallback, Score: score}
}

// enforceVocabulary re-routes resolutions whose top segment falls
// outside a non-empty vocabulary allow-list. An exact match is never
// rerouted: the user put that category in the tree on purpose.
func enforceVocabulary(res Resolution, existing []string, cfg model.TaxonomyConfig) Resolution {
	if len(cfg.CategoryVocabulary) == 0 || res.Path == "" || res.Outcome == OutcomeExact {
		return res
	}

	top := topSegment(res.Path)
	for _, v := range cfg.CategoryVocabulary {
		if vocabMatches(top, v) {
			return res
		}
	}

	// One more fuzzy pass restricted to vocabulary-rooted candidates.
	candidates := make([]string, 0, len(existing))
	for _, cat := range existing {
		ct := topSegment(cat)
		for _, v := range cfg.CategoryVocabulary {
			if vocabMatches(ct, v) {
				candidates = append(candidates, cat)
				break
			}
		}
	}
	if len(candidates) == 0 {
		if cfg.Mode == model.ModeStrict {
			// Strict mode may only ever answer with a member of the
			// existing set; with no vocabulary-rooted member to offer,
			// the original resolution stands.
			return res
		}
		candidates = cfg.CategoryVocabulary
	}

	if best, score := bestMatch(res.Path, candidates); score > vocabularyThreshold {
		return Resolution{Path: best, Outcome: OutcomeVocabulary, Score: score}
	}
	return res
}

// vocabMatches accepts a segment when it prefixes a vocabulary entry
// or either string contains the other, case-insensitively.
func vocabMatches(segment, vocab string) bool {
	s, v := strings.ToLower(segment), strings.ToLower(vocab)
	if s == "" || v == "" {
		return false
	}
	return strings.HasPrefix(v, s) || strings.Contains(s, v) || strings.Contains(v, s)
}

// bestMatch returns the candidate with the highest similarity to s.
// Ties break by encounter order: the first-seen candidate wins. That
// is a documented behavioral choice for reproducibility, not an accident.
func bestMatch(s string, candidates []string) (string, float64) {
	var best string
	var bestScore float64
	for _, c := range candidates {
		if score := Similarity(s, c); score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, bestScore
}

// Similarity is Jaccard similarity over lowercased tokens split on
// whitespace and slashes. Symmetric; empty union scores 0.
func Similarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	inter := 0
	union := len(tb)
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		set[tok] = struct{}{}
	}
	return set
}

// TruncateDepth keeps at most maxDepth leading segments of p.
func TruncateDepth(p string, maxDepth int) string {
	if maxDepth < 1 || p == "" {
		return p
	}
	parts := strings.Split(p, "/")
	if len(parts) <= maxDepth {
		return p
	}
	return strings.Join(parts[:maxDepth], "/")
}

func topSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}
