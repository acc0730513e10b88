package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/iris/pkg/normalizers"
)

// Scorer provides the string comparison algorithms used for catalog matching
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

// Levenshtein returns 1 - distance/max_len, counting runes rather than bytes.
func (s *Scorer) Levenshtein(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// TokenOverlap returns the share of word tokens the two strings have in common,
// relative to the longer token list. Token order is ignored.
func (s *Scorer) TokenOverlap(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		if len(ta) == len(tb) && a == b {
			return 1.0
		}
		return 0.0
	}

	counts := make(map[string]int, len(ta))
	for _, t := range ta {
		counts[t]++
	}
	common := 0
	for _, t := range tb {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}
	return float64(common) / float64(max(len(ta), len(tb)))
}

// FieldSimilarity normalizes both values and returns the better of the edit-distance
// ratio and the token overlap ratio. The result is symmetric and 1.0 for equal input.
func (s *Scorer) FieldSimilarity(a, b string) float64 {
	na, nb := normalizers.ForMatching(a), normalizers.ForMatching(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	return max(s.Levenshtein(na, nb), s.TokenOverlap(na, nb))
}

// WeightedScore averages scores weighted by their field weight. Only fields present in
// scores count toward the denominator; fields without a positive weight are ignored.
func (s *Scorer) WeightedScore(scores map[string]float64, weights map[string]float64) float64 {
	var totalWeight float64
	var weightedSum float64

	for field, score := range scores {
		weight := weights[field]
		if weight <= 0 {
			continue
		}
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
