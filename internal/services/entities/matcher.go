package entities

import (
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/models"
)

// partialBandOffset places partial matches a fixed distance below the
// fuzzy cutoff so a partial can never outrank a fuzzy match.
const partialBandOffset = 15.0

// numericTolerance is the relative difference within which two numeric
// facts of the same type still count as a partial match.
const numericTolerance = 0.05

// Matcher performs greedy one-to-one matching between strategic and
// action entities. Pairs are only comparable within the same entity
// type; each entity participates in at most one match.
type Matcher struct {
	fuzzyThreshold float64
	logger         arbor.ILogger
}

// NewMatcher creates an entity matcher from analysis configuration
func NewMatcher(config *common.AnalysisConfig, logger arbor.ILogger) *Matcher {
	return &Matcher{
		fuzzyThreshold: config.FuzzyThreshold,
		logger:         logger,
	}
}

type candidatePair struct {
	strategicIdx int
	actionIdx    int
	score        float64
	matchType    string
}

// Match pairs strategic entities with action entities. The result lists
// matches by descending score; ties resolve in extraction order so the
// matching is deterministic for identical inputs.
func (m *Matcher) Match(strategic, action []models.Entity) *models.EntityAnalysisResult {
	var candidates []candidatePair
	for si, s := range strategic {
		for ai, a := range action {
			if s.Type != a.Type {
				continue
			}
			score, matchType, ok := m.scorePair(s, a)
			if !ok {
				continue
			}
			candidates = append(candidates, candidatePair{
				strategicIdx: si,
				actionIdx:    ai,
				score:        score,
				matchType:    matchType,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].strategicIdx != candidates[j].strategicIdx {
			return candidates[i].strategicIdx < candidates[j].strategicIdx
		}
		return candidates[i].actionIdx < candidates[j].actionIdx
	})

	usedStrategic := make(map[int]bool)
	usedAction := make(map[int]bool)
	var matches []models.EntityMatch

	for _, c := range candidates {
		if usedStrategic[c.strategicIdx] || usedAction[c.actionIdx] {
			continue
		}
		usedStrategic[c.strategicIdx] = true
		usedAction[c.actionIdx] = true
		matches = append(matches, models.EntityMatch{
			StrategicEntity: strategic[c.strategicIdx],
			ActionEntity:    action[c.actionIdx],
			MatchType:       c.matchType,
			MatchScore:      c.score,
		})
	}

	var unmatchedStrategic []models.Entity
	for si, s := range strategic {
		if !usedStrategic[si] {
			unmatchedStrategic = append(unmatchedStrategic, s)
		}
	}
	var unmatchedAction []models.Entity
	for ai, a := range action {
		if !usedAction[ai] {
			unmatchedAction = append(unmatchedAction, a)
		}
	}

	result := &models.EntityAnalysisResult{
		EntityMatches:              matches,
		UnmatchedStrategicEntities: unmatchedStrategic,
		UnmatchedActionEntities:    unmatchedAction,
		MatchedEntities:            len(matches),
		TotalStrategicEntities:     len(strategic),
	}

	// The document-level score is the match rate: every matched strategic
	// entity counts fully regardless of match quality. Per-match scores
	// still weight the per-objective entity support downstream.
	if len(strategic) > 0 {
		result.MatchRate = float64(len(matches)) / float64(len(strategic)) * 100
		result.OverallScore = result.MatchRate
	}

	m.logger.Debug().
		Int("strategic_entities", len(strategic)).
		Int("action_entities", len(action)).
		Int("matched", len(matches)).
		Float64("overall_score", result.OverallScore).
		Msg("Entity matching complete")

	return result
}

// scorePair scores one strategic/action entity pair. Exact normalized
// equality scores 100; no other path can reach 100. Fuzzy similarity
// must clear the configured threshold. Containment or numeric proximity
// falls into the partial band below the threshold.
func (m *Matcher) scorePair(s, a models.Entity) (float64, string, bool) {
	if s.NormalizedValue == a.NormalizedValue {
		return 100, models.MatchTypeExact, true
	}

	fuzzy := fuzzySimilarity(s.NormalizedValue, a.NormalizedValue)
	if fuzzy >= m.fuzzyThreshold {
		return fuzzy, models.MatchTypeFuzzy, true
	}

	if isPartialPair(s.NormalizedValue, a.NormalizedValue) {
		score := m.fuzzyThreshold - partialBandOffset
		if score < 0 {
			score = 0
		}
		return score, models.MatchTypePartial, true
	}

	return 0, "", false
}

// fuzzySimilarity blends a token set ratio with a whole-string ratio.
// The token set ratio tolerates reordering and surrounding words; the
// whole-string component keeps longer rewordings from scoring 100.
func fuzzySimilarity(a, b string) float64 {
	return 0.9*tokenSetRatio(a, b) + 0.1*levenshteinRatio(a, b)
}

// tokenSetRatio compares the shared-token core of both strings against
// each string's full token set, taking the best of the three pairings
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	setA := make(map[string]bool, len(tokensA))
	for _, t := range tokensA {
		setA[t] = true
	}
	setB := make(map[string]bool, len(tokensB))
	for _, t := range tokensB {
		setB[t] = true
	}

	var intersection, onlyA, onlyB []string
	for t := range setA {
		if setB[t] {
			intersection = append(intersection, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}

	sort.Strings(intersection)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	core := strings.Join(intersection, " ")
	combinedA := strings.TrimSpace(core + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(core + " " + strings.Join(onlyB, " "))

	return math.Max(
		levenshteinRatio(core, combinedA),
		math.Max(
			levenshteinRatio(core, combinedB),
			levenshteinRatio(combinedA, combinedB),
		),
	)
}

// levenshteinRatio is the normalized edit similarity on a 0-100 scale
func levenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	distance := levenshtein.ComputeDistance(a, b)
	return (1 - float64(distance)/float64(longest)) * 100
}

// isPartialPair reports whether two normalized values relate loosely:
// one contains the other, or both carry numbers within tolerance
func isPartialPair(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	valueA, okA := numericValue(a)
	valueB, okB := numericValue(b)
	if !okA || !okB {
		return false
	}

	larger := math.Max(math.Abs(valueA), math.Abs(valueB))
	if larger == 0 {
		return valueA == valueB
	}
	return math.Abs(valueA-valueB)/larger <= numericTolerance
}
