// Package complexity computes a bounded 0-100 complexity score for prompt
// text from independently normalized factors.
package complexity

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/blackwell-systems/promptlens/internal/config"
	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// Structure factor contributions.
const (
	codeBlockCredit   = 0.4
	stepCredit        = 0.1
	maxStepCredit     = 0.3
	questionCredit    = 0.1
	maxQuestionCredit = 0.3
)

// stepLine matches numbered or bulleted instruction lines: "1. x", "2) x",
// "- x", "* x", "• x".
var stepLine = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+\S`)

// symbolMarkers flag a token as code even when it is not in the vocabulary.
var symbolMarkers = []string{"()", "_", "::", "->", "=>", "{", "}", "</", "[]", "=="}

// Breakdown is a score together with the sub-scores it was built from.
// Every sub-score is in [0, 1]; Score is in [0, 100].
type Breakdown struct {
	Length    float64 `json:"length"`
	Technical float64 `json:"technical"`
	Structure float64 `json:"structure"`
	Category  float64 `json:"category"`
	Response  float64 `json:"response"`
	Score     float64 `json:"score"`
}

// Scorer computes complexity scores. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	weights            [5]float64
	weightTotal        float64
	saturationWords    int
	densityScale       float64
	responseSaturation int
	bonus              map[string]float64
	vocabulary         map[string]bool
}

// New builds a scorer from the scoring configuration. Missing required
// weights, negative weights and non-positive parameters are rejected.
func New(cfg config.Scoring) (*Scorer, error) {
	s := &Scorer{
		saturationWords:    cfg.SaturationWords,
		densityScale:       cfg.DensityScale,
		responseSaturation: cfg.ResponseSaturation,
		bonus:              make(map[string]float64, len(cfg.CategoryBonus)),
		vocabulary:         make(map[string]bool, len(cfg.TechnicalTerms)),
	}

	for _, name := range config.RequiredWeights {
		if _, ok := cfg.Weights[name]; !ok {
			return nil, fmt.Errorf("%w: required weight %q missing", config.ErrConfiguration, name)
		}
	}
	for i, name := range factorOrder {
		w := cfg.Weights[name]
		if w < 0 {
			return nil, fmt.Errorf("%w: weight %q is negative", config.ErrConfiguration, name)
		}
		s.weights[i] = w
		s.weightTotal += w
	}
	if s.weightTotal <= 0 {
		return nil, fmt.Errorf("%w: scoring weights sum to zero", config.ErrConfiguration)
	}
	if s.saturationWords <= 0 || s.densityScale <= 0 {
		return nil, fmt.Errorf("%w: saturation_words and density_scale must be positive", config.ErrConfiguration)
	}
	if s.weights[4] > 0 && s.responseSaturation <= 0 {
		return nil, fmt.Errorf("%w: response_saturation must be positive", config.ErrConfiguration)
	}

	for name, b := range cfg.CategoryBonus {
		s.bonus[strings.ToLower(name)] = clip(b, 0, 1)
	}
	for _, term := range cfg.TechnicalTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			s.vocabulary[term] = true
		}
	}
	return s, nil
}

// factorOrder fixes the summation order so scores are bit-for-bit stable.
var factorOrder = [5]string{
	config.FactorLength,
	config.FactorTechnical,
	config.FactorStructure,
	config.FactorCategory,
	config.FactorResponse,
}

// Score rates text. categories are the prompt's explicit categories and
// responseLength the assistant reply length (0 when unknown). Blank text
// always scores 0.
func (s *Scorer) Score(text string, categories []string, responseLength int) Breakdown {
	if strings.TrimSpace(text) == "" {
		return Breakdown{}
	}

	tokens := strings.Fields(text)
	b := Breakdown{
		Length:    s.lengthFactor(len(tokens)),
		Technical: s.technicalFactor(tokens),
		Structure: structureFactor(text),
		Category:  s.categoryFactor(categories),
		Response:  s.responseFactor(responseLength),
	}

	subs := [5]float64{b.Length, b.Technical, b.Structure, b.Category, b.Response}
	var sum float64
	for i, w := range s.weights {
		sum += w * subs[i]
	}
	b.Score = clip(100*sum/s.weightTotal, 0, 100)
	return b
}

// lengthFactor grows logarithmically with word count and saturates at the
// configured word count.
func (s *Scorer) lengthFactor(words int) float64 {
	if words <= 0 {
		return 0
	}
	return clip(math.Log1p(float64(words))/math.Log1p(float64(s.saturationWords)), 0, 1)
}

// technicalFactor scales the share of technical tokens.
func (s *Scorer) technicalFactor(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	technical := 0
	for _, tok := range tokens {
		if s.isTechnical(tok) {
			technical++
		}
	}
	density := float64(technical) / float64(len(tokens))
	return clip(density*s.densityScale, 0, 1)
}

func (s *Scorer) isTechnical(token string) bool {
	lower := strings.ToLower(token)
	for _, m := range symbolMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	trimmed := strings.TrimFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if trimmed == "" {
		return false
	}
	if s.vocabulary[trimmed] {
		return true
	}
	// Dotted identifiers such as fmt.Println or os.path.join.
	if i := strings.IndexByte(trimmed, '.'); i > 0 && i < len(trimmed)-1 {
		return true
	}
	return false
}

// structureFactor credits fenced or indented code, instruction steps and
// questions.
func structureFactor(text string) float64 {
	var score float64
	lines := strings.Split(text, "\n")

	if strings.Contains(text, "```") || hasIndentedCode(lines) {
		score += codeBlockCredit
	}

	steps := 0
	for _, line := range lines {
		if stepLine.MatchString(line) {
			steps++
		}
	}
	score += math.Min(float64(steps)*stepCredit, maxStepCredit)
	score += math.Min(float64(strings.Count(text, "?"))*questionCredit, maxQuestionCredit)

	return clip(score, 0, 1)
}

// hasIndentedCode reports a line indented by a tab or four spaces in a
// multi-line prompt.
func hasIndentedCode(lines []string) bool {
	if len(lines) < 2 {
		return false
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "    ") {
			return true
		}
	}
	return false
}

// categoryFactor is the largest bonus among the prompt's categories.
func (s *Scorer) categoryFactor(categories []string) float64 {
	var best float64
	for _, c := range categories {
		if b := s.bonus[c]; b > best {
			best = b
		}
	}
	return best
}

func (s *Scorer) responseFactor(length int) float64 {
	if length <= 0 || s.responseSaturation <= 0 {
		return 0
	}
	return clip(math.Log1p(float64(length))/math.Log1p(float64(s.responseSaturation)), 0, 1)
}

// ScoreRecord scores a validated record with its categories.
func (s *Scorer) ScoreRecord(rec prompt.Record, categories []string) Breakdown {
	return s.Score(rec.Text, categories, rec.ResponseLength)
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
