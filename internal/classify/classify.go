// Package classify assigns intent categories to prompt text using the
// configured trigger table.
package classify

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blackwell-systems/promptlens/internal/config"
)

// Classifier matches prompt text against an ordered set of category rules.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []rule
}

type rule struct {
	name       string
	triggers   []string
	wholeWords []string
}

// New compiles the trigger table. Triggers are lowercased and trimmed;
// empty triggers are dropped. Rules are validated by config.Validate, but
// New rejects the cases that would make classification meaningless.
func New(rules []config.CategoryRule) (*Classifier, error) {
	c := &Classifier{rules: make([]rule, 0, len(rules))}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		name := strings.ToLower(strings.TrimSpace(r.Name))
		if name == "" || name == config.GeneralCategory {
			return nil, fmt.Errorf("%w: invalid category name %q", config.ErrConfiguration, r.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: category %q defined twice", config.ErrConfiguration, name)
		}
		seen[name] = true
		compiled := rule{
			name:       name,
			triggers:   normalize(r.Triggers),
			wholeWords: normalize(r.WholeWords),
		}
		if len(compiled.triggers)+len(compiled.wholeWords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no triggers", config.ErrConfiguration, name)
		}
		c.rules = append(c.rules, compiled)
	}
	return c, nil
}

func normalize(triggers []string) []string {
	out := make([]string, 0, len(triggers))
	for _, t := range triggers {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Categories returns the configured category names in order.
func (c *Classifier) Categories() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.name
	}
	return names
}

// Classify returns the categories whose triggers occur in text, in
// configured order. Blank text matches nothing and yields nil.
func (c *Classifier) Classify(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var matched []string
	for _, r := range c.rules {
		if r.matches(lower) {
			matched = append(matched, r.name)
		}
	}
	return matched
}

func (r rule) matches(lower string) bool {
	for _, t := range r.triggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	for _, w := range r.wholeWords {
		if containsWord(lower, w) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in s with no letter, digit or
// underscore immediately before or after it.
func containsWord(s, word string) bool {
	for offset := 0; offset <= len(s)-len(word); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Label returns the categories to report for a classified prompt: its
// explicit categories, or "general" when there are none.
func Label(categories []string) []string {
	if len(categories) == 0 {
		return []string{config.GeneralCategory}
	}
	return categories
}
