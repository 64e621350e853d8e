// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package questions

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/campus-chat/internal/model"
)

const (
	// DefaultCount is used when a non-positive count is requested.
	DefaultCount = 3

	// FallbackQuestion is returned by Single when nothing else is available.
	FallbackQuestion = "What would you like to explore next?"

	maxAttempts    = 10
	recentMessages = 3
)

var placeholderPattern = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// Generator renders questions from the template library. Randomness comes
// from the injected source so results can be reproduced in tests.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the clock.
func NewGenerator() *Generator {
	return NewGeneratorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewGeneratorWithRand returns a generator that draws from rng.
func NewGeneratorWithRand(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns up to count distinct questions for the history.
//
// An empty history yields all the fixed opening prompts whatever the count.
// Otherwise templates
// are filtered by keywords found in the last three messages or in the
// extracted topics, rendered with one category per question where
// possible, and padded with generic follow-ups.
func (g *Generator) Generate(history []model.Message, count int) []string {
	if count <= 0 {
		count = DefaultCount
	}

	if len(history) == 0 {
		out := make([]string, len(openingPrompts))
		copy(out, openingPrompts)
		return out
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	topics := ExtractTopics(history)
	recent := recentText(history)
	candidates := relevantTemplates(recent, topics)

	questions := make([]string, 0, count)
	seen := make(map[string]bool)
	usedCategories := make(map[Category]bool)

	for i := 0; i < count && i < len(candidates); i++ {
		var question string
		var category Category
		for attempt := 0; attempt < maxAttempts; attempt++ {
			tmpl := candidates[g.rng.Intn(len(candidates))]
			if usedCategories[tmpl.Category] && len(usedCategories) < count {
				continue
			}
			question = g.render(tmpl, topics)
			category = tmpl.Category
			if !seen[question] {
				break
			}
		}
		if question != "" && !seen[question] {
			questions = append(questions, question)
			seen[question] = true
			usedCategories[category] = true
		}
	}

	for _, idx := range g.rng.Perm(len(followUps)) {
		if len(questions) >= count {
			break
		}
		q := followUps[idx]
		if !seen[q] {
			questions = append(questions, q)
			seen[q] = true
		}
	}

	return questions
}

// Single returns one question for the history.
func (g *Generator) Single(history []model.Message) string {
	qs := g.Generate(history, 1)
	if len(qs) == 0 || qs[0] == "" {
		return FallbackQuestion
	}
	return qs[0]
}

// render substitutes every placeholder of tmpl.
func (g *Generator) render(tmpl Template, topics []string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl.Pattern, func(match string) string {
		name := match[1 : len(match)-1]
		if fixed, ok := fixedFills[name]; ok {
			return fixed
		}
		if fillerSlots[name] {
			if len(tmpl.Fillers) == 0 {
				return match
			}
			return tmpl.Fillers[g.rng.Intn(len(tmpl.Fillers))]
		}
		if len(topics) > 0 {
			return topics[g.rng.Intn(len(topics))]
		}
		if def, ok := topicDefaults[name]; ok {
			return def
		}
		return match
	})
}

// ExtractTopics collects course names and codes plus the academic
// vocabulary mentioned in history, in first-seen order.
func ExtractTopics(history []model.Message) []string {
	var topics []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			topics = append(topics, t)
		}
	}

	for _, m := range history {
		if m.Content == "" {
			continue
		}
		if m.Course != nil {
			add(m.Course.Name)
			add(m.Course.Code)
		}
		content := fold(m.Content)
		for _, term := range academicTerms {
			if strings.Contains(content, term) {
				add(term)
			}
		}
	}
	return topics
}

func recentText(history []model.Message) string {
	start := len(history) - recentMessages
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, recentMessages)
	for _, m := range history[start:] {
		parts = append(parts, m.Content)
	}
	return fold(strings.Join(parts, " "))
}

func relevantTemplates(recent string, topics []string) []Template {
	lowered := make([]string, len(topics))
	for i, t := range topics {
		lowered[i] = fold(t)
	}

	var out []Template
	for _, tmpl := range library {
		if matchesAny(tmpl.Keywords, recent, lowered) {
			out = append(out, tmpl)
		}
	}
	if len(out) == 0 {
		return library
	}
	return out
}

func matchesAny(keywords []string, recent string, topics []string) bool {
	for _, kw := range keywords {
		if strings.Contains(recent, kw) {
			return true
		}
		for _, t := range topics {
			if strings.Contains(t, kw) {
				return true
			}
		}
	}
	return false
}

// fold lower-cases s in NFC form so composed and decomposed input match.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
