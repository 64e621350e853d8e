// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package questions

// Category groups templates by the kind of thinking they prompt.
type Category string

const (
	Analytical  Category = "analytical"
	Practical   Category = "practical"
	Creative    Category = "creative"
	Critical    Category = "critical"
	Exploratory Category = "exploratory"
)

// Template is a question pattern with {placeholder} slots.
type Template struct {
	Category Category
	Pattern  string
	// Keywords select the template when they appear in recent text or topics.
	Keywords []string
	// Fillers supply {subject1}, {subject2} and {perspective}.
	Fillers []string
}

var library = []Template{
	{
		Category: Analytical,
		Pattern:  "How would you analyze the relationship between {subject1} and {subject2} in the context of {topic}?",
		Keywords: []string{"relationship", "analysis", "compare", "contrast", "correlation"},
		Fillers:  []string{"concepts", "theories", "methods", "approaches", "perspectives"},
	},
	{
		Category: Analytical,
		Pattern:  "What are the underlying assumptions behind {topic}, and how do they influence our understanding?",
		Keywords: []string{"assumptions", "underlying", "foundation", "basis", "premise"},
		Fillers:  []string{"theories", "models", "frameworks", "concepts", "ideas"},
	},
	{
		Category: Analytical,
		Pattern:  "Can you break down {topic} into its fundamental components and explain how they interact?",
		Keywords: []string{"components", "break down", "fundamental", "interact", "structure"},
		Fillers:  []string{"systems", "processes", "concepts", "theories", "models"},
	},
	{
		Category: Practical,
		Pattern:  "How would you apply {concept} to solve a real-world problem in {field}?",
		Keywords: []string{"apply", "real-world", "practical", "implement", "solve"},
		Fillers:  []string{"concepts", "theories", "methods", "principles", "strategies"},
	},
	{
		Category: Practical,
		Pattern:  "What are the practical implications of {finding} for {application}?",
		Keywords: []string{"implications", "practical", "application", "impact", "consequences"},
		Fillers:  []string{"research", "discoveries", "theories", "concepts", "findings"},
	},
	{
		Category: Practical,
		Pattern:  "How would you design an experiment to test {hypothesis} in {context}?",
		Keywords: []string{"experiment", "test", "design", "methodology", "investigate"},
		Fillers:  []string{"hypotheses", "theories", "assumptions", "claims", "ideas"},
	},
	{
		Category: Creative,
		Pattern:  "What if we approached {problem} from a completely different angle, such as {perspective}?",
		Keywords: []string{"different angle", "perspective", "creative", "innovative", "alternative"},
		Fillers:  []string{"problems", "challenges", "situations", "scenarios", "issues"},
	},
	{
		Category: Creative,
		Pattern:  "How might {concept} evolve or transform in the next decade given {trend}?",
		Keywords: []string{"evolve", "transform", "future", "trend", "development"},
		Fillers:  []string{"concepts", "technologies", "theories", "fields", "approaches"},
	},
	{
		Category: Creative,
		Pattern:  "What unexpected connections can you find between {topic1} and {topic2}?",
		Keywords: []string{"unexpected", "connections", "relationships", "patterns", "links"},
		Fillers:  []string{"topics", "concepts", "fields", "ideas", "theories"},
	},
	{
		Category: Critical,
		Pattern:  "What are the potential limitations or weaknesses in the current understanding of {topic}?",
		Keywords: []string{"limitations", "weaknesses", "gaps", "flaws", "shortcomings"},
		Fillers:  []string{"theories", "models", "approaches", "concepts", "understandings"},
	},
	{
		Category: Critical,
		Pattern:  "How might {bias} influence our interpretation of {evidence} in {field}?",
		Keywords: []string{"bias", "influence", "interpretation", "perspective", "viewpoint"},
		Fillers:  []string{"evidence", "data", "findings", "research", "observations"},
	},
	{
		Category: Critical,
		Pattern:  "What alternative explanations could account for {phenomenon} besides {current_theory}?",
		Keywords: []string{"alternative", "explanations", "theories", "hypotheses", "possibilities"},
		Fillers:  []string{"phenomena", "observations", "results", "findings", "events"},
	},
	{
		Category: Exploratory,
		Pattern:  "What aspects of {topic} remain unexplored or poorly understood?",
		Keywords: []string{"unexplored", "poorly understood", "gaps", "unknown", "mysterious"},
		Fillers:  []string{"topics", "fields", "phenomena", "concepts", "areas"},
	},
	{
		Category: Exploratory,
		Pattern:  "How does {topic} connect to broader themes in {field} or {discipline}?",
		Keywords: []string{"broader", "themes", "connect", "relate", "integrate"},
		Fillers:  []string{"topics", "concepts", "ideas", "theories", "findings"},
	},
	{
		Category: Exploratory,
		Pattern:  "What new questions emerge when we consider {topic} from an interdisciplinary perspective?",
		Keywords: []string{"interdisciplinary", "perspective", "new questions", "emerge", "combine"},
		Fillers:  []string{"topics", "fields", "disciplines", "approaches", "methods"},
	},
}

// academicTerms become topics when a message mentions them.
var academicTerms = []string{
	"theory", "concept", "method", "approach", "analysis", "research",
	"study", "experiment", "hypothesis", "conclusion", "evidence",
	"data", "results", "findings", "implications", "applications",
}

// topicDefaults fill topic placeholders when the history yields no topics.
var topicDefaults = map[string]string{
	"topic":          "this subject",
	"concept":        "this concept",
	"field":          "this field",
	"finding":        "this finding",
	"application":    "practical applications",
	"hypothesis":     "this hypothesis",
	"context":        "this context",
	"problem":        "this problem",
	"trend":          "current trends",
	"topic1":         "this topic",
	"topic2":         "another topic",
	"phenomenon":     "this phenomenon",
	"current_theory": "current theories",
	"discipline":     "this discipline",
}

// fixedFills never vary.
var fixedFills = map[string]string{
	"bias":     "confirmation bias, selection bias, or other cognitive biases",
	"evidence": "the evidence or data",
}

// fillerSlots draw from the template's own filler pool.
var fillerSlots = map[string]bool{
	"subject1":    true,
	"subject2":    true,
	"perspective": true,
}

// openingPrompts are offered before the conversation starts.
var openingPrompts = []string{
	"What academic topic would you like to explore today?",
	"What subject are you currently studying or researching?",
	"What questions do you have about your coursework?",
}

// followUps pad the result when templates run out.
var followUps = []string{
	"What aspects of this topic would you like to explore further?",
	"How does this relate to your current studies or research?",
	"What practical applications can you think of for this concept?",
	"What questions remain unanswered about this topic?",
	"How might this knowledge be applied in different contexts?",
}

// Library returns a copy of the built-in templates.
func Library() []Template {
	out := make([]Template, len(library))
	copy(out, library)
	return out
}
