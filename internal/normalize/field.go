package normalize

import (
	"strings"

	"github.com/amishk599/internfeed/internal/model"
)

// FieldRule maps a field label to the title keywords that select it.
type FieldRule struct {
	Label    string
	Keywords []string
}

// FieldClassifier assigns a field to a posting title using an ordered rule
// list. It is a keyword heuristic: the first rule with a keyword contained in
// the lower-cased title wins, and titles matching nothing are FieldOther.
type FieldClassifier struct {
	rules []FieldRule
}

// DefaultFieldRules is the built-in STEM taxonomy. Order matters.
var DefaultFieldRules = []FieldRule{
	{Label: "Computer Science", Keywords: []string{
		"software", "developer", "engineer", "web", "frontend", "backend", "full stack",
		"java", "python", "c++", "react", "node", "android", "ios", "app", "cloud",
		"devops", "security", "cyber",
	}},
	{Label: "Data Science & AI", Keywords: []string{
		"data", "analyst", "scientist", "machine learning", "ai", "deep learning",
		"nlp", "vision", "statistics", "analytics",
	}},
	{Label: "Engineering", Keywords: []string{
		"mechanical", "electrical", "civil", "chemical", "electronics", "robotics",
		"embedded", "hardware",
	}},
	{Label: "Bio & Science", Keywords: []string{
		"biology", "chemistry", "physics", "biotech", "pharma", "research", "lab",
	}},
	{Label: "Mathematics", Keywords: []string{"math", "cryptography", "actuarial"}},
}

// NewFieldClassifier builds a classifier over rules; nil or empty rules fall
// back to DefaultFieldRules. Keywords are lower-cased once here.
func NewFieldClassifier(rules []FieldRule) *FieldClassifier {
	if len(rules) == 0 {
		rules = DefaultFieldRules
	}
	normalized := make([]FieldRule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, FieldRule{Label: r.Label, Keywords: kws})
	}
	return &FieldClassifier{rules: normalized}
}

// Classify returns the label of the first matching rule, or FieldOther.
func (c *FieldClassifier) Classify(title string) string {
	lower := strings.ToLower(title)
	if lower == "" {
		return model.FieldOther
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Label
			}
		}
	}
	return model.FieldOther
}

// Labels returns the rule labels in priority order.
func (c *FieldClassifier) Labels() []string {
	labels := make([]string, len(c.rules))
	for i, r := range c.rules {
		labels[i] = r.Label
	}
	return labels
}
