package source

import (
	"strings"

	"github.com/civicspend/disclosure-cli/internal/model"
)

// categoryRule maps keyword fragments to a grant recipient category. Rules
// are checked in order and the first hit wins, so a "church hospital" is
// Religious, not Healthcare.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{model.CategoryReligious, []string{
		"church", "ministry", "ministries", "temple", "synagogue", "mosque",
		"faith", "mission", "diocese", "parish", "chapel", "gospel",
	}},
	{model.CategoryEducation, []string{
		"school", "university", "college", "education", "academy",
		"institute", "scholarship", "literacy", "stem",
	}},
	{model.CategoryHealthcare, []string{
		"hospital", "health", "medical", "clinic", "cancer", "disease",
		"research foundation", "hospice",
	}},
	{model.CategoryHumanitarian, []string{
		"relief", "hunger", "food bank", "homeless", "shelter", "red cross",
		"disaster", "refugee", "poverty",
	}},
	{model.CategoryEnvironment, []string{
		"environment", "conservation", "wildlife", "climate", "nature",
		"clean water", "sustainab",
	}},
	{model.CategoryArts, []string{
		"museum", "arts", "theater", "theatre", "symphony", "opera",
		"ballet", "cultural",
	}},
}

// ClassifyRecipient assigns a grant category from the recipient name and
// grant description, defaulting to Other when nothing matches.
func ClassifyRecipient(name, description string) string {
	text := strings.ToLower(name + " " + description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return model.CategoryOther
}
