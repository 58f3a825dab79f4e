package portfolio

import (
	"fmt"
	"strings"
)

// Problem describes one field that failed validation.
type Problem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return "invalid portfolio document: " + strings.Join(parts, "; ")
}

// Validate checks the invariants the site relies on: skill levels in [0,100],
// non-empty unique project ids, non-empty unique category ids, named skills.
func Validate(doc Document) error {
	var problems []Problem
	add := func(field, format string, args ...any) {
		problems = append(problems, Problem{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	projectIDs := make(map[string]int, len(doc.Projects))
	for i, p := range doc.Projects {
		field := fmt.Sprintf("projects[%d].id", i)
		id := strings.TrimSpace(p.ID)
		if id == "" {
			add(field, "is required")
			continue
		}
		if first, ok := projectIDs[id]; ok {
			add(field, "duplicates projects[%d].id %q", first, id)
			continue
		}
		projectIDs[id] = i
	}

	categoryIDs := make(map[string]int, len(doc.Skills.Categories))
	for i, c := range doc.Skills.Categories {
		field := fmt.Sprintf("skills.categories[%d].id", i)
		id := strings.TrimSpace(c.ID)
		if id == "" {
			add(field, "is required")
		} else if first, ok := categoryIDs[id]; ok {
			add(field, "duplicates skills.categories[%d].id %q", first, id)
		} else {
			categoryIDs[id] = i
		}
		for j, s := range c.Skills {
			if strings.TrimSpace(s.Name) == "" {
				add(fmt.Sprintf("skills.categories[%d].skills[%d].name", i, j), "is required")
			}
			if s.Level < 0 || s.Level > 100 {
				add(fmt.Sprintf("skills.categories[%d].skills[%d].level", i, j), "must be between 0 and 100, got %d", s.Level)
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
