package search

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const snippetRadius = 60

// MatchProjects performs case-insensitive substring matching over title,
// technologies and description. Every whitespace-separated term must match
// somewhere in the project. Title matches rank above technology matches,
// which rank above description matches; featured projects win ties.
func MatchProjects(records []ProjectRecord, q Query) ([]Result, int) {
	terms := strings.Fields(strings.ToLower(q.Text))
	if len(terms) == 0 {
		return []Result{}, 0
	}

	type scored struct {
		result Result
		score  int
		order  int
	}
	var matches []scored
	for i, rec := range records {
		title := strings.ToLower(rec.Title)
		desc := strings.ToLower(rec.Description)
		techs := strings.ToLower(strings.Join(rec.Technologies, " "))

		score := 0
		matchedAll := true
		for _, term := range terms {
			switch {
			case strings.Contains(title, term):
				score += 3
			case strings.Contains(techs, term):
				score += 2
			case strings.Contains(desc, term):
				score++
			default:
				matchedAll = false
			}
			if !matchedAll {
				break
			}
		}
		if !matchedAll {
			continue
		}
		matches = append(matches, scored{
			result: Result{
				ID:           rec.ID,
				Title:        rec.Title,
				Snippet:      snippet(rec.Description, terms[0]),
				Technologies: rec.Technologies,
				Featured:     rec.Featured,
			},
			score: score,
			order: i,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].result.Featured != matches[j].result.Featured {
			return matches[i].result.Featured
		}
		return matches[i].order < matches[j].order
	})

	total := len(matches)
	if limit := q.limit(); len(matches) > limit {
		matches = matches[:limit]
	}
	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.result)
	}
	return results, total
}

// snippet returns the part of text around the first occurrence of term.
func snippet(text, term string) string {
	idx := strings.Index(strings.ToLower(text), term)
	if idx < 0 || idx >= len(text) || len(text) <= 2*snippetRadius {
		return truncate(text, 2*snippetRadius)
	}
	start := idx - snippetRadius
	prefix := "…"
	if start <= 0 {
		start = 0
		prefix = ""
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	end := idx + len(term) + snippetRadius
	suffix := "…"
	if end >= len(text) {
		end = len(text)
		suffix = ""
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return prefix + text[start:end] + suffix
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…"
}
