package normalize

import "github.com/adityarama/tutorlens/internal/domain/jobs"

// Shape describes what an already-typed payload looks like for one job
// type. Keys matches when any expected top-level key is present; Match,
// when set, replaces the key check entirely (the concept-score map has
// no fixed keys, only a value shape).
type Shape struct {
	Keys  []string
	Match func(map[string]any) bool
}

// Matches reports whether m already carries the expected shape.
func (s Shape) Matches(m map[string]any) bool {
	if s.Match != nil {
		return s.Match(m)
	}
	for _, k := range s.Keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// ShapeFor returns the expected payload shape per job type.
func ShapeFor(t jobs.Type) Shape {
	switch t {
	case jobs.TypeReport:
		return Shape{Keys: []string{"general_performance", "overall_trend_text", "trend_icon"}}
	case jobs.TypeCorrection:
		return Shape{Keys: []string{"correction", "corrected_answer", "feedback"}}
	case jobs.TypeConceptScores:
		return Shape{Match: isConceptScoreMap}
	case jobs.TypeExecutiveSummary:
		return Shape{Keys: []string{"executive_summary", "summary", "highlights"}}
	case jobs.TypeParentReport:
		return Shape{Keys: []string{"title", "sections", "parent_report"}}
	}
	return Shape{}
}

// isConceptScoreMap accepts a non-empty object whose every value is an
// object carrying a "score" field.
func isConceptScoreMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for _, v := range m {
		obj, ok := v.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := obj["score"]; !ok {
			return false
		}
	}
	return true
}
