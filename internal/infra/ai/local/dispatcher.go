package local

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/adityarama/tutorlens/internal/domain/jobs"
)

// Dispatcher produces deterministic schema-shaped payloads without any
// upstream call. Dev-mode backend: lets the rest of the pipeline run
// end to end with no webhook URL or API key configured.
type Dispatcher struct{}

func New() *Dispatcher { return &Dispatcher{} }

func (d *Dispatcher) Dispatch(_ context.Context, jobType domain.Type, payload map[string]any) (json.RawMessage, error) {
	student, _ := payload["student_id"].(string)

	var out any
	switch jobType {
	case domain.TypeReport:
		out = map[string]any{
			"general_performance": fmt.Sprintf("Placeholder progress report for student %s.", student),
			"overall_trend_text":  "Steady progress across recent sessions.",
			"trend_icon":          "neutral",
			"strengths":           []string{"consistent attendance"},
			"weaknesses":          []string{"needs more practice data"},
			"next_steps":          []string{"complete more exercises"},
		}
	case domain.TypeCorrection:
		out = map[string]any{
			"correction":       "Placeholder correction.",
			"corrected_answer": "n/a",
			"feedback":         "Submit a real exercise to receive feedback.",
			"mistakes":         []any{},
		}
	case domain.TypeConceptScores:
		out = map[string]any{
			"fractions": map[string]any{"score": 50, "source_id": "sample"},
		}
	case domain.TypeExecutiveSummary:
		out = map[string]any{
			"executive_summary": "Placeholder executive summary.",
			"highlights":        []string{},
			"risks":             []string{},
		}
	case domain.TypeParentReport:
		out = map[string]any{
			"title": "Sample parent report",
			"sections": []any{
				map[string]any{"heading": "Overview", "body": "Placeholder content."},
			},
		}
	default:
		return nil, &domain.DispatchError{Type: jobType, Err: fmt.Errorf("unknown job type")}
	}

	return json.Marshal(out)
}
