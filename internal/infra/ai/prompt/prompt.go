package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/adityarama/tutorlens/internal/domain/jobs"
)

// SystemPrompt provides strict directions and schema for JSON output,
// per job type.
func SystemPrompt(t jobs.Type) string {
	header := `You are an experienced private tutor's assistant. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.`

	switch t {
	case jobs.TypeReport:
		return header + `

Schema (example with empty values):
{
  "general_performance": "<string>",
  "overall_trend_text": "<string>",
  "trend_icon": "<positive|neutral|negative>",
  "strengths": ["<string>"],
  "weaknesses": ["<string>"],
  "next_steps": ["<string>"]
}`
	case jobs.TypeCorrection:
		return header + `

Schema (example with empty values):
{
  "correction": "<string>",
  "corrected_answer": "<string>",
  "feedback": "<string>",
  "mistakes": [
    {"excerpt": "<string>", "explanation": "<string>"}
  ]
}`
	case jobs.TypeConceptScores:
		return header + `

Requirements:
- Output must be a single JSON object mapping each concept name to an object.
- Every value must contain a "score" between 0 and 100 and the "source_id" of the exercise it was derived from.

Schema (example):
{
  "<concept name>": {"score": 0, "source_id": "<string>"}
}`
	case jobs.TypeExecutiveSummary:
		return header + `

Schema (example with empty values):
{
  "executive_summary": "<string>",
  "highlights": ["<string>"],
  "risks": ["<string>"]
}`
	case jobs.TypeParentReport:
		return header + `

Schema (example with empty values):
{
  "title": "<string>",
  "sections": [
    {"heading": "<string>", "body": "<string>"}
  ]
}`
	}
	return header
}

// UserPrompt builds a compact user message around the job payload.
func UserPrompt(t jobs.Type, payload map[string]any) string {
	b, _ := json.Marshal(payload)
	return fmt.Sprintf("Produce the %s JSON per schema for this student context: %s", t, string(b))
}
