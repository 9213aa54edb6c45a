package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adityarama/tutorlens/internal/domain/jobs"
)

// Input validation and sanitization utilities

// ValidateJobType checks the job type against the known set
func ValidateJobType(t string) error {
	if !jobs.Type(strings.ToLower(t)).Valid() {
		return fmt.Errorf("invalid job type: %s (allowed: report, correction, concept_scores, executive_summary, parent_report)", t)
	}
	return nil
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateOperatorID validates operator ID format
func ValidateOperatorID(operatorID string) error {
	if operatorID == "" {
		return fmt.Errorf("operator ID cannot be empty")
	}
	if !idPattern.MatchString(operatorID) {
		return fmt.Errorf("invalid operator ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateStudentID validates student ID format
func ValidateStudentID(studentID string) error {
	if studentID == "" {
		return fmt.Errorf("student ID cannot be empty")
	}
	if !idPattern.MatchString(studentID) {
		return fmt.Errorf("invalid student ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateJobID validates a client-supplied job id
func ValidateJobID(jobID string) error {
	if jobID == "" {
		return nil // optional; server generates one
	}
	pattern := `^[a-zA-Z0-9_-]{1,96}$`
	matched, _ := regexp.MatchString(pattern, jobID)
	if !matched {
		return fmt.Errorf("invalid job ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
