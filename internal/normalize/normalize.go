package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Strategy names, in attempt order. Order is fixed: it is what makes
// extraction deterministic and lets callers assert which path won.
const (
	StrategyShaped    = "already_shaped"
	StrategyOutput    = "output_field"
	StrategyFenced    = "fenced_block"
	StrategyUnescaped = "unescaped"
	StrategyBraceScan = "brace_scan"
	StrategyEnvelope  = "array_envelope"
	StrategyNone      = "none"
)

// Result of a normalization pass. When Degraded is true, Payload is nil
// and Raw holds the original response unchanged — callers keep it as a
// best-effort artifact rather than treating it as an error.
type Result struct {
	Payload  map[string]any
	Strategy string
	Degraded bool
	Raw      json.RawMessage
}

var (
	fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	braceRe  = regexp.MustCompile(`(?s)\{.*\}`)
)

// Normalize extracts a typed payload from an unpredictable AI response.
// It never fails: if every strategy misses, the original raw bytes come
// back unchanged with Degraded set. Same input always yields the same
// output and the same winning strategy.
func Normalize(raw json.RawMessage, shape Shape) Result {
	degraded := Result{Strategy: StrategyNone, Degraded: true, Raw: raw}

	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return degraded
	}

	switch v := top.(type) {
	case map[string]any:
		// strategy 1: response already carries the expected shape
		if shape.Matches(v) {
			return Result{Payload: v, Strategy: StrategyShaped, Raw: raw}
		}
		if out, ok := v["output"].(string); ok {
			if res, ok := fromOutput(out, raw); ok {
				return res
			}
		}
	case []any:
		// strategy 6: legacy array envelope, first element wraps output
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if shape.Matches(first) {
					return Result{Payload: first, Strategy: StrategyShaped, Raw: raw}
				}
				if out, ok := first["output"].(string); ok {
					if res, ok := fromOutput(out, raw); ok {
						res.Strategy = StrategyEnvelope
						return res
					}
				}
			}
		}
	}

	return degraded
}

// fromOutput runs strategies 2–5 against an output string, in order.
func fromOutput(out string, raw json.RawMessage) (Result, bool) {
	// strategy 2: output is raw JSON
	if m, err := parseObject(out); err == nil {
		return Result{Payload: m, Strategy: StrategyOutput, Raw: raw}, true
	}

	// strategy 3: first markdown-fenced block inside output
	candidate := out
	if m := fencedRe.FindStringSubmatch(out); m != nil {
		candidate = m[1]
		if obj, err := parseObject(candidate); err == nil {
			return Result{Payload: obj, Strategy: StrategyFenced, Raw: raw}, true
		}
	}

	// strategy 4: the candidate from 2/3 with escape sequences undone
	if obj, err := parseObject(unescape(candidate)); err == nil {
		return Result{Payload: obj, Strategy: StrategyUnescaped, Raw: raw}, true
	}

	// strategy 5: greedy brace span anywhere in output
	if span := braceRe.FindString(out); span != "" {
		if obj, err := parseObject(span); err == nil {
			return Result{Payload: obj, Strategy: StrategyBraceScan, Raw: raw}, true
		}
	}

	return Result{}, false
}

// parseObject parses s strictly into a JSON object.
func parseObject(s string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// unescape undoes one layer of backslash escaping (\n, \", \\) that
// upstream sometimes applies to an already-serialized JSON string.
func unescape(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n")
	return r.Replace(s)
}
