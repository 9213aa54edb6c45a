package jobs

import (
	"context"
	"encoding/json"
)

// Dispatcher port (interface to the external AI service).
// Dispatch performs one outbound call and returns the raw response body.
// It fails only on transport problems: network error, non-success status,
// or an outer body that is not well-formed JSON. Semantically malformed
// inner content is the normalizer's job, never a dispatch error.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobType Type, payload map[string]any) (json.RawMessage, error)
}
