package jobs

import "fmt"

// DispatchError wraps a transport-level failure talking to the AI service.
// Safe to retry the whole job from scratch: nothing was committed.
type DispatchError struct {
	Type       Type
	StatusCode int // 0 when the call never got a response
	Err        error
}

func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dispatch %s: upstream status %d: %v", e.Type, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %v", e.Type, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
