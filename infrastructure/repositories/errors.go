package repositories

import "fmt"

// CorruptStateError reports persisted counter state that exists but cannot be used.
type CorruptStateError struct {
	Source string
	Reason string
	Err    error
}

func (e *CorruptStateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt counter state in %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt counter state in %s: %s", e.Source, e.Reason)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }
