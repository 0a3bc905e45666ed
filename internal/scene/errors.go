package scene

import "fmt"

// ValidationError reports co-indexed attribute arrays that disagree, or
// index values that do not resolve. The build aborts rather than clamping;
// a partially consistent model is never exposed.
type ValidationError struct {
	Stage string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scene: %s: %s", e.Stage, e.Msg)
}

func validationf(stage, format string, args ...any) error {
	return &ValidationError{Stage: stage, Msg: fmt.Sprintf(format, args...)}
}
