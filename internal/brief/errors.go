package brief

import "fmt"

// ServiceError wraps a failure of an external call (generative,
// retrieval, fetch or persistence). Stages absorb it into state.Error
// or a per-item skip; it never propagates past a stage boundary.
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseError marks model output that did not validate against the
// target record. Callers distinguish it from ServiceError: the call
// succeeded but the response was unusable.
type ParseError struct {
	Target string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Target, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
