package resolver

import "fmt"

// UnknownFieldError reports a seed field that no relation exposes.
// It fails only the current request.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("no relation has field `%s`", e.Field)
}

// LookupError reports a data source read failure during traversal.
// It fails only the current request; all progress is discarded.
type LookupError struct {
	Relation string
	Field    string
	Value    string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to query relation `%s` with field `%s`, value `%s`: %v",
		e.Relation, e.Field, e.Value, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
