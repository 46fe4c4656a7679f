// Package metrics holds shared conventions for metric emission.
package metrics

import (
	apperrors "github.com/openswarm/swarmer/internal/errors"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// ResultFor maps an operation outcome to a result tag value.
func ResultFor(err error, count int64) string {
	switch {
	case err != nil:
		return ResultError
	case count == 0:
		return ResultNoop
	default:
		return ResultSuccess
	}
}

// ErrorClass returns a low-cardinality class for an error suitable for
// tagging, derived from the application error code.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return "unknown"
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
