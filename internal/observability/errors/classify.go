package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/target/eventdesk/internal/errors"
)

// Classify returns a normalized error class suitable for tagging metrics/logs.
// Application errors are tagged by their code; anything else by the innermost
// concrete type, snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) && appErr.Code != "" {
		return string(appErr.Code)
	}

	// Unwrap to the innermost error for better signal.
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(t.String())
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
