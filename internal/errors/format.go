package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// asNotelinkError returns err as a NotelinkError, wrapping plain errors as internal.
func asNotelinkError(err error) *NotelinkError {
	var ne *NotelinkError
	if stderrors.As(err, &ne) {
		return ne
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ne := asNotelinkError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ne.Message))
	if ne.Cause != nil && ne.Cause.Error() != ne.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", ne.Cause))
	}
	if p := ne.Details["path"]; p != "" {
		sb.WriteString(fmt.Sprintf("  Path: %s\n", p))
	}
	if ne.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ne.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ne.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ne := asNotelinkError(err)
	je := jsonError{
		Code:       ne.Code,
		Message:    ne.Message,
		Category:   string(ne.Category),
		Severity:   string(ne.Severity),
		Details:    ne.Details,
		Suggestion: ne.Suggestion,
	}
	if ne.Cause != nil {
		je.Cause = ne.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs formats an error as alternating key/value pairs for slog.
// Detail keys are emitted in sorted order so log lines are stable.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	var ne *NotelinkError
	if !stderrors.As(err, &ne) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", ne.Code,
		"error", ne.Message,
		"severity", string(ne.Severity),
	}
	if ne.Cause != nil {
		attrs = append(attrs, "cause", ne.Cause.Error())
	}

	keys := make([]string, 0, len(ne.Details))
	for k := range ne.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, k, ne.Details[k])
	}

	return attrs
}
