package gocucm

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnexpectedField  = "unexpected_field"
	CodeMissingField     = "missing_field"
	CodeTypeMismatch     = "type_mismatch"
	CodeChoiceConflict   = "choice_conflict"
	CodeUnknownEnumValue = "unknown_enum_value"
	CodeParseError       = "parse_error"
)

// Issue represents a single validation or normalization finding.
type Issue struct {
	Path    string // Dotted field path (for example: phone.lines[0].dn).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected shapes, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"allowed": [...]}) for
	// programmatic consumers and log output.
	Params map[string]any
}

// Issues is a collection of validation findings that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. unexpected_field at phone.lines[0].dn
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// HasCode reports whether any issue in the collection carries the given code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// At returns the first issue recorded for the given path, if any.
func (iss Issues) At(path string) (Issue, bool) {
	for _, it := range iss {
		if it.Path == path {
			return it, true
		}
	}
	return Issue{}, false
}

// CallError wraps a transport-originated failure with the operation context
// needed to diagnose it. The underlying error is preserved for errors.As/Is.
type CallError struct {
	Operation string
	Version   string
	Err       error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Operation, e.Version, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Fault is a classified SOAP fault returned by the remote server. Transports
// produce it; facades wrap it in a CallError without masking it.
type Fault struct {
	Code    string
	Message string
	Actor   string
	Detail  string
}

func (f *Fault) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return "remote fault " + f.Code
}
