package rbql

import "encoding/json"

// ParseError, RuntimeError, and IOHandlingError are the three error kinds
// spec.md §7 distinguishes. Grounded on the teacher's own
// SQLCodeParseErrors/SQLUserError layering in error.go: a small family of
// purpose-specific wrapper types, each carrying just a rendered message,
// rather than one generic error threaded through every call site.
//
// ParseError covers a malformed query, keyword misuse, an assignment
// inside WHERE, or an unknown column named by EXCEPT or as an UPDATE
// target — all detected before any row is read, so no output has been
// written. A column reference inside an expression is resolved only when
// that expression is evaluated for a row, so an unknown or ambiguous one
// there is reported as a RuntimeError.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "query parsing: " + e.Msg }

// RuntimeError covers a missing field at a known record number, a
// numeric conversion failure inside an aggregate, a STRICT LEFT JOIN
// multiplicity violation, or a missing RHS JOIN column — the query
// aborts mid-stream and any already-written output is left as-is.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return "query execution: " + e.Msg }

// IOHandlingError covers encoding problems, an unreadable table id, or a
// header/record-length mismatch when an explicit header was supplied.
type IOHandlingError struct {
	Msg string
}

func (e *IOHandlingError) Error() string { return "IO handling: " + e.Msg }

// errorType maps one of the three kinds above to the §6 JSON taxonomy's
// error_type string, falling back to "unexpected" for anything else
// (a panic recovered by the caller, a context cancellation, ...).
func errorType(err error) string {
	switch err.(type) {
	case *ParseError:
		return "query parsing"
	case *RuntimeError:
		return "query execution"
	case *IOHandlingError:
		return "IO handling"
	default:
		return "unexpected"
	}
}

// JSONError is the §6 JSON error taxonomy
// ({error_type, error_msg, warnings}), used by rbqlcli's --json flag.
type JSONError struct {
	ErrorType string   `json:"error_type"`
	ErrorMsg  string   `json:"error_msg"`
	Warnings  []string `json:"warnings,omitempty"`
}

// NewJSONError builds a JSONError from a Run error and its accompanying
// warnings. err may be nil (a successful run that still produced
// warnings); the resulting error_type is then "" and error_msg "".
func NewJSONError(err error, warnings []string) JSONError {
	je := JSONError{Warnings: warnings}
	if err != nil {
		je.ErrorType = errorType(err)
		je.ErrorMsg = err.Error()
	}
	return je
}

// MarshalTo renders je as compact JSON.
func (je JSONError) MarshalTo() ([]byte, error) {
	return json.Marshal(je)
}
