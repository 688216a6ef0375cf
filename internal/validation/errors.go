package validation

import (
	"errors"
	"strings"
)

// Kind classifies a field failure
type Kind string

const (
	MissingField   Kind = "missing_field"
	InvalidFormat  Kind = "invalid_format"
	DuplicateEmail Kind = "duplicate_email"
)

// Messages reported per kind
const (
	MsgBlank   = "can't be blank"
	MsgInvalid = "is invalid"
	MsgTaken   = "has already been taken"
)

// FieldError is a single failed check
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// Errors is the set of failures that blocked a merchant write
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages groups messages by field
func (e Errors) Messages() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// On returns the messages recorded for field
func (e Errors) On(field string) []string {
	var msgs []string
	for _, fe := range e {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

// Has reports whether field failed with kind
func (e Errors) Has(field string, kind Kind) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return true
		}
	}
	return false
}

// AsErrors extracts Errors from err
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// HasKind reports whether err carries a failure of the given kind on any field
func HasKind(err error, kind Kind) bool {
	errs, ok := AsErrors(err)
	if !ok {
		return false
	}
	for _, fe := range errs {
		if fe.Kind == kind {
			return true
		}
	}
	return false
}

// Duplicate is the failure reported when the email is already used
func Duplicate() Errors {
	return Errors{{Field: FieldEmail, Kind: DuplicateEmail, Message: MsgTaken}}
}
