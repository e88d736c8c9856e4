// Package catalog loads, validates and versions bias rule catalogs.
package catalog

import "fmt"

// InvalidRuleError reports a malformed catalog entry. A catalog that produces
// one of these is rejected as a whole.
type InvalidRuleError struct {
	RuleID  string
	Field   string
	Message string
	Cause   error
}

func (e *InvalidRuleError) Error() string {
	id := e.RuleID
	if id == "" {
		id = "(unnamed)"
	}
	msg := fmt.Sprintf("invalid rule %s", id)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %s", e.Field)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *InvalidRuleError) Unwrap() error {
	return e.Cause
}

// LoadError represents a failure to read or decode a catalog document
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	path := e.Path
	if path == "" {
		path = "(inline)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("catalog load error %s: %s: %v", path, e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog load error %s: %s", path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
