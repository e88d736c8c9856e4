// Package types provides type definitions for structured data used throughout the bias-detector system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Category groups rules into scored dimensions. The set is open: catalogs may
// introduce categories beyond the built-in ones.
type Category string

// Built-in categories
const (
	CategoryGender   Category = "gender"
	CategoryAge      Category = "age"
	CategoryRacial   Category = "racial"
	CategoryCultural Category = "cultural"
	CategoryOther    Category = "other"
)

// Severity is the closed set of rule severities.
type Severity string

// Severity levels, lowest first
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severities lists every valid severity, lowest first.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Generator names the strategy used to render a rule's suggestion for a
// particular matched text. The empty generator means a literal suggestion.
type Generator string

// Known generators
const (
	GeneratorLiteral      Generator = ""
	GeneratorRemove       Generator = "remove"
	GeneratorExpand       Generator = "expand"
	GeneratorPreserveCase Generator = "preserve-case"
)

// Rule is a single bias pattern. Rules are immutable once a catalog is built.
type Rule struct {
	ID         string    `json:"id" yaml:"id" validate:"required,max=128"`
	Pattern    string    `json:"pattern" yaml:"pattern" validate:"required"`
	Regex      bool      `json:"regex,omitempty" yaml:"regex,omitempty"`
	Category   Category  `json:"category" yaml:"category" validate:"required,category"`
	Severity   Severity  `json:"severity" yaml:"severity" validate:"required,oneof=low medium high"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty" validate:"required_unless=Generator remove"`
	Generator  Generator `json:"generator,omitempty" yaml:"generator,omitempty" validate:"omitempty,oneof=remove expand preserve-case"`
	Rationale  string    `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}
