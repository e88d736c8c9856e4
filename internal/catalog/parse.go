package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonathan/bias-detector/internal/schemas"
	"github.com/jonathan/bias-detector/internal/types"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a catalog document
type Format int

// Supported formats
const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the on-disk catalog shape: a mapping of category to entries.
type Document struct {
	Categories map[string][]Entry `json:"categories" yaml:"categories"`
}

// Entry is one rule as written in a catalog document. ID is optional and is
// derived from the category and pattern when omitted.
type Entry struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Pattern    string `json:"pattern" yaml:"pattern"`
	Regex      bool   `json:"regex,omitempty" yaml:"regex,omitempty"`
	Severity   string `json:"severity" yaml:"severity"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Generator  string `json:"generator,omitempty" yaml:"generator,omitempty"`
	Rationale  string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read catalog file", Cause: err}
	}
	cat, err := Parse(data, FormatFromPath(path))
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.Path == "" {
			le.Path = path
		}
		return nil, err
	}
	return cat, nil
}

// Parse decodes a catalog document, checks it against the catalog JSON
// Schema and validates every rule.
func Parse(data []byte, format Format) (*Catalog, error) {
	jsonData := data
	if format == FormatYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Message: "failed to parse catalog YAML", Cause: err}
		}
		converted, err := json.Marshal(raw)
		if err != nil {
			return nil, &LoadError{Message: "failed to convert catalog YAML", Cause: err}
		}
		jsonData = converted
	}

	if err := schemas.ValidateCatalog(jsonData); err != nil {
		return nil, &LoadError{Message: "catalog does not match schema", Cause: err}
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, &LoadError{Message: "failed to parse catalog JSON", Cause: err}
	}

	return New(doc.Rules())
}

// Rules flattens the document into catalog order: categories sorted by name,
// entries in document order within each category.
func (d Document) Rules() []types.Rule {
	names := make([]string, 0, len(d.Categories))
	for name := range d.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	var rules []types.Rule
	for _, name := range names {
		for i, e := range d.Categories[name] {
			id := e.ID
			if id == "" {
				id = defaultRuleID(name, e.Pattern, i)
			}
			rules = append(rules, types.Rule{
				ID:         id,
				Pattern:    e.Pattern,
				Regex:      e.Regex,
				Category:   types.Category(name),
				Severity:   types.Severity(e.Severity),
				Suggestion: e.Suggestion,
				Generator:  types.Generator(e.Generator),
				Rationale:  e.Rationale,
			})
		}
	}
	return rules
}

func defaultRuleID(category, pattern string, index int) string {
	if slug := slugify(pattern); slug != "" {
		return category + "." + slug
	}
	return fmt.Sprintf("%s.%d", category, index)
}
