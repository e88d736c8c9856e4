package catalog

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/bias-detector/internal/types"
	"github.com/zeebo/blake3"
)

// versionLength is the number of hex characters kept from the content hash
const versionLength = 12

var categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Catalog is an immutable, validated, ordered set of rules. Reloading a
// catalog means building a new one; see Holder.
type Catalog struct {
	rules      []types.Rule
	byID       map[string]int
	matchers   []*regexp.Regexp
	contextual []bool
	categories []types.Category
	version    string
}

// New validates rules and builds a catalog. The first invalid rule aborts the
// build with an *InvalidRuleError.
func New(rules []types.Rule) (*Catalog, error) {
	validate := newValidator()

	c := &Catalog{
		rules:      make([]types.Rule, len(rules)),
		byID:       make(map[string]int, len(rules)),
		matchers:   make([]*regexp.Regexp, len(rules)),
		contextual: make([]bool, len(rules)),
	}
	copy(c.rules, rules)

	seenCategory := make(map[types.Category]bool)
	for i, rule := range c.rules {
		if err := validateRule(validate, rule); err != nil {
			return nil, err
		}
		if _, dup := c.byID[rule.ID]; dup {
			return nil, &InvalidRuleError{RuleID: rule.ID, Field: "id", Message: "duplicate rule id"}
		}

		re, err := compileRule(rule)
		if err != nil {
			return nil, &InvalidRuleError{RuleID: rule.ID, Field: "pattern", Message: "pattern does not compile", Cause: err}
		}

		c.byID[rule.ID] = i
		c.matchers[i] = re
		c.contextual[i] = needsContext(re)
		if !seenCategory[rule.Category] {
			seenCategory[rule.Category] = true
			c.categories = append(c.categories, rule.Category)
		}
	}
	sort.Slice(c.categories, func(i, j int) bool { return c.categories[i] < c.categories[j] })

	version, err := contentVersion(c.rules)
	if err != nil {
		return nil, err
	}
	c.version = version
	return c, nil
}

// Rules returns the rules in catalog order. The slice is a copy.
func (c *Catalog) Rules() []types.Rule {
	out := make([]types.Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Len returns the number of rules
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Rule looks up a rule by id.
func (c *Catalog) Rule(id string) (types.Rule, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Rule{}, false
	}
	return c.rules[i], true
}

// Matcher returns the compiled matcher for the rule at position i in
// catalog order.
func (c *Catalog) Matcher(i int) *regexp.Regexp {
	return c.matchers[i]
}

// NeedsContext reports whether the matcher at position i must always run
// over the whole text, because it asserts on what precedes a match.
func (c *Catalog) NeedsContext(i int) bool {
	return c.contextual[i]
}

// Categories returns the distinct categories used by the catalog, sorted.
func (c *Catalog) Categories() []types.Category {
	out := make([]types.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Version is a content hash of the rule set. Two catalogs with identical
// rules in identical order share a version.
func (c *Catalog) Version() string {
	return c.version
}

// Suggest renders the suggestion of rule id for a concrete matched text.
// Capture groups are recomputed from the matched text alone; SuggestMatch
// uses the groups recorded by the scan.
func (c *Catalog) Suggest(id, matchedText string) string {
	return c.SuggestMatch(types.Match{RuleID: id, MatchedText: matchedText})
}

// SuggestMatch renders the suggestion for a scanned match.
func (c *Catalog) SuggestMatch(m types.Match) string {
	i, ok := c.byID[m.RuleID]
	if !ok {
		return ""
	}
	return Render(c.rules[i], c.matchers[i], m.MatchedText, m.Groups)
}

func contentVersion(rules []types.Rule) (string, error) {
	data, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("failed to encode rules for versioning: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])[:versionLength], nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return categoryPattern.MatchString(fl.Field().String())
	})
	return v
}

func validateRule(v *validator.Validate, rule types.Rule) error {
	if strings.TrimSpace(rule.Pattern) == "" {
		return &InvalidRuleError{RuleID: rule.ID, Field: "pattern", Message: "must not be empty"}
	}

	if err := v.Struct(rule); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &InvalidRuleError{RuleID: rule.ID, Field: fe.Field(), Message: describeTag(fe)}
		}
		return &InvalidRuleError{RuleID: rule.ID, Message: "validation failed", Cause: err}
	}

	if rule.Generator == types.GeneratorExpand && !rule.Regex {
		return &InvalidRuleError{RuleID: rule.ID, Field: "generator", Message: "expand requires a regex rule"}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "required_unless":
		return "must not be empty unless generator is remove"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "category":
		return fmt.Sprintf("must be a lowercase identifier, got %q", fe.Value())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
