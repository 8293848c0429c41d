// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"
	"unicode/utf8"
)

// Schema describes the required shape of an untyped value. A schema is
// a tree of composable variants (String, Integer, Object, Union, ...)
// interpreted by a single recursive validation routine. Validation is a
// pure function of (schema, value): it never mutates the input and
// reports every violation it finds, not just the first.
type Schema interface {
	// check validates value and appends any violations to issues.
	// path is the dotted location of value relative to the root.
	check(path string, value any, issues *[]Issue)

	// kind returns a short human-readable name for the schema,
	// used in issue details and union diagnostics.
	kind() string
}

// IssueCode classifies a validation violation so callers can react
// programmatically without parsing detail text.
type IssueCode string

const (
	// IssueMissingField reports a required object field that is absent.
	IssueMissingField IssueCode = "missing_field"

	// IssueInvalidType reports a value of the wrong type, including
	// non-integral numbers where an integer is required.
	IssueInvalidType IssueCode = "invalid_type"

	// IssueInvalidRange reports an integer outside its closed interval.
	IssueInvalidRange IssueCode = "invalid_range"

	// IssueInvalidLength reports a string whose length (in Unicode
	// code points) is outside its closed interval.
	IssueInvalidLength IssueCode = "invalid_length"

	// IssueInvalidLiteral reports a value that does not equal the
	// exact literal required by the schema.
	IssueInvalidLiteral IssueCode = "invalid_literal"

	// IssueInvalidFormat reports a string that fails a named format
	// check (datetime, actor identifier).
	IssueInvalidFormat IssueCode = "invalid_format"

	// IssueInvalidUnion reports a value that matches no branch of a
	// union schema.
	IssueInvalidUnion IssueCode = "invalid_union"
)

// Issue is a single validation violation with its location. The path
// is dotted from the validation root (e.g. "file.size"), empty for the
// root value itself.
type Issue struct {
	Code   IssueCode `json:"code"`
	Path   string    `json:"path"`
	Detail string    `json:"detail"`
}

// String renders the issue for human-readable error listings.
func (i Issue) String() string {
	if i.Path == "" {
		return i.Detail
	}
	return i.Path + ": " + i.Detail
}

// Validate checks value against schema and returns the complete list
// of violations. An empty (nil) result means the value conforms.
func Validate(schema Schema, value any) []Issue {
	var issues []Issue
	schema.check("", value, &issues)
	return issues
}

// Matches reports whether value conforms to schema. This is the
// type-guard entry point: a boolean verdict with no further detail.
func Matches(schema Schema, value any) bool {
	return len(Validate(schema, value)) == 0
}

// Result is the outcome of SafeParse. When OK is false, Message holds
// a one-line human summary and Issues the full ordered violation list.
type Result struct {
	OK      bool    `json:"ok"`
	Message string  `json:"message,omitempty"`
	Issues  []Issue `json:"issues,omitempty"`
}

// SafeParse validates value against schema and returns a Result
// instead of an error. It never panics; the caller decides how to
// react to a failed validation.
func SafeParse(schema Schema, value any) Result {
	issues := Validate(schema, value)
	if len(issues) == 0 {
		return Result{OK: true}
	}
	return Result{
		OK:      false,
		Message: summarize(issues),
		Issues:  issues,
	}
}

// Parse validates value against schema and returns a *ValidationError
// carrying the full issue list when the value does not conform. Use
// where an invalid value is unrecoverable at the call site.
func Parse(schema Schema, value any) error {
	issues := Validate(schema, value)
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// ValidationError is returned by Parse when a value fails validation.
// It carries the same issue list that SafeParse reports.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return summarize(e.Issues)
}

// summarize builds the one-line human summary: the first issue plus a
// count of any remaining ones.
func summarize(issues []Issue) string {
	if len(issues) == 0 {
		return "value is valid"
	}
	summary := "validation failed: " + issues[0].String()
	if rest := len(issues) - 1; rest == 1 {
		summary += " (and 1 more issue)"
	} else if rest > 1 {
		summary += fmt.Sprintf(" (and %d more issues)", rest)
	}
	return summary
}

// joinPath appends a field name to a dotted path.
func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// Format names a domain-specific string format layered on top of the
// basic string type check.
type Format string

const (
	// FormatNone applies no format check.
	FormatNone Format = ""

	// FormatDateTime requires an RFC 3339 date-time string.
	FormatDateTime Format = "datetime"

	// FormatActor requires an AT Protocol actor identifier: either a
	// handle (dotted domain form) or a DID.
	FormatActor Format = "actor"
)

// String validates string values. Length bounds are closed intervals
// counted in Unicode code points, not bytes — a deliberate convention;
// a server counting UTF-8 bytes or UTF-16 units may still reject a
// value this schema accepts, and that server error propagates
// normally.
type String struct {
	// MinLength is the minimum length in code points.
	MinLength int

	// MaxLength is the maximum length in code points. Zero or
	// negative means unbounded.
	MaxLength int

	// Format is an optional named format check applied after the
	// length bounds.
	Format Format
}

func (s String) kind() string { return "string" }

func (s String) check(path string, value any, issues *[]Issue) {
	text, ok := value.(string)
	if !ok {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidType,
			Path:   path,
			Detail: fmt.Sprintf("expected string, got %s", typeName(value)),
		})
		return
	}

	length := utf8.RuneCountInString(text)
	if length < s.MinLength {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidLength,
			Path:   path,
			Detail: fmt.Sprintf("string is %d code points, minimum is %d", length, s.MinLength),
		})
		return
	}
	if s.MaxLength > 0 && length > s.MaxLength {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidLength,
			Path:   path,
			Detail: fmt.Sprintf("string is %d code points, maximum is %d", length, s.MaxLength),
		})
		return
	}

	switch s.Format {
	case FormatDateTime:
		if _, err := time.Parse(time.RFC3339, text); err != nil {
			*issues = append(*issues, Issue{
				Code:   IssueInvalidFormat,
				Path:   path,
				Detail: fmt.Sprintf("%q is not an RFC 3339 date-time", text),
			})
		}
	case FormatActor:
		if !IsActorIdentifier(text) {
			*issues = append(*issues, Issue{
				Code:   IssueInvalidFormat,
				Path:   path,
				Detail: fmt.Sprintf("%q is not a handle or DID", text),
			})
		}
	}
}

// Integer validates integral numeric values against a closed interval.
// A numeric value with a fractional part is an invalid_type, distinct
// from an in-type but out-of-range integer (invalid_range).
type Integer struct {
	// Minimum and Maximum bound the accepted interval, both
	// inclusive.
	Minimum int64
	Maximum int64
}

func (s Integer) kind() string { return "integer" }

func (s Integer) check(path string, value any, issues *[]Issue) {
	number, ok := integerValue(value)
	if !ok {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidType,
			Path:   path,
			Detail: fmt.Sprintf("expected integer, got %s", typeName(value)),
		})
		return
	}
	if number < s.Minimum || number > s.Maximum {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidRange,
			Path:   path,
			Detail: fmt.Sprintf("%d is outside the range [%d, %d]", number, s.Minimum, s.Maximum),
		})
	}
}

// Boolean validates boolean values.
type Boolean struct{}

func (s Boolean) kind() string { return "boolean" }

func (s Boolean) check(path string, value any, issues *[]Issue) {
	if _, ok := value.(bool); !ok {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidType,
			Path:   path,
			Detail: fmt.Sprintf("expected boolean, got %s", typeName(value)),
		})
	}
}

// Literal validates that a value equals an exact string. Used for type
// discriminators like the record's "$type" field.
type Literal struct {
	Value string
}

func (s Literal) kind() string { return fmt.Sprintf("literal %q", s.Value) }

func (s Literal) check(path string, value any, issues *[]Issue) {
	text, ok := value.(string)
	if !ok {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidType,
			Path:   path,
			Detail: fmt.Sprintf("expected string literal %q, got %s", s.Value, typeName(value)),
		})
		return
	}
	if text != s.Value {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidLiteral,
			Path:   path,
			Detail: fmt.Sprintf("expected %q, got %q", s.Value, text),
		})
	}
}

// Field is a named member of an Object schema.
type Field struct {
	Name     string
	Schema   Schema
	Required bool
}

// Object validates a mapping of named fields. Required fields are
// checked for presence first; then every present field (required or
// optional) is validated against its own sub-schema, in declared
// order. Unknown fields are ignored — records are open for forward
// compatibility.
//
// "Field absent" and "field present but empty" are distinct: absence
// means the key is not in the map at all.
type Object struct {
	// Name labels the object in diagnostics; "object" when empty.
	Name   string
	Fields []Field
}

func (s Object) kind() string {
	if s.Name != "" {
		return s.Name
	}
	return "object"
}

func (s Object) check(path string, value any, issues *[]Issue) {
	mapping, ok := value.(map[string]any)
	if !ok {
		*issues = append(*issues, Issue{
			Code:   IssueInvalidType,
			Path:   path,
			Detail: fmt.Sprintf("expected %s, got %s", s.kind(), typeName(value)),
		})
		return
	}

	// Pass 1: required presence.
	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		if _, present := mapping[field.Name]; !present {
			*issues = append(*issues, Issue{
				Code:   IssueMissingField,
				Path:   joinPath(path, field.Name),
				Detail: "required field is missing",
			})
		}
	}

	// Pass 2: every present field against its sub-schema.
	for _, field := range s.Fields {
		fieldValue, present := mapping[field.Name]
		if !present {
			continue
		}
		field.Schema.check(joinPath(path, field.Name), fieldValue, issues)
	}
}

// Optional wraps a schema to additionally accept an explicit null.
// Field absence is handled by Field.Required on the enclosing Object;
// Optional covers values that are present but null.
type Optional struct {
	Inner Schema
}

func (s Optional) kind() string { return "optional " + s.Inner.kind() }

func (s Optional) check(path string, value any, issues *[]Issue) {
	if value == nil {
		return
	}
	s.Inner.check(path, value, issues)
}

// Union validates a value against several alternative shapes. Branches
// are tried in declared order and the first full structural match
// wins. When no branch matches, a single union-level issue is reported
// naming the attempted branches.
type Union struct {
	Branches []Schema
}

func (s Union) kind() string { return "union" }

func (s Union) check(path string, value any, issues *[]Issue) {
	names := make([]string, 0, len(s.Branches))
	for _, branch := range s.Branches {
		var branchIssues []Issue
		branch.check(path, value, &branchIssues)
		if len(branchIssues) == 0 {
			return
		}
		names = append(names, branch.kind())
	}
	detail := "value matches no union branch"
	if len(names) > 0 {
		detail = fmt.Sprintf("value matches none of %d branches (tried: %s)", len(names), joinNames(names))
	}
	*issues = append(*issues, Issue{
		Code:   IssueInvalidUnion,
		Path:   path,
		Detail: detail,
	})
}

func joinNames(names []string) string {
	joined := ""
	for index, name := range names {
		if index > 0 {
			joined += ", "
		}
		joined += name
	}
	return joined
}

// integerValue extracts an exact integer from the numeric types a
// parsed-JSON value can carry. Returns false for non-numeric values
// and for floats with a fractional part.
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// typeName names a value's dynamic type for issue details, using JSON
// terminology rather than Go type names.
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

var (
	// didPattern matches DIDs per the AT Protocol identifier syntax:
	// a lowercase method name and a non-empty method-specific part.
	didPattern = regexp.MustCompile(`^did:[a-z]+:[A-Za-z0-9._:%-]*[A-Za-z0-9._-]$`)

	// handlePattern matches handles: two or more dot-separated DNS
	// labels, final label alphabetic-led.
	handlePattern = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// IsActorIdentifier reports whether text is shaped like an AT Protocol
// actor identifier: a handle ("alice.example.com") or a DID
// ("did:plc:abc123"). Shape check only — no resolution is attempted.
func IsActorIdentifier(text string) bool {
	return didPattern.MatchString(text) || handlePattern.MatchString(text)
}
