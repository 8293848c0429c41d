// Copyright 2026 The Skyfile Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"
	"testing"
)

func TestStringLengthBounds(t *testing.T) {
	schema := String{MinLength: 2, MaxLength: 4}

	tests := []struct {
		name  string
		value any
		code  IssueCode
	}{
		{"at minimum", "ab", ""},
		{"at maximum", "abcd", ""},
		{"below minimum", "a", IssueInvalidLength},
		{"above maximum", "abcde", IssueInvalidLength},
		{"not a string", 7, IssueInvalidType},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			issues := Validate(schema, test.value)
			if test.code == "" {
				if len(issues) != 0 {
					t.Fatalf("Validate(%v) = %v, want no issues", test.value, issues)
				}
				return
			}
			if len(issues) != 1 {
				t.Fatalf("Validate(%v) = %v, want exactly one issue", test.value, issues)
			}
			if issues[0].Code != test.code {
				t.Errorf("issue code = %s, want %s", issues[0].Code, test.code)
			}
		})
	}
}

func TestStringLengthCountsCodePoints(t *testing.T) {
	// Four runes, twelve UTF-8 bytes. Length bounds count code
	// points, so this passes a max of 4.
	schema := String{MaxLength: 4}
	if issues := Validate(schema, "日本語字"); len(issues) != 0 {
		t.Errorf("multi-byte string rejected: %v", issues)
	}
	if issues := Validate(schema, "日本語字五"); len(issues) == 0 {
		t.Error("five code points should exceed a maximum of 4")
	}
}

func TestIntegerBoundsAreClosed(t *testing.T) {
	schema := Integer{Minimum: 0, Maximum: 100}

	tests := []struct {
		name  string
		value any
		code  IssueCode
	}{
		{"at minimum", 0, ""},
		{"at maximum", 100, ""},
		{"below minimum", -1, IssueInvalidRange},
		{"above maximum", 101, IssueInvalidRange},
		{"float with integral value", float64(50), ""},
		{"float with fraction", 50.5, IssueInvalidType},
		{"not a number", "50", IssueInvalidType},
		{"null", nil, IssueInvalidType},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			issues := Validate(schema, test.value)
			if test.code == "" {
				if len(issues) != 0 {
					t.Fatalf("Validate(%v) = %v, want no issues", test.value, issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Code != test.code {
				t.Fatalf("Validate(%v) = %v, want one %s issue", test.value, issues, test.code)
			}
		})
	}
}

func TestLiteral(t *testing.T) {
	schema := Literal{Value: "blob"}

	if issues := Validate(schema, "blob"); len(issues) != 0 {
		t.Errorf("exact literal rejected: %v", issues)
	}

	issues := Validate(schema, "blub")
	if len(issues) != 1 || issues[0].Code != IssueInvalidLiteral {
		t.Errorf("wrong literal = %v, want one invalid_literal issue", issues)
	}

	issues = Validate(schema, 3)
	if len(issues) != 1 || issues[0].Code != IssueInvalidType {
		t.Errorf("non-string literal = %v, want one invalid_type issue", issues)
	}
}

func TestObjectRequiredBeforeFieldValidation(t *testing.T) {
	schema := Object{
		Fields: []Field{
			{Name: "name", Required: true, Schema: String{MaxLength: 4}},
			{Name: "size", Required: true, Schema: Integer{Minimum: 0, Maximum: 10}},
		},
	}

	// Missing "size" plus invalid "name": both reported, required
	// presence first.
	issues := Validate(schema, map[string]any{"name": "toolong"})
	if len(issues) != 2 {
		t.Fatalf("Validate = %v, want 2 issues", issues)
	}
	if issues[0].Code != IssueMissingField || issues[0].Path != "size" {
		t.Errorf("first issue = %v, want missing_field at size", issues[0])
	}
	if issues[1].Code != IssueInvalidLength || issues[1].Path != "name" {
		t.Errorf("second issue = %v, want invalid_length at name", issues[1])
	}
}

func TestObjectNestedPaths(t *testing.T) {
	schema := Object{
		Fields: []Field{
			{Name: "file", Required: true, Schema: Object{
				Fields: []Field{
					{Name: "size", Required: true, Schema: Integer{Minimum: 0, Maximum: 100}},
				},
			}},
		},
	}

	issues := Validate(schema, map[string]any{
		"file": map[string]any{"size": 200},
	})
	if len(issues) != 1 {
		t.Fatalf("Validate = %v, want 1 issue", issues)
	}
	if issues[0].Path != "file.size" {
		t.Errorf("issue path = %q, want file.size", issues[0].Path)
	}
}

func TestObjectIgnoresUnknownFields(t *testing.T) {
	schema := Object{Fields: []Field{
		{Name: "name", Required: true, Schema: String{}},
	}}
	issues := Validate(schema, map[string]any{"name": "x", "extra": 42})
	if len(issues) != 0 {
		t.Errorf("unknown field rejected: %v", issues)
	}
}

func TestOptionalAcceptsNull(t *testing.T) {
	schema := Optional{Inner: String{MaxLength: 4}}
	if issues := Validate(schema, nil); len(issues) != 0 {
		t.Errorf("null rejected by optional: %v", issues)
	}
	if issues := Validate(schema, "toolong"); len(issues) == 0 {
		t.Error("optional should still validate non-null values")
	}
}

func TestUnionFirstMatchWins(t *testing.T) {
	schema := Union{Branches: []Schema{
		Object{Name: "a", Fields: []Field{{Name: "a", Required: true, Schema: String{}}}},
		Object{Name: "b", Fields: []Field{{Name: "b", Required: true, Schema: String{}}}},
	}}

	if issues := Validate(schema, map[string]any{"a": "x"}); len(issues) != 0 {
		t.Errorf("first branch rejected: %v", issues)
	}
	if issues := Validate(schema, map[string]any{"b": "x"}); len(issues) != 0 {
		t.Errorf("second branch rejected: %v", issues)
	}
}

func TestUnionNoMatchNamesBranches(t *testing.T) {
	schema := Union{Branches: []Schema{
		Object{Name: "typed blob", Fields: []Field{{Name: "ref", Required: true, Schema: String{}}}},
		Object{Name: "legacy blob", Fields: []Field{{Name: "cid", Required: true, Schema: String{}}}},
	}}

	issues := Validate(schema, map[string]any{"neither": true})
	if len(issues) != 1 || issues[0].Code != IssueInvalidUnion {
		t.Fatalf("Validate = %v, want one invalid_union issue", issues)
	}
	for _, name := range []string{"typed blob", "legacy blob"} {
		if !strings.Contains(issues[0].Detail, name) {
			t.Errorf("union issue detail %q does not name branch %q", issues[0].Detail, name)
		}
	}
}

func TestDateTimeFormat(t *testing.T) {
	schema := String{Format: FormatDateTime}

	valid := []string{
		"2026-08-31T12:00:00Z",
		"2026-08-31T12:00:00.123Z",
		"2026-08-31T12:00:00+02:00",
	}
	for _, value := range valid {
		if issues := Validate(schema, value); len(issues) != 0 {
			t.Errorf("Validate(%q) = %v, want no issues", value, issues)
		}
	}

	invalid := []string{"", "yesterday", "2026-08-31", "2026-13-01T00:00:00Z"}
	for _, value := range invalid {
		issues := Validate(schema, value)
		if len(issues) != 1 || issues[0].Code != IssueInvalidFormat {
			t.Errorf("Validate(%q) = %v, want one invalid_format issue", value, issues)
		}
	}
}

func TestActorIdentifierFormat(t *testing.T) {
	valid := []string{
		"alice.example.com",
		"alice.bsky.social",
		"did:plc:ewvi7nxzyoun6zhxrhs64oiz",
		"did:web:example.com",
	}
	for _, value := range valid {
		if !IsActorIdentifier(value) {
			t.Errorf("IsActorIdentifier(%q) = false, want true", value)
		}
	}

	invalid := []string{"", "alice", "did:", "did:plc:", "@alice.example.com", "no spaces allowed.com x"}
	for _, value := range invalid {
		if IsActorIdentifier(value) {
			t.Errorf("IsActorIdentifier(%q) = true, want false", value)
		}
	}
}

func TestSafeParseNeverPanicsAndCollectsAll(t *testing.T) {
	schema := Object{Fields: []Field{
		{Name: "a", Required: true, Schema: String{MaxLength: 1}},
		{Name: "b", Required: true, Schema: Integer{Minimum: 0, Maximum: 1}},
	}}

	result := SafeParse(schema, map[string]any{"a": "xx", "b": 5})
	if result.OK {
		t.Fatal("SafeParse should fail")
	}
	if len(result.Issues) != 2 {
		t.Fatalf("issues = %v, want 2", result.Issues)
	}
	if result.Message == "" {
		t.Error("failed result should carry a summary message")
	}
}

func TestParseReturnsValidationError(t *testing.T) {
	err := Parse(String{MaxLength: 1}, "toolong")
	if err == nil {
		t.Fatal("Parse should fail")
	}
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Parse error type = %T, want *ValidationError", err)
	}
	if len(validationErr.Issues) != 1 {
		t.Errorf("issues = %v, want 1", validationErr.Issues)
	}
}

func TestMatchesIsBoolean(t *testing.T) {
	schema := Boolean{}
	if !Matches(schema, true) {
		t.Error("Matches(true) = false")
	}
	if Matches(schema, "true") {
		t.Error("Matches(\"true\") = true")
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	value := map[string]any{"name": "x"}
	Validate(Object{Fields: []Field{
		{Name: "name", Required: true, Schema: String{}},
		{Name: "missing", Required: true, Schema: String{}},
	}}, value)

	if len(value) != 1 || value["name"] != "x" {
		t.Errorf("input mutated: %v", value)
	}
}
