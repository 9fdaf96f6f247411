package workflow

import (
	"fmt"
	"strings"
)

// Predicate checks a single field value and reports why it is not
// acceptable. A nil error means the value passes.
type Predicate func(value string) error

// Dependency keys a conditional rule on a sibling field: the rule is only
// active while the sibling currently equals MatchValue.
type Dependency struct {
	Field      string
	MatchValue string
}

// FieldRule is one node of the validation graph. The same field may be
// required by several active rules at once; stage validity is the
// conjunction of every active rule. A rule with dependencies is active only
// while every dependency field equals its match value.
type FieldRule struct {
	Field     string
	Predicate Predicate
	DependsOn []Dependency
}

// Active reports whether the rule applies given the current field values.
// Deactivating a rule leaves any already-entered value in place: it becomes
// inert, not deleted, so switching the driving field back loses nothing.
func (r FieldRule) Active(fields map[string]string) bool {
	for _, dep := range r.DependsOn {
		if fields[dep.Field] != dep.MatchValue {
			return false
		}
	}
	return true
}

// Check evaluates the rule's predicate against the current value of its
// field.
func (r FieldRule) Check(fields map[string]string) error {
	predicate := r.Predicate
	if predicate == nil {
		predicate = NotEmpty
	}
	return predicate(fields[r.Field])
}

// NotEmpty is the default predicate: the field must hold a non-blank value.
func NotEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

// Required builds an unconditional presence rule.
func Required(field string) FieldRule {
	return FieldRule{Field: field}
}

// RequiredWhen builds a presence rule that is only active while the
// dependency field equals matchValue.
func RequiredWhen(field, dependsOnField, matchValue string) FieldRule {
	return FieldRule{
		Field:     field,
		DependsOn: []Dependency{{Field: dependsOnField, MatchValue: matchValue}},
	}
}

// RequiredWhenAll builds a presence rule that is only active while every
// dependency holds at once.
func RequiredWhenAll(field string, deps ...Dependency) FieldRule {
	return FieldRule{Field: field, DependsOn: deps}
}

// WithPredicate attaches a format predicate to the rule, replacing the
// default presence check.
func (r FieldRule) WithPredicate(predicate Predicate) FieldRule {
	r.Predicate = predicate
	return r
}
