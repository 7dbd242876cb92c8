package ir

import (
	"fmt"
	"strings"
)

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Code    string   // e.g., "MISSING_INITIAL", "INVALID_TARGET"
	Message string   // Human-readable description
	Path    []string // e.g., ["states", "green", "on", "TIMER_END", "0"]
}

// String returns a human-readable representation of the issue
func (v ValidationIssue) String() string {
	if len(v.Path) > 0 {
		return fmt.Sprintf("[%s] %s (at %s)", v.Code, v.Message, strings.Join(v.Path, "."))
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// ValidationError contains all validation issues found during validation
type ValidationError struct {
	Issues []ValidationIssue
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("validation failed with %d issues:\n", len(e.Issues)))
	for i, issue := range e.Issues {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, issue.String()))
	}
	return b.String()
}

// AddIssue adds a validation issue to the error
func (e *ValidationError) AddIssue(code, message string, path ...string) {
	e.Issues = append(e.Issues, ValidationIssue{
		Code:    code,
		Message: message,
		Path:    path,
	})
}

// HasIssues returns true if there are any validation issues
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Validation error codes
const (
	ErrCodeMissingInitial  = "MISSING_INITIAL"
	ErrCodeInitialNotFound = "INITIAL_NOT_FOUND"
	ErrCodeInvalidTarget   = "INVALID_TARGET"
	ErrCodeMissingGuard    = "MISSING_GUARD"
	ErrCodeNoStates        = "NO_STATES"
	ErrCodeDuplicateState  = "DUPLICATE_STATE"
)

// Validate checks the normalized machine for configuration defects.
// All issues are collected and reported together; a machine for which
// Validate returns non-nil must never be used.
func Validate(m *Machine) *ValidationError {
	errs := &ValidationError{}

	if m.Initial == "" {
		errs.AddIssue(ErrCodeMissingInitial, "initial state is required")
	}

	if len(m.States) == 0 {
		errs.AddIssue(ErrCodeNoStates, "at least one state is required")
	}

	if m.Initial != "" && len(m.States) > 0 {
		if _, ok := m.States[m.Initial]; !ok {
			errs.AddIssue(ErrCodeInitialNotFound,
				fmt.Sprintf("initial state '%s' not found in states", m.Initial))
		}
	}

	for _, id := range m.Duplicate {
		errs.AddIssue(ErrCodeDuplicateState,
			fmt.Sprintf("state '%s' is declared more than once", id),
			"states", string(id))
	}

	for _, stateID := range m.Order {
		state := m.States[stateID]
		validateTable(m, state.On, errs, "states", string(stateID), "on")
	}
	validateTable(m, m.Global, errs, "on")

	if errs.HasIssues() {
		return errs
	}
	return nil
}

func validateTable(m *Machine, table map[EventType][]Candidate, errs *ValidationError, basePath ...string) {
	for event, candidates := range table {
		for i, c := range candidates {
			path := append(append([]string{}, basePath...), string(event), fmt.Sprintf("%d", i))

			if _, ok := m.States[c.Target]; !ok {
				errs.AddIssue(ErrCodeInvalidTarget,
					fmt.Sprintf("transition target '%s' not found", c.Target),
					path...)
			}

			if c.Guard != "" {
				if _, ok := m.Guards[c.Guard]; !ok {
					errs.AddIssue(ErrCodeMissingGuard,
						fmt.Sprintf("guard '%s' is not defined", c.Guard),
						path...)
				}
			}
		}
	}
}
