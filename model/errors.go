package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a post, comment or the profile does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError collects per-field messages for an invalid payload.
type ValidationError struct {
	Fields map[string][]string
	order  []string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Error reports the first message and how many more follow it.
func (e *ValidationError) Error() string {
	var first string
	total := 0
	for _, field := range e.order {
		for _, msg := range e.Fields[field] {
			if total == 0 {
				first = msg
			}
			total++
		}
	}
	if total == 0 {
		return "The given data was invalid."
	}
	if total == 1 {
		return first
	}
	more := total - 1
	noun := "errors"
	if more == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%s (and %d more %s)", first, more, noun)
}

// Err returns nil when no field failed.
func (e *ValidationError) Err() error {
	if len(e.order) == 0 {
		return nil
	}
	return e
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func (e *ValidationError) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, fmt.Sprintf("The %s field is required.", label(field)))
	}
}

func (e *ValidationError) maxLen(field, value string, max int) {
	if len([]rune(value)) > max {
		e.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), max))
	}
}
