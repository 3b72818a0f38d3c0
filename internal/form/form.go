// Package form holds controlled form state shared by the login, registration,
// settings and task-template flows. Validation runs before any network call.
package form

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field declares one input of a form
type Field struct {
	Name     string
	Label    string
	Required bool
	MinLen   int
	Email    bool
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// FieldError is a validation failure of one field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every failing field, in declaration order
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Form is the value state of a set of declared fields
type Form struct {
	fields []Field
	values map[string]string
}

// New creates an empty form
func New(fields ...Field) *Form {
	return &Form{
		fields: fields,
		values: make(map[string]string, len(fields)),
	}
}

// Set updates a field value. Undeclared fields are ignored.
func (f *Form) Set(name, value string) {
	for _, field := range f.fields {
		if field.Name == name {
			f.values[name] = value
			return
		}
	}
}

// Get returns the current value of a field
func (f *Form) Get(name string) string {
	return f.values[name]
}

// Values returns a copy of all non-empty values
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Reset clears every value
func (f *Form) Reset() {
	f.values = make(map[string]string, len(f.fields))
}

// Validate checks every declared rule and returns a *ValidationError, or nil
func (f *Form) Validate() error {
	var errs []FieldError
	for _, field := range f.fields {
		value := strings.TrimSpace(f.values[field.Name])

		if value == "" {
			if field.Required {
				errs = append(errs, FieldError{Field: field.Name, Message: fmt.Sprintf("%s is required", field.label())})
			}
			continue
		}

		if field.MinLen > 0 && utf8.RuneCountInString(value) < field.MinLen {
			errs = append(errs, FieldError{
				Field:   field.Name,
				Message: fmt.Sprintf("%s must be at least %d characters", field.label(), field.MinLen),
			})
			continue
		}

		if field.Email {
			if _, err := mail.ParseAddress(value); err != nil {
				errs = append(errs, FieldError{Field: field.Name, Message: fmt.Sprintf("%s is not a valid email", field.label())})
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
