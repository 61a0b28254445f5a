package domain

import (
	"fmt"
	"strings"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
)

func ParseFieldType(s string) (FieldType, error) {
	switch ft := FieldType(strings.ToLower(strings.TrimSpace(s))); ft {
	case FieldText, FieldSelect, FieldRadio, FieldCheckbox, FieldEmail, FieldPhone, FieldNumber, FieldDate:
		return ft, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse field type", fmt.Errorf("unknown field type %q", s))
	}
}

// IsChoice reports whether the field carries a fixed option list.
func (t FieldType) IsChoice() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

type FormField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"field_type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

// Validate enforces that options are present exactly for choice types.
func (f FormField) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return WrapError(ErrInvalidInput, "validate form field", fmt.Errorf("field name is empty"))
	}
	if f.Type.IsChoice() && len(f.Options) == 0 {
		return WrapError(ErrInvalidInput, "validate form field", fmt.Errorf("%s field %q has no options", f.Type, f.Name))
	}
	if !f.Type.IsChoice() && len(f.Options) > 0 {
		return WrapError(ErrInvalidInput, "validate form field", fmt.Errorf("%s field %q must not carry options", f.Type, f.Name))
	}
	return nil
}

// DetectFieldType guesses a field's type from its name and surrounding
// context. It is a heuristic: callers that know the real type should pass it
// explicitly and skip detection.
func DetectFieldType(fieldName, fieldContext string) FieldType {
	name := strings.ToLower(fieldName)

	for _, kw := range []string{"email", "e-mail"} {
		if strings.Contains(name, kw) {
			return FieldEmail
		}
	}
	for _, kw := range []string{"phone", "telephone", "mobile"} {
		if strings.Contains(name, kw) {
			return FieldPhone
		}
	}
	for _, kw := range []string{"number", "count", "quantity", "amount"} {
		if strings.Contains(name, kw) {
			return FieldNumber
		}
	}
	for _, kw := range []string{"date", "year", "month", "day"} {
		if strings.Contains(name, kw) {
			return FieldDate
		}
	}

	ctx := strings.ToLower(fieldContext)
	if ctx != "" {
		if strings.Contains(ctx, "select all that apply") || strings.Contains(ctx, "multiple") {
			return FieldCheckbox
		}
		for _, kw := range []string{"yes/no", "select an option", "choose one"} {
			if strings.Contains(ctx, kw) {
				if strings.Count(fieldContext, "\n") <= 3 {
					return FieldRadio
				}
				return FieldSelect
			}
		}
	}

	return FieldText
}
