package validation

import (
	"errors"
	"fmt"
	"strings"

	"CrudAPI/internal/model"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Engine checks a request body against the rules declared on a model.
// Errors come back in field declaration order.
type Engine interface {
	Validate(m *model.Model, body map[string]any) []FieldError
}

// RuleEngine runs go-playground/validator tags per field.
type RuleEngine struct {
	validate *validator.Validate
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{validate: validator.New()}
}

func (e *RuleEngine) Validate(m *model.Model, body map[string]any) []FieldError {
	var out []FieldError
	for _, f := range m.Fields {
		raw, present := body[f.Name]
		if !present || raw == nil {
			if f.Rules == "" || !requires(f.Rules) {
				continue
			}
			if err := e.validate.Var(nil, f.Rules); err != nil {
				out = append(out, FieldError{Field: f.Name, Message: message(f, err)})
			}
			continue
		}

		typed, err := f.Coerce(f.Normalized(raw))
		if err != nil {
			out = append(out, FieldError{Field: f.Name, Message: typeMessage(f)})
			continue
		}
		if f.Rules == "" {
			continue
		}
		if err := e.validate.Var(typed, f.Rules); err != nil {
			out = append(out, FieldError{Field: f.Name, Message: message(f, err)})
		}
	}
	return out
}

func requires(rules string) bool {
	for _, tag := range strings.Split(rules, ",") {
		if strings.HasPrefix(strings.TrimSpace(tag), "required") {
			return true
		}
	}
	return false
}

func typeMessage(f *model.Field) string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("%s must be of type %s", f.Name, f.Type)
}

func message(f *model.Field, err error) string {
	if f.Message != "" {
		return f.Message
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", f.Name)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return fmt.Sprintf("%s is required", f.Name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", f.Name)
	case "min":
		if f.Type == model.TypeString {
			return fmt.Sprintf("%s must be at least %s characters long", f.Name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f.Name, fe.Param())
	case "max":
		if f.Type == model.TypeString {
			return fmt.Sprintf("%s must be at most %s characters long", f.Name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f.Name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f.Name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", f.Name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f.Name, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", f.Name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must have length %s", f.Name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f.Name, fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed the %s=%s rule", f.Name, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed the %s rule", f.Name, fe.Tag())
	}
}
