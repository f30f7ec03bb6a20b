package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/oliveoi1/clnbrd/internal/hotkey"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("hotkey", func(fl validator.FieldLevel) bool {
			_, err := hotkey.ParseCombo(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("clipboard_backend", func(fl validator.FieldLevel) bool {
			return validBackend(fl.Field().String())
		})
	})
	return validate
}

// Validate checks every field and reports all problems at once.
func Validate(cfg *Config) error {
	err := validatorInstance().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		key := strings.TrimPrefix(e.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s %s", key, formatValidationError(e)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "contains":
		return fmt.Sprintf("must contain %q", e.Param())
	case "hotkey":
		return fmt.Sprintf("is not a valid hotkey: %v", e.Value())
	case "clipboard_backend":
		return fmt.Sprintf("is not a clipboard backend: %v", e.Value())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
