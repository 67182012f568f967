package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()

		// report fields by their config key
		validatorInstance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		validatorInstance.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})

	return validatorInstance
}

// Validate validates the configuration
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return spliceerrors.Wrap(spliceerrors.ErrorTypeConfiguration, "invalid configuration", err)
	}

	return spliceerrors.ConfigurationError(describe(fieldErrs[0]))
}

// describe turns a field error into a message naming the config key
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch fe.Tag() {
	case "notblank", "required":
		return key + " is required"
	case "gt":
		return key + " must be positive"
	case "gte":
		return key + " must not be negative"
	case "oneof":
		return fmt.Sprintf("%s must be %s", key, joinChoices(strings.Fields(fe.Param())))
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

func joinChoices(choices []string) string {
	if len(choices) < 2 {
		return strings.Join(choices, "")
	}
	return strings.Join(choices[:len(choices)-1], ", ") + " or " + choices[len(choices)-1]
}
