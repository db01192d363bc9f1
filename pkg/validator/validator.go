package validator

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var instance = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

func ValidateStruct(s interface{}) error {
	return instance().Struct(s)
}

// TranslateError maps each failing field to its validation message. Errors
// that did not come from the validator yield an empty map.
func TranslateError(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Describe renders a validation error as "field: tag" pairs sorted by field
// name, e.g. "FetchIntervalSeconds: gte, ID: required".
func Describe(err error) string {
	fields := TranslateError(err)
	if len(fields) == 0 {
		if err == nil {
			return ""
		}
		return err.Error()
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + fields[name]
	}
	return strings.Join(parts, ", ")
}
