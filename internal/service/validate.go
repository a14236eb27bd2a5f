// Package service contains the business rules of the message box.
//
// Handlers parse HTTP and hand plain input structs to a service. The service
// validates them, talks to the repository interfaces and returns domain
// errors from apperror; it never sees *http.Request or a concrete storage
// engine. That keeps every rule testable with in-memory fakes
// (see fakes_test.go).
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/otayori/internal/apperror"
)

// validate is shared by every service; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name, which is what API clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// "xid": a well-formed record identifier.
	if err := v.RegisterValidation("xid", func(fl validator.FieldLevel) bool {
		return validID(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// validID reports whether id has the shape of an identifier the
// repositories generate. It says nothing about whether the record exists.
func validID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}

// checkStruct runs the struct tags on input and converts the first failure
// into an apperror validation error.
func checkStruct(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validating input: %w", err)
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperror.ValidationFailed(field, field+" is required")
	case "xid":
		return apperror.ValidationFailed(field, field+" is not a valid id")
	case "datetime":
		return apperror.ValidationFailed(field, field+" must be a date in YYYY-MM-DD form")
	default:
		return apperror.ValidationFailed(field, field+" is invalid")
	}
}

// requireID validates a path identifier before it reaches storage.
func requireID(resource, id string) error {
	if !validID(id) {
		return apperror.ValidationFailed("id", "invalid "+resource+" id")
	}
	return nil
}

// optional returns nil for a blank string and a pointer to the trimmed
// value otherwise.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
