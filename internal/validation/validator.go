// Package validation checks API request bodies with go-playground/validator
// and reports failures as InvalidArgument errors keyed by JSON field path.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bookster/catalog-server/internal/domain"
	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the catalog's custom tags:
//
//	slug             lowercase words joined by single hyphens
//	language         two or three letter lowercase language code
//	external_source  a known external source name or wire code
//	reaction         LIKE or DISLIKE in any case
//	reading_status   WANT, READING, READ or DNF in any case
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	must(v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return languagePattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("external_source", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseExternalSource(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("reaction", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseReaction(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("reading_status", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseReadingStatus(fl.Field().String())
		return err == nil
	}))

	return &Validator{v: v}
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("validation: register tag: %v", err))
	}
}

// Validate validates a struct. Field failures come back as an
// InvalidArgument error whose details map field paths to messages.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domainerrors.InvalidArgument(err.Error())
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = friendlyMessage(e)
	}

	return domainerrors.InvalidArgumentWithDetails("validation failed", fieldErrors)
}

// fieldPath drops the root struct name: "UpsertBookBody.authors[0].name"
// becomes "authors[0].name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not have more than %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "required_with":
		return "is required when " + e.Param() + " is set"
	case "gtefield":
		return "must not be before " + e.Param()
	case "slug":
		return "must be lowercase letters and digits separated by hyphens"
	case "language":
		return "must be a two or three letter language code"
	case "external_source":
		return "must be one of: OPEN_LIBRARY, GOOGLE_BOOKS, OTHER"
	case "reaction":
		return "must be one of: LIKE, DISLIKE"
	case "reading_status":
		return "must be one of: WANT, READING, READ, DNF"
	default:
		return "is invalid"
	}
}
