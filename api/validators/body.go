package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-catalog/pkg/errors"
)

// MaxBodyBytes caps every JSON request body. Storefront payloads are a few
// short fields.
const MaxBodyBytes = 16 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// DecodeJSONBody decodes exactly one JSON object into dest and validates it.
// An empty body decodes as {} so payloads made only of optional fields work.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}()

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return bodyError(err)
	}
	if decoder.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must hold a single json object")
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func bodyError(err error) *pkgerrors.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
			WithDetails(map[string]any{"limitBytes": tooLarge.Limit})
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails(map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
		WithDetails(map[string]any{"error": err.Error()})
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "excludes":
		return fmt.Sprintf("must not contain %q", fe.Param())
	}
	return "is invalid"
}
