package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/princinho/parkingbackend/apperror"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators makes validator report json/form field names and
// adds the "slotcode" tag.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		if err := v.RegisterValidation("slotcode", func(fl validator.FieldLevel) bool {
			return ValidCode(fl.Field().String())
		}); err != nil {
			registerErr = fmt.Errorf("register slotcode validator: %w", err)
		}
	})
	return registerErr
}

// BindQuery binds the query string into obj. A value that does not parse
// as a number is reported under its query key.
func BindQuery(c *gin.Context, obj any) *apperror.Error {
	err := c.ShouldBindQuery(obj)
	if err == nil {
		return nil
	}
	query := c.Request.URL.Query()
	return bindError(err, obj, "form", query.Get)
}

// BindURI binds path parameters into obj, reporting numeric parse
// failures under the parameter name.
func BindURI(c *gin.Context, obj any) *apperror.Error {
	err := c.ShouldBindUri(obj)
	if err == nil {
		return nil
	}
	return bindError(err, obj, "uri", c.Param)
}

func bindError(err error, obj any, tag string, lookup func(string) string) *apperror.Error {
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) {
		return BindingError(err)
	}
	field := tag
	if name := fieldWithValue(obj, tag, lookup, numErr.Num); name != "" {
		field = name
	}
	return apperror.Validation("Submitted data did not pass validation").
		WithField(field, fmt.Sprintf("%q is not a valid integer", numErr.Num))
}

// fieldWithValue returns the tag name of the first field of obj whose
// raw input equals value.
func fieldWithValue(obj any, tag string, lookup func(string) string, value string) string {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return ""
	}
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get(tag), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		if lookup(name) == value {
			return name
		}
	}
	return ""
}

// BindingError turns a gin bind failure into a validation error with
// per-field messages.
func BindingError(err error) *apperror.Error {
	appErr := apperror.Validation("Submitted data did not pass validation")

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			appErr.WithField(fe.Field(), fieldMessage(fe))
		}
		return appErr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return appErr.WithField(typeErr.Field, fmt.Sprintf("must be of type %s", typeErr.Type))
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return appErr.WithField("body", "malformed JSON")
	}
	return appErr.WithField("body", err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in format %s", fe.Param())
	case "slotcode":
		return "must be 2-10 characters A-Z or 0-9"
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
