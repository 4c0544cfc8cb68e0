package http

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// tickerPattern accepts exchange tickers such as BBCA, BBCA.JK or ^JKSE.
var tickerPattern = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,12}(\.[A-Za-z]{1,4})?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// messages maps a validator tag to a format taking the field and the tag parameter.
var messages = map[string]string{
	"required": "%s is required%.0s",
	"min":      "%s must be at least %s",
	"max":      "%s must be at most %s",
	"gt":       "%s must be greater than %s",
	"gte":      "%s must be at least %s",
	"lt":       "%s must be less than %s",
	"lte":      "%s must be at most %s",
	"oneof":    "%s must be one of: %s",
	"ticker":   "%s must be a ticker symbol%.0s",
	"dive":     "%s has an invalid element%.0s",
}

// Validate fills defaults and checks req outside of a request, e.g. a job payload.
func Validate(req interface{}) error {
	if err := defaults.Set(req); err != nil {
		return err
	}
	return validate.Struct(req)
}

// ValidationErrors converts an error from Validate into response details.
func ValidationErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprint(he.Message)}}
		}
		return []ValidationError{{Code: "ERR_BIND", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(fields))
	for _, fe := range fields {
		format, ok := messages[fe.Tag()]
		if !ok {
			format = "%s failed " + fe.Tag() + "%.0s"
		}
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(fe.Tag()),
			Field:   fe.Field(),
			Message: fmt.Sprintf(format, fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")),
		})
	}
	return out
}

// ReadAndValidateRequest binds the path, query and body into req, applies
// defaults and validates it. It returns nil when req is usable.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return ValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return ValidationErrors(err)
	}
	return ValidationErrors(validate.StructCtx(c.Request().Context(), req))
}
