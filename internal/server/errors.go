package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/bias-detector/internal/catalog"
	"github.com/jonathan/bias-detector/internal/rewriting"
	"github.com/jonathan/bias-detector/internal/session"
)

// ErrNotFound indicates a missing session, issue or history record
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrReloadDisabled indicates the server was started without a catalog file
type ErrReloadDisabled struct{}

func (e *ErrReloadDisabled) Error() string {
	return "catalog reload is disabled: server uses the built-in catalog"
}

// validationError converts validator errors into an ErrValidation naming
// every failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return &ErrValidation{Field: strings.Join(fields, ","), Message: strings.Join(msgs, "; ")}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrNotFound
		validation *ErrValidation
		disabled   *ErrReloadDisabled
		invalid    *catalog.InvalidRuleError
		load       *catalog.LoadError
		overlap    *rewriting.OverlappingEditError
		span       *rewriting.SpanError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &invalid), errors.As(err, &load):
		return http.StatusBadRequest
	case errors.As(err, &overlap), errors.As(err, &span), errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &disabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
