package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockScope/internal/calculator"
	"StockScope/internal/classifier"
	"StockScope/internal/collector"
	"StockScope/internal/features"
)

// APIResponse is the envelope of every JSON reply.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// AppError is an error with the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// DataResponse writes data with the given status.
func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// SuccessResponse writes a 200 reply.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes a 400 reply.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse maps err to its status and writes it.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := classify(err)
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}

// classify maps pipeline and fetch failures onto HTTP statuses.
func classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ide *calculator.InsufficientDataError
	var fe *collector.FetchError
	switch {
	case errors.As(err, &ide):
		return &AppError{Code: "ERR_INSUFFICIENT_DATA", Message: ide.Error(), Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, calculator.ErrInsufficientData):
		return &AppError{Code: "ERR_INSUFFICIENT_DATA", Message: err.Error(), Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, features.ErrEmptyDataset):
		return &AppError{Code: "ERR_EMPTY_DATASET", Message: "too few usable rows after indicator warm-up; no prediction is possible", Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, calculator.ErrInvalidPeriod),
		errors.Is(err, classifier.ErrInvalidConfig),
		errors.Is(err, features.ErrUnknownFeature):
		return &AppError{Code: "ERR_BAD_PARAMETERS", Message: err.Error(), Status: http.StatusBadRequest, Err: err}
	case errors.Is(err, collector.ErrUnsupported):
		return &AppError{Code: "ERR_UNSUPPORTED", Message: err.Error(), Status: http.StatusNotImplemented, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: "ERR_TIMEOUT", Message: "data source timed out", Status: http.StatusGatewayTimeout, Err: err}
	case errors.As(err, &fe):
		return &AppError{Code: "ERR_UPSTREAM", Message: fe.Error(), Status: http.StatusBadGateway, Err: err}
	}
	return &AppError{Code: "ERR_INTERNAL", Message: "Something went wrong", Status: http.StatusInternalServerError, Err: err}
}
