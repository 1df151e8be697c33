package handler

import (
	"encoding/json"
	"errors"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"net/http"
)

// serviceError maps a service failure to its HTTP status.
func serviceError(err error) *middleware.AppError {
	code := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation:
		code = http.StatusBadRequest
	case service.KindNotFound:
		code = http.StatusNotFound
	case service.KindConflict:
		code = http.StatusConflict
	case service.KindForbidden:
		code = http.StatusForbidden
	}
	return &middleware.AppError{Error: err, Message: service.Message(err), Code: code}
}

// bodyError reports a request body that could not be read or decoded.
func bodyError(err error) *middleware.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &middleware.AppError{Error: err, Message: "Request body too large", Code: http.StatusRequestEntityTooLarge}
	}
	return &middleware.AppError{Error: err, Message: "Invalid request body", Code: http.StatusBadRequest}
}

func decodeJSON(r *http.Request, v interface{}) *middleware.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return bodyError(err)
	}
	return nil
}

type successBody struct {
	Success bool `json:"success"`
}
