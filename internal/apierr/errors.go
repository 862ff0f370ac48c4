// Package apierr defines the API error taxonomy and the JSON error
// envelope every endpoint responds with on failure.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"studydrive/internal/drive"
)

type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	InvalidRequest     = APIError{Code: "InvalidRequest", Message: "The request is malformed or missing a required field.", StatusCode: http.StatusBadRequest}
	InvalidKey         = APIError{Code: "InvalidKey", Message: "The specified object key is not valid.", StatusCode: http.StatusBadRequest}
	NotFound           = APIError{Code: "NotFound", Message: "The specified object does not exist.", StatusCode: http.StatusNotFound}
	Conflict           = APIError{Code: "Conflict", Message: "The target key already exists.", StatusCode: http.StatusConflict}
	PayloadTooLarge    = APIError{Code: "PayloadTooLarge", Message: "The uploaded file exceeds the maximum allowed size.", StatusCode: http.StatusRequestEntityTooLarge}
	Unauthorized       = APIError{Code: "Unauthorized", Message: "Authentication credentials are missing or invalid.", StatusCode: http.StatusUnauthorized}
	Forbidden          = APIError{Code: "Forbidden", Message: "You are not allowed to perform this operation.", StatusCode: http.StatusForbidden}
	NotConfigured      = APIError{Code: "NotConfigured", Message: "The object storage destination is not configured.", StatusCode: http.StatusInternalServerError}
	StorageUnavailable = APIError{Code: "StorageUnavailable", Message: "The object storage call failed.", StatusCode: http.StatusInternalServerError}
	KeySpaceExhausted  = APIError{Code: "KeySpaceExhausted", Message: "No available key could be found for the uploaded file.", StatusCode: http.StatusServiceUnavailable}
	MethodNotAllowed   = APIError{Code: "MethodNotAllowed", Message: "The specified method is not allowed against this resource.", StatusCode: http.StatusMethodNotAllowed}
	InternalError      = APIError{Code: "InternalError", Message: "We encountered an internal error. Please try again.", StatusCode: http.StatusInternalServerError}
)

type errorResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// Write serializes apiErr as the JSON error envelope. detail carries the
// underlying error text and may be empty.
func Write(w http.ResponseWriter, requestID string, apiErr APIError, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Message:   apiErr.Message,
		Error:     detail,
		Code:      apiErr.Code,
		RequestID: requestID,
	})
}

// MapError translates component errors into the API taxonomy. Unknown
// errors map onto InternalError rather than leaking internals.
func MapError(err error) APIError {
	var apiErr APIError
	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		return InternalError
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, drive.ErrInvalidKey):
		return InvalidKey
	case errors.Is(err, drive.ErrNoSuchKey):
		return NotFound
	case errors.Is(err, drive.ErrDestinationExists):
		return Conflict
	case errors.Is(err, drive.ErrNotConfigured):
		return NotConfigured
	case errors.Is(err, drive.ErrKeySpaceExhausted):
		return KeySpaceExhausted
	case errors.Is(err, drive.ErrStorageUnavailable):
		return StorageUnavailable
	case errors.As(err, &maxBytesErr):
		return PayloadTooLarge
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StorageUnavailable
	default:
		return InternalError
	}
}
