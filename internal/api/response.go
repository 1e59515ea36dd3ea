package api

import (
	"net/http"

	"yenfolio/pkg/yenfolio"
)

// Response represents a successful API response with unified format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

// writeSuccess writes a successful response with data.
func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Code: 0,
		Data: data,
	})
}

// writeSuccessWithMessage writes a successful response with data and message.
func writeSuccessWithMessage(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// writeErrorResponse writes an error response with proper HTTP status and
// error details.
func writeErrorResponse(w http.ResponseWriter, httpStatus int, err error) {
	response := ErrorResponse{
		Code:    httpStatus,
		Message: err.Error(),
	}

	if yfErr, ok := err.(*yenfolio.Error); ok {
		response.ErrorCode = string(yfErr.Code)
		httpStatus = mapErrorCodeToHTTPStatus(yfErr.Code)
		response.Code = httpStatus
	}

	writeJSON(w, httpStatus, response)
}

// mapErrorCodeToHTTPStatus maps business error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code yenfolio.ErrorCode) int {
	switch code {
	case yenfolio.ErrCodeInvalidInput, yenfolio.ErrCodeValidation:
		return http.StatusBadRequest
	case yenfolio.ErrCodeNotFound:
		return http.StatusNotFound
	case yenfolio.ErrCodeDuplicate:
		return http.StatusConflict
	case yenfolio.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case yenfolio.ErrCodeDatabase, yenfolio.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
