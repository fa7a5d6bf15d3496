package http

import (
	"encoding/json"
	"net/http"

	"github.com/met-galaxy/field-engine/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse maps an error's e.Kind to the HTTP status and message the
// client sees.
func ToHTTPResponse(err error) (int, string) {
	switch e.ClassOf(err) {
	case e.KindBadRequest:
		return http.StatusBadRequest, err.Error()
	case e.KindTargetNotFound:
		return http.StatusNotFound, e.ErrTargetNotFound.Error()
	case e.KindPcaUnavailable:
		return http.StatusInternalServerError, e.ErrPcaUnavailable.Error()
	case e.KindStoreFailure:
		return http.StatusInternalServerError, e.ErrStoreFailure.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternal.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
