package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"pcwl/territory/internal/apperror"
	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/models/dtos/responses"
)

func respondWithSuccess[T any](w http.ResponseWriter, statusCode int, data *T) {
	resp := responses.APIResponse[T]{
		Status:    "success",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	resp := responses.APIResponse[any]{
		Status:    "error",
		Timestamp: time.Now().UTC(),
		Error:     message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(resp)
}

// respondWithAppError maps a service error onto a status code. Unknown errors are logged and hidden.
func respondWithAppError(w http.ResponseWriter, err error) {
	status := apperror.MapErrorToStatus(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logging.Error("Unhandled service error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(appErr.RetryAfter.Seconds()))))
	}
	respondWithError(w, status, appErr.Message)
}
