package response

import (
	"encoding/json"
	"net/http"

	"github.com/ecommerce-micro/products-service/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationProblemResponse carries per-field validation messages.
type ValidationProblemResponse struct {
	Error      string                  `json:"error"`
	Violations []domain.FieldViolation `json:"violations"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, err error) {
	errorType := "error"
	switch status {
	case http.StatusNotFound:
		errorType = "not_found"
	case http.StatusBadRequest:
		errorType = "bad_request"
	case http.StatusInternalServerError:
		errorType = "internal_server_error"
	}

	JSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: err.Error(),
	})
}

// ValidationProblem sends a 400 with the full violation list.
func ValidationProblem(w http.ResponseWriter, violations []domain.FieldViolation) {
	JSON(w, http.StatusBadRequest, ValidationProblemResponse{
		Error:      "validation_failure",
		Violations: violations,
	})
}
