package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/zkstudy/zee/orchestration"
)

// maxRequestBodyBytes limits analyze request bodies.
const maxRequestBodyBytes = 16 << 10

// User-visible error titles and messages.
const (
	errorInvalidRequest = "Invalid request"
	errorTimeout        = "Request timeout"
	errorProcessing     = "Analysis failed"
	errorInternal       = "Internal server error"
	errorForbidden      = "Origin not allowed"

	messageTimeout    = "The analysis took too long to complete. Please try again."
	messageProcessing = "The research pipeline could not process the topic."
	messageInternal   = "An unexpected error occurred."
)

type validationResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type analyzeRequest struct {
	Topic string `json:"topic"`
}

type analyzeResponse struct {
	Summary   string `json:"summary"`
	Topic     string `json:"topic"`
	Timestamp string `json:"timestamp"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, title, message string) {
	writeJSON(w, status, errorResponse{Error: title, Message: message})
}

func writeInvalidRequest(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusBadRequest, validationResponse{Error: errorInvalidRequest, Details: details})
}

// writeFailure maps a failed run to its status and body.
func writeFailure(w http.ResponseWriter, res orchestration.Result) {
	switch status := statusFor(res.Outcome); status {
	case http.StatusBadRequest:
		writeInvalidRequest(w, res.Detail)
	case http.StatusGatewayTimeout:
		writeError(w, status, errorTimeout, messageTimeout)
	case http.StatusBadGateway:
		writeError(w, status, errorProcessing, messageProcessing)
	default:
		writeError(w, http.StatusInternalServerError, errorInternal, messageInternal)
	}
}

// statusFor returns the HTTP status an outcome maps to.
func statusFor(outcome orchestration.Outcome) int {
	switch outcome {
	case orchestration.OutcomeOK:
		return http.StatusOK
	case orchestration.OutcomeValidationError:
		return http.StatusBadRequest
	case orchestration.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case orchestration.OutcomeModelError, orchestration.OutcomeToolError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain exactly one JSON object")
	}

	return nil
}
