package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Messages returned to API clients
const (
	msgInvalidCredentials   = "Invalid username or email or password"
	msgInvalidRefreshToken  = "Invalid refresh token"
	msgInvalidAccessToken   = "Invalid access token"
	msgTokenInvalidated     = "Token invalidated successfully"
	msgUsernameExists       = "Username already exists"
	msgEmailExists          = "Email already in use"
	msgUserNotFound         = "User not found"
	msgInvalidRequestBody   = "Invalid request body"
	msgServiceUnavailable   = "Service temporarily unavailable"
	msgTooManyAttempts      = "Too many sign in attempts"
	msgInternalError        = "Internal server error"
	msgJWKSNotConfigured    = "No public signing keys are published"
	msgMissingAuthorization = "Missing Authorization header"
)

type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write json response")
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, errorResponse{
		Error:      http.StatusText(statusCode),
		Message:    message,
		StatusCode: statusCode,
	})
}

// decodeJSON reads a single JSON object from the request body, rejecting unknown fields
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("[decodeJSON] empty body")
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(err, "[decodeJSON]")
	}
	return nil
}
