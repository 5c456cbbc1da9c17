package server

import (
	"net/http"

	"github.com/jrsteele09/go-token-auth/auth"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignUpHandler registers a new user and returns it without its password hash
func (s *Server) SignUpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg users.Registration
		if err := decodeJSON(r, &reg); err != nil {
			writeJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
			return
		}
		s.createUser(w, r, reg, "")
	}
}

func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds auth.Credentials
		if err := decodeJSON(r, &creds); err != nil {
			writeJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
			return
		}

		pair, err := s.auth.SignIn(r.Context(), creds)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, pair)
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSONError(w, msgInvalidCredentials, http.StatusUnauthorized)
		default:
			writeJSONError(w, msgServiceUnavailable, http.StatusServiceUnavailable)
		}
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
			return
		}

		pair, err := s.auth.RefreshAccessToken(r.Context(), req.RefreshToken)
		if err != nil {
			writeJSONError(w, msgInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// InvalidateHandler ends the session of the bearer access token's subject
func (s *Server) InvalidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, msgInvalidAccessToken, http.StatusUnauthorized)
			return
		}

		if err := s.auth.InvalidateToken(r.Context(), raw); err != nil {
			writeJSONError(w, msgInvalidAccessToken, http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: msgTokenInvalidated})
	}
}

// createUser registers reg. createdBy is the subject of the caller, empty for self sign up.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request, reg users.Registration, createdBy string) {
	user, err := s.users.Create(r.Context(), reg)
	switch {
	case err == nil:
		event := log.Info().Str("user_id", user.ID)
		if createdBy != "" {
			event = event.Str("created_by", createdBy)
		}
		event.Msg("user created")
		writeJSON(w, http.StatusCreated, user)
	case errors.Is(err, users.ErrUsernameExists):
		writeJSONError(w, msgUsernameExists, http.StatusConflict)
	case errors.Is(err, users.ErrEmailExists):
		writeJSONError(w, msgEmailExists, http.StatusConflict)
	case errors.Is(err, users.ErrInvalidUser):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("create user")
		writeJSONError(w, msgInternalError, http.StatusInternalServerError)
	}
}
