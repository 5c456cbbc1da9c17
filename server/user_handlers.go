package server

import (
	"net/http"

	"github.com/jrsteele09/go-token-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func (s *Server) CreateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg users.Registration
		if err := decodeJSON(r, &reg); err != nil {
			writeJSONError(w, msgInvalidRequestBody, http.StatusBadRequest)
			return
		}
		var createdBy string
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			createdBy = claims.SubjectID()
		}
		s.createUser(w, r, reg, createdBy)
	}
}

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.FindByID(r.Context(), r.PathValue("id"))
		writeUser(w, user, err)
	}
}

func (s *Server) GetUserByUsernameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.FindByUsername(r.Context(), r.PathValue("username"))
		writeUser(w, user, err)
	}
}

func writeUser(w http.ResponseWriter, user *users.User, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, user)
	case errors.Is(err, users.ErrUserNotFound):
		writeJSONError(w, msgUserNotFound, http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("find user")
		writeJSONError(w, msgInternalError, http.StatusInternalServerError)
	}
}
