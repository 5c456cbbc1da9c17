package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// JWKSHandler publishes the public half of an asymmetric signing key
func (s *Server) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.jwks == nil {
			writeJSONError(w, msgJWKSNotConfigured, http.StatusNotFound)
			return
		}
		jwks, err := s.jwks.GetJWKS()
		if err != nil {
			log.Error().Err(err).Msg("build jwks")
			writeJSONError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
