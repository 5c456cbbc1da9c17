package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-auth/auth"
	"github.com/jrsteele09/go-token-auth/internal/config"
	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/jrsteele09/go-token-auth/token"
	"github.com/jrsteele09/go-token-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Services are the collaborators the HTTP layer delegates to
type Services struct {
	Auth    *auth.Service
	Users   *users.Service
	Metrics *metrics.Metrics
	// Signer is only used to publish a JWKS when it holds an asymmetric key
	Signer  token.Signer
}

type Server struct {
	env           string
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	auth          *auth.Service
	users         *users.Service
	metrics       *metrics.Metrics
	jwks          token.JWKSProvider
	signInLimiter *ipRateLimiter
	clientIPs     clientIPResolver
}

func New(c config.Config, services Services) (*Server, error) {
	if services.Auth == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if services.Users == nil {
		return nil, errors.New("[server.New] user service is required")
	}
	if services.Metrics == nil {
		return nil, errors.New("[server.New] metrics are required")
	}

	s := &Server{
		env:           c.GetEnv(),
		mux:           http.NewServeMux(),
		config:        c,
		auth:          services.Auth,
		users:         services.Users,
		metrics:       services.Metrics,
		signInLimiter: newIPRateLimiter(c.GetSignInRateLimit(), c.GetSignInRateBurst()),
		clientIPs:     clientIPResolver{trusted: c.GetTrustedProxies()},
	}
	if provider, ok := services.Signer.(token.JWKSProvider); ok {
		s.jwks = provider
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%s%s%s] %s", color, paddedMethod, ResetColor, path)
}
