package server

import "net/http"

// Route path constants
const (
	// Auth Routes
	RouteSignUp     = "/auth/sign-up"
	RouteSignIn     = "/auth/sign-in"
	RouteRefresh    = "/auth/refresh"
	RouteInvalidate = "/auth/invalidate"

	// User Routes
	RouteUsers          = "/users"
	RouteUserByID       = "/users/{id}"
	RouteUserByUsername = "/users/username/{username}"

	// System Routes
	RouteWellKnownJWKS = "/.well-known/jwks.json"
	RouteHealth        = "/healthz"
	RouteMetrics       = "/metrics"
)

func (s *Server) initRoutes() {
	// Auth
	s.RegisterRouteFunc(http.MethodPost+" "+RouteSignUp, s.api(RouteSignUp, s.SignUpHandler()))
	s.RegisterRouteFunc(http.MethodPost+" "+RouteSignIn, s.api(RouteSignIn, s.SignInHandler(), s.SignInRateLimitMiddleware))
	s.RegisterRouteFunc(http.MethodPost+" "+RouteRefresh, s.api(RouteRefresh, s.RefreshHandler()))
	s.RegisterRouteFunc(http.MethodPost+" "+RouteInvalidate, s.api(RouteInvalidate, s.InvalidateHandler()))

	// Users
	s.RegisterRouteFunc(http.MethodPost+" "+RouteUsers, s.api(RouteUsers, s.CreateUserHandler(), s.RequireAuth()))
	s.RegisterRouteFunc(http.MethodGet+" "+RouteUserByID, s.api(RouteUserByID, s.GetUserHandler(), s.RequireAuth()))
	s.RegisterRouteFunc(http.MethodGet+" "+RouteUserByUsername, s.api(RouteUserByUsername, s.GetUserByUsernameHandler(), s.RequireAuth()))

	// System
	s.RegisterRouteFunc(http.MethodGet+" "+RouteWellKnownJWKS, s.api(RouteWellKnownJWKS, s.JWKSHandler()))
	s.RegisterRouteFunc(http.MethodGet+" "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler(http.MethodGet+" "+RouteMetrics, s.metrics.Handler())

	// CORS preflight for everything the API serves
	s.RegisterRouteFunc(http.MethodOptions+" /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {}, s.CorsMiddleware))
}

// api wraps a JSON route with the standard middleware and request metrics
func (s *Server) api(route string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	return s.metrics.Instrument(route, ChainMiddleware(handler, s.APIMiddleware(mw...)...))
}
