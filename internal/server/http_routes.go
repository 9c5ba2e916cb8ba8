package server

import (
	"net/http"
	"strings"

	"dreamforge/internal/auth"
	"dreamforge/internal/errors"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.requestSizeLimitMiddleware(s.MaxRequestSize)(h))
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.sessionMiddleware(s.requestSizeLimitMiddleware(s.MaxRequestSize)(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/auth/register", public(s.registerHandler))
	mux.HandleFunc("POST /api/auth/signin", public(s.signInHandler))

	mux.HandleFunc("GET /api/me", protected(s.profileHandler))
	mux.HandleFunc("POST /api/onboarding", protected(s.onboardingHandler))
	mux.HandleFunc("POST /api/resume", protected(s.resumeHandler))
	mux.HandleFunc("POST /api/resume/upload", s.rateLimitMiddleware(
		s.sessionMiddleware(s.requestSizeLimitMiddleware(s.uploadLimit())(s.uploadHandler))))
	mux.HandleFunc("POST /api/checkin", protected(s.checkInHandler))
	mux.HandleFunc("GET /api/jobs", protected(s.jobsHandler))
	mux.HandleFunc("POST /api/interview/feedback", protected(s.interviewHandler))
	mux.HandleFunc("POST /api/chat", protected(s.chatHandler))
	mux.HandleFunc("POST /api/gap", protected(s.gapHandler))
	mux.HandleFunc("GET /api/lab/projection", protected(s.projectionHandler))

	return mux
}

// Handler returns the routed handler wrapped in the configured outer middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.setupRoutes()
	if s.deps.Middleware != nil {
		h = s.deps.Middleware(h)
	}
	return h
}

// sessionMiddleware resolves the bearer token into a principal on the request context
func (s *Server) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.Logger.Debug("Authentication failed: missing session",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeError(w, errors.NewUnauthorizedError(errors.ErrCodeUnauthorized, "Authorization Bearer token required", nil))
			return
		}

		principal, err := s.deps.Sessions.Verify(token)
		if err != nil {
			s.Logger.Info("Authentication failed: invalid session",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeError(w, err)
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	}
}

// requestSizeLimitMiddleware caps the request body at limit bytes; zero disables the cap
func (s *Server) requestSizeLimitMiddleware(limit int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next(w, r)
		}
	}
}

func (s *Server) uploadLimit() int64 {
	if s.MaxUploadSize > 0 {
		return s.MaxUploadSize
	}
	return s.MaxRequestSize
}

func bearerToken(r *http.Request) string {
	after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}
