package web

import (
	"errors"
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/auth"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Error("health check failed", "error", err)
		s.respondJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// RequireSession guards this route; a missing user is a wiring bug.
		s.respondError(w, r, errors.New("no session user in request context"))
		return
	}
	s.respondJSON(w, r, http.StatusOK, user)
}

func (s *Server) handlePublicLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.svc.PublicLeagues(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, leagues)
}

func (s *Server) handleGetSiteConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.SiteConfig(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) handleUpdateSiteConfig(w http.ResponseWriter, r *http.Request) {
	var input core.SiteConfigInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	cfg, err := s.svc.UpdateSiteConfig(WithRequestMetadata(r.Context(), r), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, cfg)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.AuditLog(r.Context(), parseListParams(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, page)
}
