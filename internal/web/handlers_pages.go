package web

import (
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/web/templates"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.SiteConfig(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Home(cfg).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("home render failed", "error", err)
	}
}

func (s *Server) handleLeaguePage(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.SiteConfig(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	leagues, err := s.svc.PublicLeagues(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.LeagueList(cfg, leagues).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("league page render failed", "error", err)
	}
}
