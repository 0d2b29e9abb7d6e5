package web

import (
	"fmt"
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/export"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.Drivers(r.Context(), leagueID, parseListParams(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleCreateDriver(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.DriverInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	driver, err := s.svc.CreateDriver(WithRequestMetadata(r.Context(), r), leagueID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, driver)
}

// leagueDriver loads a driver and verifies it belongs to the league in the
// URL.
func (s *Server) leagueDriver(r *http.Request) (store.Driver, error) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		return store.Driver{}, err
	}
	driverID, err := uuidParam(r, "driverID")
	if err != nil {
		return store.Driver{}, err
	}

	driver, err := s.svc.Driver(r.Context(), driverID)
	if err != nil {
		return store.Driver{}, err
	}
	if driver.LeagueID != leagueID {
		return store.Driver{}, store.ErrDriverNotFound
	}
	return driver, nil
}

func (s *Server) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := s.leagueDriver(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, driver)
}

func (s *Server) handleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := s.leagueDriver(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.DriverInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.svc.UpdateDriver(WithRequestMetadata(r.Context(), r), driver.ID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := s.leagueDriver(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteDriver(WithRequestMetadata(r.Context(), r), driver.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetRoster(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	removed, err := s.svc.ResetRoster(WithRequestMetadata(r.Context(), r), leagueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]int64{"removed": removed})
}

// handleExportRoster streams the roster as CSV or Excel. Columns mirror the
// league's import headers, so the download re-imports as-is.
func (s *Server) handleExportRoster(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writer, err := export.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, &core.UserError{
			Technical: err,
			User: core.UserMessage{
				Message: "That export format is not supported",
				Action:  "Use csv or xlsx",
				Code:    "EXP001",
			},
		})
		return
	}

	league, err := s.svc.League(r.Context(), leagueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	specs, err := s.svc.LeagueHeaderSpecs(r.Context(), leagueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	drivers, err := s.svc.Roster(r.Context(), leagueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", writer.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(league.Slug, writer)))

	// Headers are gone once the writer starts; late failures only log.
	if err := writer.Write(w, specs, drivers); err != nil {
		logging.FromContext(r.Context()).Error("roster export failed",
			"league_id", leagueID,
			"format", writer.Extension(),
			"error", err,
		)
	}
}
