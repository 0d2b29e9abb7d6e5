package web

import (
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

func (s *Server) handleListLeagues(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Leagues(r.Context(), parseListParams(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleCreateLeague(w http.ResponseWriter, r *http.Request) {
	var input core.LeagueInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	league, err := s.svc.CreateLeague(WithRequestMetadata(r.Context(), r), input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, league)
}

func (s *Server) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	league, err := s.svc.League(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, league)
}

func (s *Server) handleUpdateLeague(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.LeagueInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	league, err := s.svc.UpdateLeague(WithRequestMetadata(r.Context(), r), id, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, league)
}

func (s *Server) handleDeleteLeague(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteLeague(WithRequestMetadata(r.Context(), r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================
// Competitions
// ============================================================

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.Competitions(r.Context(), leagueID, parseListParams(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.CompetitionInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	competition, err := s.svc.CreateCompetition(WithRequestMetadata(r.Context(), r), leagueID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, competition)
}

// leagueCompetition loads a competition and verifies it belongs to the
// league in the URL, so cross-league IDs read as not found.
func (s *Server) leagueCompetition(r *http.Request) (store.Competition, error) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		return store.Competition{}, err
	}
	competitionID, err := uuidParam(r, "competitionID")
	if err != nil {
		return store.Competition{}, err
	}

	competition, err := s.svc.Competition(r.Context(), competitionID)
	if err != nil {
		return store.Competition{}, err
	}
	if competition.LeagueID != leagueID {
		return store.Competition{}, store.ErrCompetitionNotFound
	}
	return competition, nil
}

func (s *Server) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := s.leagueCompetition(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, competition)
}

func (s *Server) handleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := s.leagueCompetition(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.CompetitionInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.svc.UpdateCompetition(WithRequestMetadata(r.Context(), r), competition.ID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := s.leagueCompetition(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteCompetition(WithRequestMetadata(r.Context(), r), competition.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================
// Seasons
// ============================================================

func (s *Server) handleListSeasons(w http.ResponseWriter, r *http.Request) {
	competitionID, err := uuidParam(r, "competitionID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.svc.Seasons(r.Context(), competitionID, parseListParams(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, page)
}

func (s *Server) handleCreateSeason(w http.ResponseWriter, r *http.Request) {
	competitionID, err := uuidParam(r, "competitionID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.SeasonInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	season, err := s.svc.CreateSeason(WithRequestMetadata(r.Context(), r), competitionID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusCreated, season)
}

// competitionSeason loads a season and verifies it belongs to the
// competition in the URL.
func (s *Server) competitionSeason(r *http.Request) (store.Season, error) {
	competitionID, err := uuidParam(r, "competitionID")
	if err != nil {
		return store.Season{}, err
	}
	seasonID, err := uuidParam(r, "seasonID")
	if err != nil {
		return store.Season{}, err
	}

	season, err := s.svc.Season(r.Context(), seasonID)
	if err != nil {
		return store.Season{}, err
	}
	if season.CompetitionID != competitionID {
		return store.Season{}, store.ErrSeasonNotFound
	}
	return season, nil
}

func (s *Server) handleGetSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.competitionSeason(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, season)
}

func (s *Server) handleUpdateSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.competitionSeason(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var input core.SeasonInput
	if err := decodeJSON(w, r, &input, 0); err != nil {
		s.respondError(w, r, err)
		return
	}

	updated, err := s.svc.UpdateSeason(WithRequestMetadata(r.Context(), r), season.ID, input)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteSeason(w http.ResponseWriter, r *http.Request) {
	season, err := s.competitionSeason(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteSeason(WithRequestMetadata(r.Context(), r), season.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
