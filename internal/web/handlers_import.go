package web

import (
	"net/http"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

// importBody is the request payload for import and preview. The CSV travels
// as a JSON string field rather than a multipart upload so the dialog can
// post the already-read file contents directly.
type importBody struct {
	CSVData string `json:"csv_data"`
}

// maxImportBytes bounds the CSV payload. Rosters are small; anything past
// this is not a roster.
const maxImportBytes = 4 << 20

func (s *Server) handleCSVHeaders(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	specs, err := s.svc.LeagueHeaderSpecs(r.Context(), leagueID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, specs)
}

func (s *Server) handleCSVExample(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	minimal := r.URL.Query().Get("minimal") == "1"
	example, err := s.svc.LeagueExample(r.Context(), leagueID, minimal)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(example)); err != nil {
		logging.FromContext(r.Context()).Error("csv example write failed", "error", err)
	}
}

// handleImportRoster runs a full import. Row-level problems come back inside
// the summary as data; only transport and state failures use the error path.
func (s *Server) handleImportRoster(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var body importBody
	if err := decodeJSON(w, r, &body, maxImportBytes); err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.svc.ImportRoster(WithRequestMetadata(r.Context(), r), leagueID, body.CSVData)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, summary)
}

func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var body importBody
	if err := decodeJSON(w, r, &body, maxImportBytes); err != nil {
		s.respondError(w, r, err)
		return
	}

	preview, err := s.svc.PreviewRoster(r.Context(), leagueID, body.CSVData)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, preview)
}

// handleImportStatus reports the league's current import session. Leagues
// with no session report idle rather than 404 so the dialog can poll
// unconditionally.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, http.StatusOK, s.svc.ImportSession(leagueID))
}

func (s *Server) handleAckImport(w http.ResponseWriter, r *http.Request) {
	leagueID, err := uuidParam(r, "leagueID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.AckImport(leagueID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
