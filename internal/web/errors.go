package web

// errors.go is the single exit path for handler errors.
//
// Every error is sanitized through core.MapError before anything reaches a
// client, logged with its request ID for correlation, and rendered as JSON
// or HTML depending on what the client accepts. A cancelled request gets no
// response at all: the client already left, and an abandoned import is not
// a failure worth alarming anyone about.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/web/templates"
)

// ErrorResponse is the JSON error envelope. Error duplicates Message for
// clients that only look at the conventional field.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		log.Debug("request cancelled by client",
			"path", r.URL.Path,
			"method", r.Method,
			"request_id", middleware.GetReqID(r.Context()),
		)
		return
	}

	statusCode := errorStatus(err)
	userMsg := core.MapError(err)

	// Validation failures carry their own message and already name the
	// offending field; pass those through instead of the mapped generic.
	var ue *core.UserError
	if errors.As(err, &ue) {
		userMsg = ue.User
		statusCode = http.StatusBadRequest
	}

	log.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, statusCode)
	} else {
		s.renderErrorPage(w, r, userMsg, statusCode)
	}
}

// errorStatus maps domain errors to HTTP status codes. Anything unknown is
// a 500 so the generic server-error message applies.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrLeagueNotFound),
		errors.Is(err, store.ErrCompetitionNotFound),
		errors.Is(err, store.ErrSeasonNotFound),
		errors.Is(err, store.ErrDriverNotFound),
		errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound

	case errors.Is(err, core.ErrImportInProgress),
		errors.Is(err, store.ErrSlugTaken):
		return http.StatusConflict

	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, core.ErrEmptyCSV),
		errors.Is(err, core.ErrMissingNicknameColumn),
		core.IsUserFacing(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON reports whether the client should get a JSON response. API
// routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
