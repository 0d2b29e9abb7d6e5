package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// maxBodyBytes bounds ordinary JSON request bodies. Import payloads carry a
// whole CSV and get a higher cap at the call site.
const maxBodyBytes = 1 << 20

// uuidParam parses a UUID route parameter. Bad values respond 400 via the
// UserError path rather than leaking a parse error.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &core.UserError{
			Technical: fmt.Errorf("parse %s %q: %w", name, raw, err),
			User: core.UserMessage{
				Message: "Invalid identifier in URL",
				Action:  "Check the link and try again",
				Code:    "REQ002",
			},
		}
	}
	return id, nil
}

// decodeJSON reads a JSON body into v with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = maxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.UserError{
			Technical: fmt.Errorf("decode request body: %w", err),
			User: core.UserMessage{
				Message: "Request body is not valid JSON",
				Action:  "Check the request payload and try again",
				Code:    "REQ001",
			},
		}
	}
	return nil
}

// parseListParams reads the standard list query parameters. Out-of-range
// values are clamped by the store layer.
func parseListParams(r *http.Request) store.ListParams {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	return store.ListParams{
		Search:  q.Get("search"),
		Page:    page,
		PerPage: perPage,
		Sort:    q.Get("sort"),
		Order:   q.Get("order"),
	}
}
