package web

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// ============================================================================
// League CRUD
// ============================================================================

func TestCreateLeagueDerivesSlug(t *testing.T) {
	srv, _ := newTestServer(t)

	league := createLeague(t, srv, "Midnight GP!", "psn", "iracing")

	if league.Slug != "midnight-gp" {
		t.Errorf("slug = %q, want %q", league.Slug, "midnight-gp")
	}
	if league.Visibility != store.VisibilityPublic {
		t.Errorf("visibility = %q, want %q", league.Visibility, store.VisibilityPublic)
	}
	if len(league.Platforms) != 2 || league.Platforms[0] != "psn" || league.Platforms[1] != "iracing" {
		t.Errorf("platforms = %v, want [psn iracing]", league.Platforms)
	}
}

func TestCreateLeagueValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{Name: "ab"})
	wantStatus(t, rec, http.StatusBadRequest)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "VAL000" {
		t.Errorf("code = %q, want VAL000", resp.Code)
	}
	if !strings.Contains(resp.Message, "name") {
		t.Errorf("message %q does not name the offending field", resp.Message)
	}
}

func TestCreateLeagueUnknownPlatform(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{
		Name:      "Copter Cup",
		Platforms: []string{"flight-sim"},
	})
	wantStatus(t, rec, http.StatusBadRequest)
	wantErrorCode(t, rec, "LG003")
}

func TestCreateLeagueSlugConflict(t *testing.T) {
	srv, _ := newTestServer(t)

	createLeague(t, srv, "Apex Hunters")
	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{Name: "Apex Hunters"})
	wantStatus(t, rec, http.StatusConflict)
	wantErrorCode(t, rec, "LG004")
}

func TestLeagueLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	league := createLeague(t, srv, "Grand Touring Club", "psn")
	base := "/api/leagues/" + league.ID.String()

	rec := doRequest(t, srv, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusOK)

	rec = doRequest(t, srv, http.MethodPut, base, core.LeagueInput{
		Name:      "Grand Touring Club",
		Slug:      league.Slug,
		Platforms: []string{"psn", "xbox"},
	})
	wantStatus(t, rec, http.StatusOK)
	var updated store.League
	decodeBody(t, rec, &updated)
	if len(updated.Platforms) != 2 {
		t.Errorf("platforms after update = %v, want two entries", updated.Platforms)
	}

	rec = doRequest(t, srv, http.MethodDelete, base, nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = doRequest(t, srv, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestListLeaguesPagination(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 1; i <= 3; i++ {
		createLeague(t, srv, fmt.Sprintf("League %d", i))
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues?per_page=2", nil)
	wantStatus(t, rec, http.StatusOK)

	var page store.Page[store.League]
	decodeBody(t, rec, &page)
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if len(page.Items) != 2 {
		t.Errorf("items = %d, want 2", len(page.Items))
	}
	if page.TotalPages != 2 {
		t.Errorf("total pages = %d, want 2", page.TotalPages)
	}
}

func TestPublicLeaguesEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	createLeague(t, srv, "Open League")
	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{
		Name:       "Hidden League",
		Visibility: store.VisibilityUnlisted,
	})
	wantStatus(t, rec, http.StatusCreated)

	rec = doRequest(t, srv, http.MethodGet, "/api/public/leagues", nil)
	wantStatus(t, rec, http.StatusOK)

	var leagues []store.League
	decodeBody(t, rec, &leagues)
	if len(leagues) != 1 {
		t.Fatalf("public leagues = %d, want 1", len(leagues))
	}
	if leagues[0].Name != "Open League" {
		t.Errorf("public league = %q, want %q", leagues[0].Name, "Open League")
	}
}

// ============================================================================
// Competitions
// ============================================================================

func createCompetition(t *testing.T, srv *Server, leagueID, name string) store.Competition {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/api/leagues/"+leagueID+"/competitions", core.CompetitionInput{
		Name: name,
		Game: "GT7",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create competition: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var comp store.Competition
	decodeBody(t, rec, &comp)
	return comp
}

func TestCompetitionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	league := createLeague(t, srv, "GT Masters", "psn")
	comp := createCompetition(t, srv, league.ID.String(), "GT3 Sprint")

	if comp.LeagueID != league.ID {
		t.Errorf("competition league = %s, want %s", comp.LeagueID, league.ID)
	}
	if comp.Status != store.CompetitionActive {
		t.Errorf("status = %q, want %q", comp.Status, store.CompetitionActive)
	}

	base := "/api/leagues/" + league.ID.String() + "/competitions/" + comp.ID.String()

	rec := doRequest(t, srv, http.MethodPut, base, core.CompetitionInput{
		Name:   "GT3 Endurance",
		Status: store.CompetitionArchived,
	})
	wantStatus(t, rec, http.StatusOK)
	var updated store.Competition
	decodeBody(t, rec, &updated)
	if updated.Name != "GT3 Endurance" || updated.Status != store.CompetitionArchived {
		t.Errorf("after update: name %q status %q", updated.Name, updated.Status)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/competitions", nil)
	wantStatus(t, rec, http.StatusOK)
	var page store.Page[store.Competition]
	decodeBody(t, rec, &page)
	if page.Total != 1 {
		t.Errorf("competitions = %d, want 1", page.Total)
	}

	rec = doRequest(t, srv, http.MethodDelete, base, nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = doRequest(t, srv, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestCompetitionOwnershipCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	home := createLeague(t, srv, "Home League")
	away := createLeague(t, srv, "Away League")
	comp := createCompetition(t, srv, home.ID.String(), "Home Cup")

	// The competition exists but belongs to another league.
	rec := doRequest(t, srv, http.MethodGet,
		"/api/leagues/"+away.ID.String()+"/competitions/"+comp.ID.String(), nil)
	wantStatus(t, rec, http.StatusNotFound)
	wantErrorCode(t, rec, "LG005")
}

// ============================================================================
// Seasons
// ============================================================================

func TestSeasonLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	league := createLeague(t, srv, "Season Test League")
	comp := createCompetition(t, srv, league.ID.String(), "Touring Cars")
	base := "/api/competitions/" + comp.ID.String() + "/seasons"

	rec := doRequest(t, srv, http.MethodPost, base, core.SeasonInput{
		Name:    "Season 1",
		Ordinal: 1,
	})
	wantStatus(t, rec, http.StatusCreated)
	var season store.Season
	decodeBody(t, rec, &season)
	if season.CompetitionID != comp.ID {
		t.Errorf("season competition = %s, want %s", season.CompetitionID, comp.ID)
	}
	if season.Status != store.SeasonDraft {
		t.Errorf("status = %q, want %q", season.Status, store.SeasonDraft)
	}

	rec = doRequest(t, srv, http.MethodPut, base+"/"+season.ID.String(), core.SeasonInput{
		Name:    "Season 1",
		Ordinal: 1,
		Status:  store.SeasonActive,
	})
	wantStatus(t, rec, http.StatusOK)
	var updated store.Season
	decodeBody(t, rec, &updated)
	if updated.Status != store.SeasonActive {
		t.Errorf("status after update = %q, want %q", updated.Status, store.SeasonActive)
	}

	rec = doRequest(t, srv, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusOK)
	var page store.Page[store.Season]
	decodeBody(t, rec, &page)
	if page.Total != 1 {
		t.Errorf("seasons = %d, want 1", page.Total)
	}

	rec = doRequest(t, srv, http.MethodDelete, base+"/"+season.ID.String(), nil)
	wantStatus(t, rec, http.StatusNoContent)
}

func TestSeasonOwnershipCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	league := createLeague(t, srv, "Two Comp League")
	compA := createCompetition(t, srv, league.ID.String(), "Competition A")
	compB := createCompetition(t, srv, league.ID.String(), "Competition B")

	rec := doRequest(t, srv, http.MethodPost,
		"/api/competitions/"+compA.ID.String()+"/seasons", core.SeasonInput{Name: "Season A1"})
	wantStatus(t, rec, http.StatusCreated)
	var season store.Season
	decodeBody(t, rec, &season)

	rec = doRequest(t, srv, http.MethodGet,
		"/api/competitions/"+compB.ID.String()+"/seasons/"+season.ID.String(), nil)
	wantStatus(t, rec, http.StatusNotFound)
	wantErrorCode(t, rec, "LG006")
}
