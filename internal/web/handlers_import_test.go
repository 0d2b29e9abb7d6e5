package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// ============================================================================
// Header Specs and Example Downloads
// ============================================================================

func TestCSVHeadersEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Header League", "psn", "iracing")

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/csv-headers", nil)
	wantStatus(t, rec, http.StatusOK)

	var specs []core.HeaderSpec
	decodeBody(t, rec, &specs)
	if len(specs) != 2 {
		t.Fatalf("specs = %d, want 2", len(specs))
	}
	if specs[0].Field != "psn_id" || specs[1].Field != "iracing_id" {
		t.Errorf("spec order = [%s %s], want [psn_id iracing_id]", specs[0].Field, specs[1].Field)
	}
}

// A league without platforms answers an empty array, not null and not an
// error. The dialog treats it as "no platform columns yet".
func TestCSVHeadersEmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Platformless League")

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/csv-headers", nil)
	wantStatus(t, rec, http.StatusOK)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want %q", got, "[]")
	}
}

func TestCSVExampleEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Example League", "psn")
	path := "/api/leagues/" + league.ID.String() + "/csv-example"

	rec := doRequest(t, srv, http.MethodGet, path, nil)
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}

	want := "Nickname,DiscordID,PsnId,DriverNumber\n" +
		"Max Power,maxp#0117,psn_id_01,27\n" +
		",turbo#4455,psn_id_02,14\n" +
		"Jane Doe,,psn_id_03,"
	if got := rec.Body.String(); got != want {
		t.Errorf("example = %q, want %q", got, want)
	}

	rec = doRequest(t, srv, http.MethodGet, path+"?minimal=1", nil)
	wantStatus(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != "Nickname,PsnId" {
		t.Errorf("minimal example = %q, want %q", got, "Nickname,PsnId")
	}
}

func TestCSVExampleWithoutPlatforms(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Bare League")

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/csv-example", nil)
	wantStatus(t, rec, http.StatusOK)

	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 4 {
		t.Fatalf("example lines = %d, want 4:\n%s", len(lines), rec.Body.String())
	}
	if lines[0] != "Nickname,DriverNumber" {
		t.Errorf("header = %q, want %q", lines[0], "Nickname,DriverNumber")
	}
}

// ============================================================================
// Roster Import
// ============================================================================

func TestImportNicknameFallback(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Fallback League", "psn")

	csvData := "Nickname,DiscordID,psn_id\n,user#1234,psn_123\nJane,jane#5678,psn_456"
	rec := doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import", importBody{CSVData: csvData})
	wantStatus(t, rec, http.StatusOK)

	var summary core.ImportSummary
	decodeBody(t, rec, &summary)
	if summary.SuccessCount != 2 || summary.SkippedCount != 0 {
		t.Errorf("summary = %+v, want 2 successes and 0 skips", summary)
	}
	if summary.Errors == nil || len(summary.Errors) != 0 {
		t.Errorf("errors = %v, want empty array", summary.Errors)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/drivers", nil)
	wantStatus(t, rec, http.StatusOK)
	var page store.Page[store.Driver]
	decodeBody(t, rec, &page)
	if page.Total != 2 {
		t.Fatalf("drivers = %d, want 2", page.Total)
	}

	byNickname := make(map[string]store.Driver)
	for _, d := range page.Items {
		byNickname[d.Nickname] = d
	}
	fallback, ok := byNickname["user#1234"]
	if !ok {
		t.Fatalf("no driver with the Discord-derived nickname, roster: %v", page.Items)
	}
	if fallback.DiscordID != "user#1234" || fallback.PlatformIDs["psn_id"] != "psn_123" {
		t.Errorf("fallback driver = %+v", fallback)
	}
	if _, ok := byNickname["Jane"]; !ok {
		t.Errorf("named driver missing, roster: %v", page.Items)
	}
}

func TestImportReportsRowErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Row Error League", "psn")

	csvData := "Nickname,DiscordID,psn_id\nGood,good#1,psn_1\n,,psn_2"
	rec := doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import", importBody{CSVData: csvData})
	wantStatus(t, rec, http.StatusOK)

	var summary core.ImportSummary
	decodeBody(t, rec, &summary)
	if summary.SuccessCount != 1 {
		t.Errorf("success count = %d, want 1", summary.SuccessCount)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %+v, want exactly one", summary.Errors)
	}
	if summary.Errors[0].Row != 3 {
		t.Errorf("error row = %d, want 3 (header is row 1)", summary.Errors[0].Row)
	}
	if summary.Errors[0].Message != "nickname is required" {
		t.Errorf("error message = %q, want %q", summary.Errors[0].Message, "nickname is required")
	}

	status := doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/import/status", nil)
	wantStatus(t, status, http.StatusOK)
	var snap core.SessionSnapshot
	decodeBody(t, status, &snap)
	if snap.State != core.StatePartialSuccess {
		t.Errorf("state = %q, want %q", snap.State, core.StatePartialSuccess)
	}
}

func TestImportEmptyCSV(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Empty CSV League", "psn")

	rec := doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import", importBody{CSVData: ""})
	wantStatus(t, rec, http.StatusBadRequest)
	wantErrorCode(t, rec, "CSV002")
}

func TestImportMissingNicknameColumn(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "No Nickname League", "psn")

	rec := doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import", importBody{CSVData: "Foo,Bar\n1,2"})
	wantStatus(t, rec, http.StatusBadRequest)
	wantErrorCode(t, rec, "CSV003")
}

// ============================================================================
// Import Status Lifecycle
// ============================================================================

func TestImportStatusLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Lifecycle League", "psn")
	statusPath := "/api/leagues/" + league.ID.String() + "/import/status"

	// Before any import the league polls as idle.
	rec := doRequest(t, srv, http.MethodGet, statusPath, nil)
	wantStatus(t, rec, http.StatusOK)
	var snap core.SessionSnapshot
	decodeBody(t, rec, &snap)
	if snap.State != core.StateIdle {
		t.Fatalf("initial state = %q, want %q", snap.State, core.StateIdle)
	}

	csvData := "Nickname,DiscordID,psn_id\nJane,jane#5678,psn_456"
	rec = doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import", importBody{CSVData: csvData})
	wantStatus(t, rec, http.StatusOK)

	rec = doRequest(t, srv, http.MethodGet, statusPath, nil)
	wantStatus(t, rec, http.StatusOK)
	snap = core.SessionSnapshot{}
	decodeBody(t, rec, &snap)
	if snap.State != core.StateSuccess {
		t.Fatalf("state after import = %q, want %q", snap.State, core.StateSuccess)
	}
	if snap.Summary == nil || snap.Summary.SuccessCount != 1 {
		t.Errorf("snapshot summary = %+v, want one success", snap.Summary)
	}
	if snap.FinishedAt == nil {
		t.Error("finished_at missing on a completed session")
	}

	// Acknowledging clears the session back to idle.
	rec = doRequest(t, srv, http.MethodDelete, statusPath, nil)
	wantStatus(t, rec, http.StatusNoContent)

	rec = doRequest(t, srv, http.MethodGet, statusPath, nil)
	wantStatus(t, rec, http.StatusOK)
	snap = core.SessionSnapshot{}
	decodeBody(t, rec, &snap)
	if snap.State != core.StateIdle {
		t.Errorf("state after ack = %q, want %q", snap.State, core.StateIdle)
	}

	// A second acknowledgement has nothing to clear.
	rec = doRequest(t, srv, http.MethodDelete, statusPath, nil)
	wantStatus(t, rec, http.StatusNotFound)
	wantErrorCode(t, rec, "IMP003")
}

// ============================================================================
// Import Preview
// ============================================================================

func TestPreviewRosterDoesNotWrite(t *testing.T) {
	srv, _ := newTestServer(t)
	league := createLeague(t, srv, "Preview League", "psn")

	csvData := "Nickname,DiscordID,psn_id\n,user#1234,psn_123\nJane,jane#5678,psn_456"
	rec := doRequest(t, srv, http.MethodPost,
		"/api/leagues/"+league.ID.String()+"/drivers/import/preview", importBody{CSVData: csvData})
	wantStatus(t, rec, http.StatusOK)

	var preview core.ImportPreview
	decodeBody(t, rec, &preview)
	if preview.TotalRows != 2 || preview.NewRows != 2 || preview.ErrorRows != 0 {
		t.Errorf("preview = %+v, want 2 total and 2 new", preview)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/drivers", nil)
	wantStatus(t, rec, http.StatusOK)
	var page store.Page[store.Driver]
	decodeBody(t, rec, &page)
	if page.Total != 0 {
		t.Errorf("drivers after preview = %d, want 0", page.Total)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/leagues/"+league.ID.String()+"/import/status", nil)
	var snap core.SessionSnapshot
	decodeBody(t, rec, &snap)
	if snap.State != core.StateIdle {
		t.Errorf("state after preview = %q, want %q", snap.State, core.StateIdle)
	}
}
