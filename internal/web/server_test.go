package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/auth"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
	_ "github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core/platforms"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// ============================================================================
// Test Harness
// ============================================================================

// newTestServer wires a Server over the in-memory store with auth disabled,
// so every request runs as the local admin. The session close delay is
// stretched so finished imports never auto-dismiss mid-test.
func newTestServer(t *testing.T) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{
		CloseDelay: time.Hour,
	})
	srv := NewServer(svc, auth.New(auth.Config{}), Options{RateLimit: 100000})
	return srv, svc
}

// doRequest runs one request through the full middleware stack. A string
// body is sent raw; anything else is marshalled as JSON.
func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			buf, err := json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal request body: %v", err)
			}
			rd = bytes.NewReader(buf)
		}
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v (body %q)", err, rec.Body.String())
	}
}

func createLeague(t *testing.T, srv *Server, name string, platforms ...string) store.League {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{
		Name:      name,
		Platforms: platforms,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create league: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var league store.League
	decodeBody(t, rec, &league)
	return league
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != want {
		t.Errorf("error code = %q, want %q (message %q)", resp.Code, want, resp.Message)
	}
}

// ============================================================================
// Health and Infrastructure
// ============================================================================

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	wantStatus(t, rec, http.StatusOK)

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestStaticCSS(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/static/site.css", nil)
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/css") {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}
}

func TestRateLimiter(t *testing.T) {
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{})
	srv := NewServer(svc, auth.New(auth.Config{}), Options{
		RateLimit:  2,
		RateWindow: time.Minute,
	})

	for i := 0; i < 2; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
		wantStatus(t, rec, http.StatusOK)
	}

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	wantStatus(t, rec, http.StatusTooManyRequests)
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
	wantErrorCode(t, rec, "RATE001")
}

// ============================================================================
// Error Mapping
// ============================================================================

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"league not found", store.ErrLeagueNotFound, http.StatusNotFound},
		{"competition not found", store.ErrCompetitionNotFound, http.StatusNotFound},
		{"season not found", store.ErrSeasonNotFound, http.StatusNotFound},
		{"driver not found", store.ErrDriverNotFound, http.StatusNotFound},
		{"session not found", core.ErrSessionNotFound, http.StatusNotFound},
		{"import in progress", core.ErrImportInProgress, http.StatusConflict},
		{"slug taken", store.ErrSlugTaken, http.StatusConflict},
		{"too many imports", core.ErrTooManyImports, http.StatusTooManyRequests},
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"empty csv", core.ErrEmptyCSV, http.StatusBadRequest},
		{"missing nickname column", core.ErrMissingNicknameColumn, http.StatusBadRequest},
		{"unknown", errors.New("spontaneous combustion"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestUnknownLeagueIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues/"+uuid.NewString(), nil)
	wantStatus(t, rec, http.StatusNotFound)
	wantErrorCode(t, rec, "LG001")
}

func TestBadUUIDParamIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues/not-a-uuid", nil)
	wantStatus(t, rec, http.StatusBadRequest)
	wantErrorCode(t, rec, "REQ002")
}

func TestBadJSONBodyIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", "{not json")
	wantStatus(t, rec, http.StatusBadRequest)
	wantErrorCode(t, rec, "REQ001")
}

// ============================================================================
// Public Pages
// ============================================================================

func TestHomePage(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/", nil)
	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Virtual Racing Leagues") {
		t.Error("home page does not mention the site name")
	}
}

func TestLeaguesPageListsPublicOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	createLeague(t, srv, "Speed Demons", "psn")
	rec := doRequest(t, srv, http.MethodPost, "/api/leagues", core.LeagueInput{
		Name:       "Secret Society",
		Visibility: store.VisibilityUnlisted,
	})
	wantStatus(t, rec, http.StatusCreated)

	page := doRequest(t, srv, http.MethodGet, "/leagues", nil)
	wantStatus(t, page, http.StatusOK)

	body := page.Body.String()
	if !strings.Contains(body, "Speed Demons") {
		t.Error("public league missing from leagues page")
	}
	if strings.Contains(body, "Secret Society") {
		t.Error("unlisted league leaked onto leagues page")
	}
}

// ============================================================================
// Authentication
// ============================================================================

func enabledAuth() *auth.DiscordAuth {
	return auth.New(auth.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
	})
}

func TestAPIRequiresSession(t *testing.T) {
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{})
	srv := NewServer(svc, enabledAuth(), Options{RateLimit: 100000})

	rec := doRequest(t, srv, http.MethodGet, "/api/leagues", nil)
	wantStatus(t, rec, http.StatusUnauthorized)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["code"] != "AUTH001" {
		t.Errorf("code = %q, want %q", resp["code"], "AUTH001")
	}
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{})
	srv := NewServer(svc, enabledAuth(), Options{RateLimit: 100000})

	for _, path := range []string{"/", "/leagues", "/healthz", "/api/public/leagues"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil)
		if rec.Code == http.StatusUnauthorized {
			t.Errorf("GET %s = 401, want public access", path)
		}
	}
}

func TestSessionCookieGrantsAccess(t *testing.T) {
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{})
	authn := enabledAuth()
	srv := NewServer(svc, authn, Options{RateLimit: 100000})

	sess := authn.SessionStore().Create(auth.User{
		ID:         "42",
		Username:   "speedster",
		GlobalName: "Speedster",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sess.ID})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	wantStatus(t, rec, http.StatusOK)
	var user auth.User
	decodeBody(t, rec, &user)
	if user.ID != "42" {
		t.Errorf("user ID = %q, want %q", user.ID, "42")
	}
}

func TestSessionIdentityReachesAuditLog(t *testing.T) {
	svc := core.NewService(store.NewMemory(), events.NewMemory(), core.Options{})
	authn := enabledAuth()
	srv := NewServer(svc, authn, Options{RateLimit: 100000})

	sess := authn.SessionStore().Create(auth.User{
		ID:         "42",
		Username:   "speedster",
		GlobalName: "Speedster",
	})
	cookie := &http.Cookie{Name: auth.SessionCookie, Value: sess.ID}

	body, _ := json.Marshal(core.LeagueInput{Name: "Night Shift GP"})
	req := httptest.NewRequest(http.MethodPost, "/api/leagues", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusCreated)

	req = httptest.NewRequest(http.MethodGet, "/api/audit-log", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	wantStatus(t, rec, http.StatusOK)

	var page store.Page[store.AuditEntry]
	decodeBody(t, rec, &page)
	if page.Total == 0 {
		t.Fatal("audit log is empty after league creation")
	}
	found := false
	for _, e := range page.Items {
		if e.Action == "league_create" && e.Actor == "Speedster" {
			found = true
		}
	}
	if !found {
		t.Errorf("no league_create entry by Speedster in %d entries", page.Total)
	}
}

func TestMeWithAuthDisabled(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/me", nil)
	wantStatus(t, rec, http.StatusOK)

	var user auth.User
	decodeBody(t, rec, &user)
	if user.Username != "local-admin" {
		t.Errorf("stub username = %q, want %q", user.Username, "local-admin")
	}
}
