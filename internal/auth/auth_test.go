package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/core"
)

func testConfig() Config {
	return Config{
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		SessionTTL:   time.Hour,
	}
}

func findCookie(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ============================================================
// Sessions
// ============================================================

func TestSessionsCreateLookup(t *testing.T) {
	s := NewSessions(time.Hour)

	session := s.Create(User{ID: "1", Username: "speedster"})
	if session.ID == "" {
		t.Fatal("Create() returned empty session ID")
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Errorf("ExpiresAt %v not after CreatedAt %v", session.ExpiresAt, session.CreatedAt)
	}

	got, ok := s.Lookup(session.ID)
	if !ok {
		t.Fatal("Lookup() did not find fresh session")
	}
	if got.User.Username != "speedster" {
		t.Errorf("User.Username = %q, want %q", got.User.Username, "speedster")
	}

	if _, ok := s.Lookup("nope"); ok {
		t.Error("Lookup(unknown) = found, want miss")
	}
}

func TestSessionsExpiry(t *testing.T) {
	s := NewSessions(time.Minute)
	session := s.Create(User{ID: "1"})

	s.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }

	if _, ok := s.Lookup(session.ID); ok {
		t.Error("Lookup() found expired session")
	}
}

func TestSessionsRevoke(t *testing.T) {
	s := NewSessions(time.Hour)
	session := s.Create(User{ID: "1"})

	s.Revoke(session.ID)
	if _, ok := s.Lookup(session.ID); ok {
		t.Error("Lookup() found revoked session")
	}

	// Revoking again is a no-op.
	s.Revoke(session.ID)
}

func TestSessionsPruneExpired(t *testing.T) {
	s := NewSessions(time.Minute)
	s.Create(User{ID: "1"})
	s.Create(User{ID: "2"})

	if removed := s.PruneExpired(); removed != 0 {
		t.Errorf("PruneExpired() = %d, want 0 while fresh", removed)
	}

	s.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	if removed := s.PruneExpired(); removed != 2 {
		t.Errorf("PruneExpired() = %d, want 2", removed)
	}
	if n := s.Count(); n != 0 {
		t.Errorf("Count() = %d, want 0 after prune", n)
	}
}

func TestSessionTTLDefault(t *testing.T) {
	s := NewSessions(0)
	if s.ttl != DefaultSessionTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultSessionTTL)
	}
}

// ============================================================
// Login / callback flow
// ============================================================

func TestLoginRedirectsToDiscord(t *testing.T) {
	a := New(testConfig())

	rec := httptest.NewRecorder()
	a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	res := rec.Result()
	if res.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusTemporaryRedirect)
	}

	loc, err := url.Parse(res.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Host != "discord.com" {
		t.Errorf("redirect host = %q, want discord.com", loc.Host)
	}
	if got := loc.Query().Get("client_id"); got != "client-123" {
		t.Errorf("client_id = %q, want %q", got, "client-123")
	}

	state := findCookie(t, res, stateCookie)
	if state == nil || state.Value == "" {
		t.Fatal("state cookie not set")
	}
	if !state.HttpOnly {
		t.Error("state cookie not HttpOnly")
	}
	if loc.Query().Get("state") != state.Value {
		t.Error("state query parameter does not match cookie")
	}
}

func TestLoginDisabledGoesHome(t *testing.T) {
	a := New(Config{})

	rec := httptest.NewRecorder()
	a.LoginHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	a := New(testConfig())

	tests := []struct {
		name   string
		target string
		cookie string
	}{
		{"state mismatch", "/auth/callback?code=c&state=evil", "good"},
		{"empty state", "/auth/callback?code=c", "good"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.AddCookie(&http.Cookie{Name: stateCookie, Value: tt.cookie})

			rec := httptest.NewRecorder()
			a.CallbackHandler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCallbackMissingStateCookie(t *testing.T) {
	a := New(testConfig())

	rec := httptest.NewRecorder()
	a.CallbackHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCallbackDeclinedConsent(t *testing.T) {
	a := New(testConfig())

	rec := httptest.NewRecorder()
	a.CallbackHandler(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if a.sessions.Count() != 0 {
		t.Error("declined consent created a session")
	}
}

// stubDiscord serves the token and identity endpoints the callback needs.
func stubDiscord(t *testing.T, a *DiscordAuth) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":604800}`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"42","username":"speedster","global_name":"Speedster"}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	a.oauth.Endpoint.TokenURL = server.URL + "/token"
	a.userURL = server.URL + "/me"
}

func TestCallbackIssuesSession(t *testing.T) {
	a := New(testConfig())
	stubDiscord(t, a)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "s"})

	rec := httptest.NewRecorder()
	a.CallbackHandler(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusSeeOther)
	}

	cookie := findCookie(t, res, SessionCookie)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("session cookie not set")
	}

	session, ok := a.sessions.Lookup(cookie.Value)
	if !ok {
		t.Fatal("session not stored")
	}
	if session.User.Username != "speedster" {
		t.Errorf("session user = %q, want speedster", session.User.Username)
	}

	// The state cookie is cleared after a successful exchange.
	state := findCookie(t, res, stateCookie)
	if state == nil || state.MaxAge != -1 {
		t.Error("state cookie not cleared")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	a := New(testConfig())
	session := a.sessions.Create(User{ID: "42"})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})

	rec := httptest.NewRecorder()
	a.LogoutHandler(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if _, ok := a.sessions.Lookup(session.ID); ok {
		t.Error("session still valid after logout")
	}

	cleared := findCookie(t, rec.Result(), SessionCookie)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("session cookie not cleared")
	}
}

// ============================================================
// Middleware
// ============================================================

func TestRequireSessionRejectsAnonymous(t *testing.T) {
	a := New(testConfig())

	handler := a.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leagues", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["code"] != "AUTH001" {
		t.Errorf("code = %q, want AUTH001", body["code"])
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q, want JSON", rec.Header().Get("Content-Type"))
	}
}

func TestRequireSessionRejectsExpired(t *testing.T) {
	a := New(testConfig())
	session := a.sessions.Create(User{ID: "42"})
	a.sessions.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	req := httptest.NewRequest(http.MethodGet, "/api/leagues", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})

	rec := httptest.NewRecorder()
	a.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with expired session")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireSessionInjectsIdentity(t *testing.T) {
	a := New(testConfig())
	session := a.sessions.Create(User{ID: "42", Username: "speedster", GlobalName: "Speedster"})

	req := httptest.NewRequest(http.MethodGet, "/api/leagues", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})

	var gotUser User
	var gotActor string
	rec := httptest.NewRecorder()
	a.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotActor = core.ActorFromContext(r.Context())
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser.ID != "42" {
		t.Errorf("user ID = %q, want 42", gotUser.ID)
	}
	if gotActor != "Speedster" {
		t.Errorf("actor = %q, want Speedster", gotActor)
	}
}

func TestRequireSessionDisabledInjectsStub(t *testing.T) {
	a := New(Config{})

	var gotUser User
	var gotActor string
	rec := httptest.NewRecorder()
	a.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		gotActor = core.ActorFromContext(r.Context())
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leagues", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser != stubUser {
		t.Errorf("user = %+v, want stub identity", gotUser)
	}
	if gotActor != "local-admin" {
		t.Errorf("actor = %q, want local-admin", gotActor)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"global name wins", User{Username: "speedster", GlobalName: "Speedster"}, "Speedster"},
		{"falls back to username", User{Username: "speedster"}, "speedster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
