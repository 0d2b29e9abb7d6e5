// Package auth implements the Discord OAuth2 login that guards the admin
// API. When no client ID is configured the whole flow degrades to a stub
// identity so local development needs no Discord application.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/logging"
)

const (
	discordAuthURL  = "https://discord.com/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordUserURL  = "https://discord.com/api/users/@me"

	// SessionCookie carries the opaque session ID issued after login.
	SessionCookie = "vrl_session"

	stateCookie = "oauth_state"
)

// Config holds the Discord OAuth2 application settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SessionTTL   time.Duration
}

// User is the authenticated Discord identity attached to requests.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

// DisplayName prefers the Discord global display name over the login name.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// DiscordAuth manages the OAuth2 login flow and the sessions it issues.
type DiscordAuth struct {
	cfg      Config
	oauth    *oauth2.Config
	sessions *Sessions

	// userURL is a field so tests can point the identity fetch at a stub.
	userURL    string
	httpClient *http.Client
}

// New builds the authenticator. A zero ClientID disables the flow.
func New(cfg Config) *DiscordAuth {
	return &DiscordAuth{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  discordAuthURL,
				TokenURL: discordTokenURL,
			},
		},
		sessions:   NewSessions(cfg.SessionTTL),
		userURL:    discordUserURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a Discord application is configured.
func (a *DiscordAuth) Enabled() bool {
	return a.cfg.ClientID != ""
}

// SessionStore exposes the session manager for maintenance sweeps.
func (a *DiscordAuth) SessionStore() *Sessions {
	return a.sessions
}

// LoginHandler starts the authorization-code flow: set a short-lived state
// cookie and send the browser to Discord.
func (a *DiscordAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !a.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state := randomToken()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, a.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler finishes the flow: verify state, exchange the code, fetch
// the Discord identity and issue a session cookie.
func (a *DiscordAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if !a.Enabled() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	log := logging.FromContext(r.Context())

	// Discord reports a declined consent screen via the error parameter.
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		log.Info("discord login declined", "reason", errCode)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}
	if state := r.URL.Query().Get("state"); state == "" || state != cookie.Value {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := a.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error("oauth code exchange failed", "error", err)
		http.Error(w, "Login failed", http.StatusBadGateway)
		return
	}

	user, err := a.fetchUser(r.Context(), token)
	if err != nil {
		log.Error("discord identity fetch failed", "error", err)
		http.Error(w, "Login failed", http.StatusBadGateway)
		return
	}

	session := a.sessions.Create(user)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	log.Info("admin logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler revokes the session and clears the cookie.
func (a *DiscordAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		a.sessions.Revoke(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *DiscordAuth) fetchUser(ctx context.Context, token *oauth2.Token) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userURL, nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return User{}, fmt.Errorf("discord user endpoint: %s - %s", resp.Status, string(body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode discord user: %w", err)
	}
	return user, nil
}

func (a *DiscordAuth) secureCookies() bool {
	return strings.HasPrefix(a.cfg.RedirectURL, "https://")
}
