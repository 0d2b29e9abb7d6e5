package core

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/events"
	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// DefaultImportTimeout bounds a single roster import end to end.
var DefaultImportTimeout = 2 * time.Minute

// Options tunes the service. Zero values fall back to package defaults.
type Options struct {
	MaxCSVBytes          int
	MaxImportRows        int
	MaxConcurrentImports int
	MaxImportWait        time.Duration
	ImportTimeout        time.Duration
	CloseDelay           time.Duration
	SessionTTL           time.Duration
}

// Service owns the business logic: league and roster management, CSV
// import, and the audit trail. HTTP handlers and the CLI both talk to the
// same Service.
type Service struct {
	store    store.Store
	events   events.Publisher
	sessions *SessionStore
	limiter  *ImportLimiter
	examples *ExampleCache
	validate *validator.Validate

	limits        ImportLimits
	importTimeout time.Duration
}

// NewService wires a Service over a store and an event publisher.
func NewService(st store.Store, pub events.Publisher, opts Options) *Service {
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = DefaultImportTimeout
	}
	return &Service{
		store:    st,
		events:   pub,
		sessions: NewSessionStore(opts.CloseDelay, opts.SessionTTL),
		limiter:  NewImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait),
		examples: NewExampleCache(),
		validate: newValidator(),
		limits: ImportLimits{
			MaxBytes: opts.MaxCSVBytes,
			MaxRows:  opts.MaxImportRows,
		},
		importTimeout: opts.ImportTimeout,
	}
}

// newValidator builds the struct validator with json tag names so
// validation messages talk about API fields, not Go fields.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// publish sends an event without letting broker trouble affect the
// operation that triggered it.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, e)
}

// checkInput runs struct tag validation and rewrites the first failure
// into a message fit for an API response. The message already names the
// offending field, so it ships as-is under the VAL000 code instead of
// going through the pattern table.
func (s *Service) checkInput(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	described := describeFieldError(verrs[0])
	return &UserError{
		Technical: fmt.Errorf("validate %T: %s", v, described),
		User: UserMessage{
			Message: described,
			Action:  "Correct the field and try again",
			Code:    "VAL000",
		},
	}
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// checkPlatforms verifies every key against the platform registry.
func checkPlatforms(keys []string) error {
	for _, key := range keys {
		if _, ok := GetPlatform(key); !ok {
			return fmt.Errorf("unknown platform: %q", key)
		}
	}
	return nil
}

// Slugify derives a URL slug from a league name: lowercase, runs of
// non-alphanumerics collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// ImportStatus reports the limiter's view of concurrent imports, for the
// health endpoint.
func (s *Service) ImportStatus() LimiterStatus {
	return s.limiter.Status()
}

// DrainImports blocks until running imports finish or the timeout
// elapses. Called during shutdown so in-flight imports are not cut off
// mid-write.
func (s *Service) DrainImports(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.limiter.WaitForDrain(ctx)
}

// PruneSessions removes expired import sessions and returns the count.
func (s *Service) PruneSessions() int {
	return s.sessions.PruneExpired()
}

// PurgeAudit deletes audit entries older than the retention window.
func (s *Service) PurgeAudit(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return s.store.DeleteAuditBefore(ctx, cutoff)
}

// Ping proxies the store health check.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SiteConfig returns the public site settings.
func (s *Service) SiteConfig(ctx context.Context) (store.SiteConfig, error) {
	return s.store.GetSiteConfig(ctx)
}

// SiteConfigInput carries an admin update to the public site settings.
type SiteConfigInput struct {
	SiteName      string `json:"site_name" validate:"required,max=120"`
	Tagline       string `json:"tagline" validate:"max=200"`
	WelcomeText   string `json:"welcome_text" validate:"max=4000"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
	DiscordInvite string `json:"discord_invite" validate:"omitempty,url"`
}

// UpdateSiteConfig validates and stores new site settings.
func (s *Service) UpdateSiteConfig(ctx context.Context, input SiteConfigInput) (store.SiteConfig, error) {
	if err := s.checkInput(input); err != nil {
		return store.SiteConfig{}, err
	}

	cfg, err := s.store.UpdateSiteConfig(ctx, store.SiteConfig{
		SiteName:      strings.TrimSpace(input.SiteName),
		Tagline:       strings.TrimSpace(input.Tagline),
		WelcomeText:   input.WelcomeText,
		ContactEmail:  strings.TrimSpace(input.ContactEmail),
		DiscordInvite: strings.TrimSpace(input.DiscordInvite),
	})
	if err != nil {
		return store.SiteConfig{}, err
	}

	s.recordAudit(ctx, AuditParams{Action: ActionSiteConfigUpdate})
	return cfg, nil
}
