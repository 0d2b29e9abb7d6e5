// Package templates renders the public site pages. Components are written
// against the templ runtime API directly; the admin UI is a separate SPA and
// only the marketing surface is server-rendered.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/sgoodwin10/VirtualRacingLeagues-sub014/internal/store"
)

// Layout wraps body in the shared page shell.
func Layout(title string, cfg store.SiteConfig, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/site.css">
</head>
<body>
<header class="site-header">
<a class="brand" href="/">%s</a>
<nav><a href="/leagues">Leagues</a></nav>
</header>
<main>`, templ.EscapeString(title), templ.EscapeString(cfg.SiteName)); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		_, err := fmt.Fprintf(w, `</main>
<footer class="site-footer"><p>%s</p></footer>
</body>
</html>`, templ.EscapeString(cfg.Tagline))
		return err
	})
}

// Home is the landing page: welcome text plus the Discord invite when one is
// configured.
func Home(cfg store.SiteConfig) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<section class="hero">
<h1>%s</h1>
<p class="tagline">%s</p>
<p>%s</p>`, templ.EscapeString(cfg.SiteName), templ.EscapeString(cfg.Tagline), templ.EscapeString(cfg.WelcomeText)); err != nil {
			return err
		}

		if cfg.DiscordInvite != "" {
			if _, err := fmt.Fprintf(w, `
<p><a class="button" href="%s">Join us on Discord</a></p>`, templ.EscapeString(cfg.DiscordInvite)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `
</section>`)
		return err
	})
	return Layout(cfg.SiteName, cfg, body)
}

// LeagueList renders the public league directory.
func LeagueList(cfg store.SiteConfig, leagues []store.League) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="leagues">
<h1>Leagues</h1>`); err != nil {
			return err
		}

		if len(leagues) == 0 {
			if _, err := io.WriteString(w, `
<p class="empty">No leagues yet. Check back soon.</p>`); err != nil {
				return err
			}
		}

		for _, l := range leagues {
			if _, err := fmt.Fprintf(w, `
<article class="league-card">
<h2>%s</h2>
<p>%s</p>
</article>`, templ.EscapeString(l.Name), templ.EscapeString(l.Description)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `
</section>`)
		return err
	})
	return Layout("Leagues - "+cfg.SiteName, cfg, body)
}

// ErrorAlert is the error fragment rendered for HTML clients.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert">
<p>%s <span class="code">(%s)</span></p>`, templ.EscapeString(message), templ.EscapeString(code)); err != nil {
			return err
		}

		if action != "" {
			if _, err := fmt.Fprintf(w, `
<p class="action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `
</div>`)
		return err
	})
}
