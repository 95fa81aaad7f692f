package oauth

import (
	"strings"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/bachesrosario/baches-api/internal/pkg/env"
	"github.com/bachesrosario/baches-api/internal/pkg/session"
)

// Setup initializes the Google provider and the OAuth state store.
// It is safe to call multiple times; providers will just be re-registered.
func Setup() {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "3001")
	}

	goth.UseProviders(
		google.New(
			env.GetEnv("GOOGLE_KEY", ""),
			env.GetEnv("GOOGLE_SECRET", ""),
			base+"/api/auth/google/callback",
			"email", "profile",
		),
	)

	gothfiber.SessionStore = session.NewSessionStore()
}
