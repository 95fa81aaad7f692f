package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	"github.com/markbates/goth/gothic"

	"github.com/bachesrosario/baches-api/internal/pkg/cache"
	"github.com/bachesrosario/baches-api/internal/pkg/env"
)

var sessionStore *session.Store

// NewSessionStore builds the redis-backed cookie session store that
// carries OAuth state across the redirect round trip. It reuses the
// cache connection settings but a separate logical database, so a cache
// flush cannot invalidate in-flight logins.
func NewSessionStore() *session.Store {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     time.Hour,
	})

	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}
