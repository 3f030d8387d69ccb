package authn

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const sessionCookieName = "proctor_admin_session"

// NewSessionManager configures the dashboard session cookie. A nil store keeps sessions in memory.
func NewSessionManager(store scs.Store, lifetime time.Duration, secure bool) *scs.SessionManager {
	sessions := scs.New()
	if store != nil {
		sessions.Store = store
	}
	if lifetime > 0 {
		sessions.Lifetime = lifetime
	}
	sessions.Cookie.Name = sessionCookieName
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Path = "/"
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = secure
	return sessions
}
