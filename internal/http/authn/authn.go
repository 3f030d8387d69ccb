package authn

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/auth"
)

const (
	ContextKeyCredentials = "auth_credentials"

	SessionKeyToken     = "auth_token"
	SessionKeyExpiresAt = "auth_expires_at_ms"
	SessionKeyUserID    = "auth_user_id"
	SessionKeyUserName  = "auth_user_name"
	SessionKeyUserEmail = "auth_user_email"
	SessionKeyBoardID   = "sessions_board_id"
)

// CredentialsFromContext returns the credentials loaded by RequireAuth.
func CredentialsFromContext(c *echo.Context) (auth.Credentials, bool) {
	creds, ok := c.Get(ContextKeyCredentials).(auth.Credentials)
	return creds, ok
}

// SaveCredentials stores the auth context in the dashboard session, rotating the session token.
func SaveCredentials(ctx context.Context, sessions *scs.SessionManager, creds auth.Credentials) error {
	if err := sessions.RenewToken(ctx); err != nil {
		return err
	}
	sessions.Put(ctx, SessionKeyToken, creds.Token)
	sessions.Put(ctx, SessionKeyExpiresAt, creds.ExpiresAt.UnixMilli())
	sessions.Put(ctx, SessionKeyUserID, creds.Principal.UserID)
	sessions.Put(ctx, SessionKeyUserName, creds.Principal.Name)
	sessions.Put(ctx, SessionKeyUserEmail, creds.Principal.Email)
	return nil
}

// LoadCredentials reads the auth context. Expired credentials are purged and reported as absent.
func LoadCredentials(ctx context.Context, sessions *scs.SessionManager, now time.Time) (auth.Credentials, bool) {
	token := sessions.GetString(ctx, SessionKeyToken)
	if token == "" {
		return auth.Credentials{}, false
	}
	expiresAtMs := sessions.GetInt64(ctx, SessionKeyExpiresAt)
	creds := auth.Credentials{
		Token:     token,
		ExpiresAt: time.UnixMilli(expiresAtMs),
		Principal: auth.Principal{
			UserID: sessions.GetString(ctx, SessionKeyUserID),
			Name:   sessions.GetString(ctx, SessionKeyUserName),
			Email:  sessions.GetString(ctx, SessionKeyUserEmail),
			Method: auth.MethodBackend,
		},
	}
	if expiresAtMs <= 0 || !creds.Valid(now) {
		PurgeCredentials(ctx, sessions)
		return auth.Credentials{}, false
	}
	return creds, true
}

// PurgeCredentials drops the auth context but keeps the rest of the session.
func PurgeCredentials(ctx context.Context, sessions *scs.SessionManager) {
	for _, key := range []string{SessionKeyToken, SessionKeyExpiresAt, SessionKeyUserID, SessionKeyUserName, SessionKeyUserEmail} {
		sessions.Remove(ctx, key)
	}
}

// BoardID returns the id of this session's sessions board, allocating one on first use.
func BoardID(ctx context.Context, sessions *scs.SessionManager) string {
	if id := sessions.GetString(ctx, SessionKeyBoardID); id != "" {
		return id
	}
	id := uuid.NewString()
	sessions.Put(ctx, SessionKeyBoardID, id)
	return id
}

// RequireAuth guards every route behind it. now may be nil.
func RequireAuth(sessions *scs.SessionManager, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			creds, ok := LoadCredentials(c.Request().Context(), sessions, now())
			if !ok {
				return HandleUnauth(c)
			}
			c.Set(ContextKeyCredentials, creds)
			return next(c)
		}
	}
}

func isAPIRequest(c *echo.Context) bool {
	return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func isHTMXRequest(c *echo.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.Request().Header.Get("HX-Request")), "true")
}

// HandleUnauth answers a request that has no usable credentials.
func HandleUnauth(c *echo.Context) error {
	if isAPIRequest(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	location := "/login"
	if next := SanitizeNext(c.Request().URL.RequestURI()); next != "" && c.Request().Method == http.MethodGet {
		location = "/login?next=" + url.QueryEscape(next)
	}
	if isHTMXRequest(c) {
		// an HTMX fragment URL is not a page to come back to
		if current := SanitizeNext(currentURLPath(c.Request().Header.Get("HX-Current-URL"))); current != "" {
			location = "/login?next=" + url.QueryEscape(current)
		} else {
			location = "/login"
		}
		c.Response().Header().Set("HX-Redirect", location)
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, location)
}

func currentURLPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Path == "" {
		return ""
	}
	return u.RequestURI()
}

// SanitizeNext accepts only same-origin relative paths that are safe to redirect to.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.ContainsAny(next, "\\\r\n\t") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return ""
	}
	if strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, "\\") {
		return ""
	}
	if u.Path == "/" && u.RawQuery == "" {
		return ""
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/login/") {
		return ""
	}
	return next
}
