// Package handlers contains HTTP handler logic split by domain.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/auth/providers"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/config"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/logging"
	"github.com/examwatch/proctor-admin/internal/risk"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"
)

// BackendAPI is the part of the exam backend the dashboard uses.
type BackendAPI interface {
	ListSessions(ctx context.Context, creds auth.Credentials, studentID string) ([]backend.Session, error)
	SessionSummary(ctx context.Context, creds auth.Credentials, sessionID, studentID string) (backend.SessionSummary, error)
	ListBookings(ctx context.Context, creds auth.Credentials) ([]backend.Booking, error)
	UpdateBookingStatus(ctx context.Context, creds auth.Credentials, id string, status backend.BookingStatus) error
	ListCustomInquiries(ctx context.Context, creds auth.Credentials) ([]backend.CustomInquiry, error)
	ListLocations(ctx context.Context, creds auth.Credentials) ([]backend.Location, error)
	GetLocation(ctx context.Context, creds auth.Credentials, id string) (backend.Location, error)
	CreateLocation(ctx context.Context, creds auth.Credentials, in backend.LocationInput) error
	UpdateLocation(ctx context.Context, creds auth.Credentials, id string, in backend.LocationInput) error
	DeleteLocation(ctx context.Context, creds auth.Credentials, id string) error
	ListPackages(ctx context.Context, creds auth.Credentials) ([]backend.Package, error)
	GetPackage(ctx context.Context, creds auth.Credentials, id string) (backend.Package, error)
	CreatePackage(ctx context.Context, creds auth.Credentials, in backend.PackageInput) error
	UpdatePackage(ctx context.Context, creds auth.Credentials, id string, in backend.PackageInput) error
	DeletePackage(ctx context.Context, creds auth.Credentials, id string) error
	ListStudents(ctx context.Context, creds auth.Credentials) ([]backend.Student, error)
	RegisterStudent(ctx context.Context, creds auth.Credentials, reg backend.StudentRegistration) (backend.RegisteredStudent, error)
}

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg      config.Config
	Backend  BackendAPI
	Auth     providers.Provider
	Sessions *scs.SessionManager
	Risk     *risk.Aggregator
	Boards   risk.BoardStore
	Now      func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// credentials returns the auth context RequireAuth placed on the request.
func (h *Handlers) credentials(c *echo.Context) auth.Credentials {
	creds, _ := authn.CredentialsFromContext(c)
	return creds
}

// LayoutData builds the common layout data for page rendering.
func (h *Handlers) LayoutData(c *echo.Context, title string) viewmodels.LayoutData {
	creds, _ := authn.CredentialsFromContext(c)
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return viewmodels.LayoutData{
		Title:      title,
		CSRFToken:  csrfToken,
		UserName:   creds.Principal.Name,
		UserEmail:  creds.Principal.Email,
		Toast:      popFlashToast(c),
		ActivePath: c.Request().URL.Path,
	}
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	return h.renderComponentStatus(c, http.StatusOK, component)
}

func (h *Handlers) renderComponentStatus(c *echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		c.Response().WriteHeader(status)
	}
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RequestLogger returns the access log's request-scoped logger. Requests that did not pass
// through the access log get echo's logger tagged with the request id.
func RequestLogger(c *echo.Context) *slog.Logger {
	fallback := c.Logger()
	if requestID, _ := c.Get(ContextKeyRequestID).(string); requestID != "" {
		fallback = fallback.With("request_id", requestID)
	}
	req := c.Request()
	if req == nil {
		return fallback
	}
	return logging.FromContextOr(req.Context(), fallback)
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	RequestLogger(c).Error("http error",
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// handleUnauthenticated purges the stored credentials and sends the user to the login page.
func (h *Handlers) handleUnauthenticated(c *echo.Context) error {
	if h.Sessions != nil {
		authn.PurgeCredentials(c.Request().Context(), h.Sessions)
	}
	return authn.HandleUnauth(c)
}

// listFailed logs a collection fetch failure. It reports whether the caller already answered
// the request (the credentials were rejected).
func (h *Handlers) listFailed(c *echo.Context, what string, err error) (bool, error) {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return true, h.handleUnauthenticated(c)
	}
	RequestLogger(c).Warn("backend list failed",
		"collection", what,
		"error", err,
	)
	return false, nil
}

// mutationFailed flashes a blocking error dialog and redirects back to the list.
func (h *Handlers) mutationFailed(c *echo.Context, redirect, title string, err error) error {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return h.handleUnauthenticated(c)
	}
	RequestLogger(c).Warn("backend mutation failed",
		"path", c.Request().URL.Path,
		"error", err,
	)
	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "error",
		Title:       title,
		Description: backend.UserMessage(err, "The server rejected the request. Please try again."),
	})
	return h.redirect(c, redirect)
}

func (h *Handlers) redirect(c *echo.Context, location string) error {
	addVary(c, "HX-Request")
	if isHX(c) {
		setHXRedirect(c, location)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// HandleHealthz answers liveness probes.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ParseBoolForm parses a form value as a boolean.
func ParseBoolForm(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

const displayTimeLayout = "2006-01-02 15:04"

func formatTime(ts backend.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(displayTimeLayout)
}

func formatOptionalTime(ts *backend.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return formatTime(*ts)
}

func formatDate(ts backend.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
