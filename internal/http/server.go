package httpapp

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/examwatch/proctor-admin/internal/auth/providers"
	"github.com/examwatch/proctor-admin/internal/config"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/http/handlers"
	"github.com/examwatch/proctor-admin/internal/risk"
)

// Options are the dependencies of the dashboard server.
type Options struct {
	Config   config.Config
	Backend  handlers.BackendAPI
	Auth     providers.Provider
	Sessions *scs.SessionManager
	Risk     *risk.Aggregator
	Boards   risk.BoardStore
	Logger   *slog.Logger
	Now      func() time.Time
}

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(opts Options) (*EchoServer, error) {
	switch {
	case opts.Backend == nil:
		return nil, errors.New("backend client is required")
	case opts.Auth == nil:
		return nil, errors.New("auth provider is required")
	case opts.Sessions == nil:
		return nil, errors.New("session manager is required")
	case opts.Risk == nil || opts.Boards == nil:
		return nil, errors.New("risk aggregator and board store are required")
	}

	h := &handlers.Handlers{
		Cfg:      opts.Config,
		Backend:  opts.Backend,
		Auth:     opts.Auth,
		Sessions: opts.Sessions,
		Risk:     opts.Risk,
		Boards:   opts.Boards,
		Now:      opts.Now,
	}
	e := echo.New()
	if opts.Logger != nil {
		e.Logger = opts.Logger
	}

	es := &EchoServer{h: h, e: e}
	e.HTTPErrorHandler = es.httpErrorHandler
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.Recover())
	es.e.Use(requestIDMiddleware)
	es.e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   es.h.Cfg.AuthCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	es.e.GET("/healthz", es.h.HandleHealthz)
	es.e.GET("/login", es.h.HandleLoginGet)
	es.e.POST("/login", es.h.HandleLoginPost)
	es.e.POST("/logout", es.h.HandleLogoutPost)

	authed := es.e.Group("")
	authed.Use(authn.RequireAuth(es.h.Sessions, es.h.Now))
	authed.GET("/", es.h.HandleDashboard)

	authed.GET("/sessions", es.h.HandleSessions)
	authed.GET("/sessions/rows", es.h.HandleSessionRows)
	authed.GET("/sessions/high-risk", es.h.HandleHighRisk)
	authed.GET("/sessions/high-risk/rows", es.h.HandleHighRiskRows)
	authed.GET("/sessions/:id/summary", es.h.HandleSessionSummary)
	authed.GET("/api/sessions/flags", es.h.HandleSessionFlagsAPI)

	authed.GET("/bookings", es.h.HandleBookings)
	authed.POST("/bookings/:id/status", es.h.HandleBookingStatusPost)
	authed.GET("/inquiries", es.h.HandleInquiries)

	authed.GET("/locations", es.h.HandleLocations)
	authed.GET("/locations/new", es.h.HandleLocationNew)
	authed.POST("/locations/new", es.h.HandleLocationSave)
	authed.GET("/locations/:id/edit", es.h.HandleLocationEdit)
	authed.POST("/locations/:id/edit", es.h.HandleLocationSave)
	authed.GET("/locations/:id/delete", es.h.HandleLocationDeleteConfirm)
	authed.POST("/locations/:id/delete", es.h.HandleLocationDeletePost)

	authed.GET("/packages", es.h.HandlePackages)
	authed.GET("/packages/new", es.h.HandlePackageNew)
	authed.POST("/packages/new", es.h.HandlePackageSave)
	authed.GET("/packages/:id/edit", es.h.HandlePackageEdit)
	authed.POST("/packages/:id/edit", es.h.HandlePackageSave)
	authed.GET("/packages/:id/delete", es.h.HandlePackageDeleteConfirm)
	authed.POST("/packages/:id/delete", es.h.HandlePackageDeletePost)

	authed.GET("/students", es.h.HandleStudents)
	authed.GET("/students/register", es.h.HandleStudentRegisterGet)
	authed.POST("/students/register", es.h.HandleStudentRegisterPost)
}

// Handler returns the full handler chain: access log, session load/save, then echo.
func (es *EchoServer) Handler() http.Handler {
	return accessLog(es.e.Logger, es.h.Sessions.LoadAndSave(es.e))
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	status := httpStatusFromError(err)
	switch {
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	default:
		handlers.RequestLogger(c).Warn("http client error",
			"status", status,
			"path", c.Request().URL.Path,
			"error", err,
		)
		_ = c.String(status, http.StatusText(status))
	}
}

func httpStatusFromError(err error) int {
	var coder interface{ StatusCode() int }
	if errors.As(err, &coder) {
		if code := coder.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}

func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
			c.Set(handlers.ContextKeyRequestID, id)
		}
		return next(c)
	}
}
