package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleLoginGet(c *echo.Context) error {
	if h.Sessions == nil {
		return errors.New("auth sessions not configured")
	}

	if _, ok := authn.LoadCredentials(c.Request().Context(), h.Sessions, h.now()); ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	data := viewmodels.LoginViewData{
		CSRFToken: csrfToken,
		Next:      authn.SanitizeNext(c.QueryParam("next")),
		Toast:     popFlashToast(c),
	}
	return h.RenderComponent(c, views.LoginPage(data))
}

func (h *Handlers) HandleLoginPost(c *echo.Context) error {
	if h.Sessions == nil || h.Auth == nil {
		return errors.New("auth not configured")
	}

	ctx := c.Request().Context()
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	next := authn.SanitizeNext(c.FormValue("next"))

	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	data := viewmodels.LoginViewData{
		CSRFToken: csrfToken,
		Email:     email,
		Next:      next,
	}

	if email == "" || strings.TrimSpace(password) == "" {
		data.ErrorMessage = "Invalid email or password."
		return h.RenderComponent(c, views.LoginPage(data))
	}

	creds, err := h.Auth.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		data.ErrorMessage = "Invalid email or password."
		return h.RenderComponent(c, views.LoginPage(data))
	case errors.Is(err, auth.ErrNotAdmin):
		data.ErrorMessage = "Access denied. Only administrators can sign in."
		return h.RenderComponent(c, views.LoginPage(data))
	case err != nil:
		RequestLogger(c).Warn("login failed", "email", email, "provider", h.Auth.Name(), "error", err)
		data.ErrorMessage = "The exam backend is unavailable. Please try again."
		return h.RenderComponent(c, views.LoginPage(data))
	}

	if err := authn.SaveCredentials(ctx, h.Sessions, creds); err != nil {
		return err
	}
	RequestLogger(c).Info("admin signed in", "user_id", creds.Principal.UserID, "expires_at", creds.ExpiresAt)

	name := creds.Principal.Name
	if name == "" {
		name = "admin"
	}
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: "Welcome back, " + name + "!"})
	if next != "" {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) HandleLogoutPost(c *echo.Context) error {
	if h.Sessions == nil {
		return errors.New("auth sessions not configured")
	}

	if err := h.Sessions.Destroy(c.Request().Context()); err != nil {
		return err
	}
	setFlashToast(c, viewmodels.ToastViewData{
		Category: "success",
		Title:    "Signed out",
	})
	return h.redirect(c, "/login")
}
