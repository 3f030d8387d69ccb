package handlers

import (
	"context"
	"errors"

	"github.com/labstack/echo/v5"
	"golang.org/x/sync/errgroup"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleDashboard(c *echo.Context) error {
	ctx := c.Request().Context()
	creds := h.credentials(c)

	var students, bookings, inquiries int
	var g errgroup.Group
	count := func(what string, dst *int, fetch func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fetch(ctx)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					return err
				}
				RequestLogger(c).Warn("dashboard count failed", "collection", what, "error", err)
				return nil
			}
			*dst = n
			return nil
		})
	}
	count("students", &students, func(ctx context.Context) (int, error) {
		items, err := h.Backend.ListStudents(ctx, creds)
		return len(items), err
	})
	count("bookings", &bookings, func(ctx context.Context) (int, error) {
		items, err := h.Backend.ListBookings(ctx, creds)
		return len(items), err
	})
	count("inquiries", &inquiries, func(ctx context.Context) (int, error) {
		items, err := h.Backend.ListCustomInquiries(ctx, creds)
		return len(items), err
	})
	if err := g.Wait(); errors.Is(err, auth.ErrUnauthenticated) {
		return h.handleUnauthenticated(c)
	}

	data := viewmodels.DashboardViewData{
		Layout:       h.LayoutData(c, "Dashboard"),
		StudentCount: students,
		BookingCount: bookings,
		InquiryCount: inquiries,
	}
	return h.RenderComponent(c, views.DashboardPage(data))
}
