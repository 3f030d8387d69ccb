package handlers

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleBookings(c *echo.Context) error {
	bookings, err := h.Backend.ListBookings(c.Request().Context(), h.credentials(c))
	layout := h.LayoutData(c, "Bookings")
	if err != nil {
		if answered, err := h.listFailed(c, "bookings", err); answered {
			return err
		}
		layout.Notice = "Could not load bookings."
		bookings = nil
	}

	window, pager := pageSlice(c, bookings, h.Cfg.TablePageSize)
	rows := make([]viewmodels.BookingRow, 0, len(window))
	for _, b := range window {
		row := viewmodels.BookingRow{
			ID:            b.ID,
			TourTitle:     "-",
			Customer:      b.CustomerName(),
			ContactEmail:  orDash(b.ContactEmail),
			ContactNumber: orDash(b.ContactNumber.String()),
			TotalPeople:   orDash(b.TotalPeople.String()),
			From:          formatDate(b.From),
			To:            formatDate(b.To),
			TotalDays:     orDash(b.TotalDays.String()),
			TotalPrice:    orDash(b.TotalPrice.String()),
			Status:        string(b.Status),
		}
		if b.Tour != nil {
			row.TourTitle = orDash(b.Tour.Title)
			row.TourImage = b.Tour.ImgURL
		}
		rows = append(rows, row)
	}

	statuses := make([]string, 0, len(backend.BookingStatuses))
	for _, s := range backend.BookingStatuses {
		statuses = append(statuses, string(s))
	}
	return h.RenderComponent(c, views.BookingsPage(viewmodels.BookingsViewData{
		Layout:   layout,
		Rows:     rows,
		Pager:    pager,
		Statuses: statuses,
	}))
}

// HandleBookingStatusPost changes one booking's status and returns to the list page it came from.
func (h *Handlers) HandleBookingStatusPost(c *echo.Context) error {
	back := "/bookings"
	if page, err := strconv.Atoi(strings.TrimSpace(c.FormValue("page"))); err == nil && page > 1 {
		back += "?page=" + strconv.Itoa(page)
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return RenderNotFound(c)
	}
	status, err := backend.ParseBookingStatus(c.FormValue("status"))
	if err != nil {
		setFlashToast(c, viewmodels.ToastViewData{
			Category:    "error",
			Title:       "Status not updated",
			Description: "Choose pending, cancel, or confirm.",
		})
		return h.redirect(c, back)
	}

	if err := h.Backend.UpdateBookingStatus(c.Request().Context(), h.credentials(c), id, status); err != nil {
		return h.mutationFailed(c, back, "Status not updated", err)
	}
	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "success",
		Title:       "Booking updated",
		Description: "Status changed to " + string(status) + ".",
	})
	return h.redirect(c, back)
}
