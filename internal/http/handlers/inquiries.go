package handlers

import (
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleInquiries(c *echo.Context) error {
	inquiries, err := h.Backend.ListCustomInquiries(c.Request().Context(), h.credentials(c))
	layout := h.LayoutData(c, "Custom Inquiries")
	if err != nil {
		if answered, err := h.listFailed(c, "inquiries", err); answered {
			return err
		}
		layout.Notice = "Could not load inquiries."
		inquiries = nil
	}

	window, pager := pageSlice(c, inquiries, h.Cfg.TablePageSize)
	rows := make([]viewmodels.InquiryRow, 0, len(window))
	for _, q := range window {
		rows = append(rows, viewmodels.InquiryRow{
			ID:                 q.ID,
			Name:               orDash(q.Name),
			Email:              orDash(q.Email),
			ContactNumber:      orDash(q.ContactNumber.String()),
			VehicleType:        orDash(q.VehicleType),
			PeopleCount:        orDash(q.PeopleCount.String()),
			DateCount:          orDash(q.DateCount.String()),
			From:               formatDate(q.From),
			To:                 formatDate(q.To),
			ExpectedHotelRate:  orDash(q.ExpectedHotelRate.String()),
			LocationList:       orDash(strings.Join(q.LocationList, ", ")),
			PreferredLanguages: orDash(strings.Join(q.PreferredLanguages, ", ")),
			Remark:             orDash(q.Remark),
		})
	}
	return h.RenderComponent(c, views.InquiriesPage(viewmodels.InquiriesViewData{
		Layout: layout,
		Rows:   rows,
		Pager:  pager,
	}))
}
