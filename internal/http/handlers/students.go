package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleStudents(c *echo.Context) error {
	students, err := h.Backend.ListStudents(c.Request().Context(), h.credentials(c))
	layout := h.LayoutData(c, "Students")
	if err != nil {
		if answered, err := h.listFailed(c, "students", err); answered {
			return err
		}
		layout.Notice = "Could not load students."
		students = nil
	}

	window, pager := pageSlice(c, students, h.Cfg.StudentsPageSize)
	rows := make([]viewmodels.StudentRow, 0, len(window))
	for _, s := range window {
		rows = append(rows, viewmodels.StudentRow{
			ID:           s.ID,
			StudentID:    orDash(s.StudentID),
			Name:         orDash(s.FullName()),
			Email:        orDash(s.Email),
			CreatedAt:    formatDate(s.CreatedAt),
			SessionCount: s.SessionCount,
		})
	}
	return h.RenderComponent(c, views.StudentsPage(viewmodels.StudentsViewData{
		Layout: layout,
		Rows:   rows,
		Pager:  pager,
	}))
}

func (h *Handlers) HandleStudentRegisterGet(c *echo.Context) error {
	return h.RenderComponent(c, views.StudentRegisterPage(viewmodels.StudentRegisterViewData{
		Layout: h.LayoutData(c, "Register Student"),
	}))
}

func (h *Handlers) HandleStudentRegisterPost(c *echo.Context) error {
	values, err := parseForm(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	reg := backend.StudentRegistration{
		FirstName:       trimmed(values, "nameF"),
		LastName:        trimmed(values, "nameL"),
		Email:           auth.NormalizeEmail(values.Get("email")),
		Password:        values.Get("password"),
		ConfirmPassword: values.Get("confirmPassword"),
	}
	data := viewmodels.StudentRegisterViewData{
		Layout:    h.LayoutData(c, "Register Student"),
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
	}

	if fieldErrs := reg.Validate(); len(fieldErrs) > 0 {
		data.FieldErrors = fieldErrs
		return h.renderComponentStatus(c, http.StatusUnprocessableEntity, views.StudentRegisterPage(data))
	}

	registered, err := h.Backend.RegisterStudent(c.Request().Context(), h.credentials(c), reg)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		RequestLogger(c).Warn("register student failed", "error", err)
		data.ErrorMessage = backend.UserMessage(err, "Could not register the student. Please try again.")
		return h.renderComponentStatus(c, http.StatusUnprocessableEntity, views.StudentRegisterPage(data))
	}

	RequestLogger(c).Info("student registered", "student_id", registered.StudentID)
	return h.RenderComponent(c, views.StudentRegisterPage(viewmodels.StudentRegisterViewData{
		Layout:     data.Layout,
		AssignedID: registered.StudentID,
	}))
}
