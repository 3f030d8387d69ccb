// Package views renders the dashboard pages. Pages are html/template files embedded in the
// binary and exposed as templ components.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"formatInt":        FormatInt,
	"pathEscape":       PathEscape,
	"queryEscape":      QueryEscape,
	"sessionsURL":      SessionsListURL,
	"summaryURL":       SessionSummaryURL,
	"bookingBadge":     BookingStatusBadgeClass,
	"bookingStatus":    HumanizeBookingStatus,
	"shortID":          ShortIdentifier,
	"alertRole":        AlertRole,
	"alertAriaLive":    AlertAriaLive,
	"ariaCurrent":      AriaCurrent,
	"ariaCurrentExact": AriaCurrentExact,
	"isActive":         IsActivePath,
	"listInputs":       NewListInputs,
}).ParseFS(templateFS, "templates/*.html"))

func page(name string, data any) templ.Component {
	return templ.FromGoHTML(templates.Lookup(name), data)
}

// Layout renders the page shell with an empty body.
func Layout(data viewmodels.LayoutData) templ.Component {
	return page("layout", data)
}

func LoginPage(data viewmodels.LoginViewData) templ.Component {
	return page("login", data)
}

func DashboardPage(data viewmodels.DashboardViewData) templ.Component {
	return page("dashboard", data)
}

func SessionsPage(data viewmodels.SessionsViewData) templ.Component {
	return page("sessions", data)
}

// SessionRows is the table body swapped in once the window's risk flags are resolved.
func SessionRows(data viewmodels.SessionsViewData) templ.Component {
	return page("session_rows", data)
}

func HighRiskPage(data viewmodels.HighRiskViewData) templ.Component {
	return page("high_risk", data)
}

func HighRiskResults(data viewmodels.HighRiskViewData) templ.Component {
	return page("high_risk_results", data)
}

// SessionSummary renders a full page, or only the dialog body when data.Fragment is set.
func SessionSummary(data viewmodels.SessionSummaryViewData) templ.Component {
	return page("session_summary", data)
}

func BookingsPage(data viewmodels.BookingsViewData) templ.Component {
	return page("bookings", data)
}

func InquiriesPage(data viewmodels.InquiriesViewData) templ.Component {
	return page("inquiries", data)
}

func LocationsPage(data viewmodels.LocationsViewData) templ.Component {
	return page("locations", data)
}

func LocationFormPage(data viewmodels.LocationFormViewData) templ.Component {
	return page("location_form", data)
}

func PackagesPage(data viewmodels.PackagesViewData) templ.Component {
	return page("packages", data)
}

func PackageFormPage(data viewmodels.PackageFormViewData) templ.Component {
	return page("package_form", data)
}

func StudentsPage(data viewmodels.StudentsViewData) templ.Component {
	return page("students", data)
}

func StudentRegisterPage(data viewmodels.StudentRegisterViewData) templ.Component {
	return page("student_register", data)
}

// ConfirmPage renders a blocking confirmation dialog for a destructive action.
func ConfirmPage(data viewmodels.ConfirmViewData) templ.Component {
	return page("confirm", data)
}
