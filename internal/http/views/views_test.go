package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
)

func renderViewComponent(t *testing.T, component templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	if err := component.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render component: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, content, want string) {
	t.Helper()
	if !strings.Contains(content, want) {
		t.Fatalf("expected rendered HTML to contain %q", want)
	}
}

func assertNotContains(t *testing.T, content, disallowed string) {
	t.Helper()
	if strings.Contains(content, disallowed) {
		t.Fatalf("expected rendered HTML to not contain %q", disallowed)
	}
}

func TestLayoutEnablesGlobalHTMXBoost(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, Layout(viewmodels.LayoutData{
		Title:     "Dashboard",
		CSRFToken: "csrf-token-123",
	}))

	assertContains(t, html, `hx-boost="true"`)
	assertContains(t, html, `X-CSRF-Token`)
	assertContains(t, html, `csrf-token-123`)
}

func TestLayoutLogoutFormOptsOutOfHTMXBoost(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, Layout(viewmodels.LayoutData{
		Title:     "Dashboard",
		CSRFToken: "csrf-token-123",
		UserEmail: "admin@example.com",
	}))

	assertContains(t, html, `form method="post" action="/logout" hx-boost="false"`)
	assertContains(t, html, `admin@example.com`)
}

func TestLayoutRendersErrorToastAsBlockingDialog(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, Layout(viewmodels.LayoutData{
		Toast: &viewmodels.ToastViewData{Category: "error", Title: "Location not deleted", Description: "Not found"},
	}))
	assertContains(t, html, `role="alertdialog"`)
	assertContains(t, html, `Location not deleted`)

	html = renderViewComponent(t, Layout(viewmodels.LayoutData{
		Toast: &viewmodels.ToastViewData{Category: "success", Title: "Saved"},
	}))
	assertNotContains(t, html, `role="alertdialog"`)
	assertContains(t, html, `role="status"`)
}

func TestSessionsPagePendingRowsLoadThroughHTMX(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, SessionsPage(viewmodels.SessionsViewData{
		Query:    "STU-1",
		RowsHref: "/sessions/rows?page=2",
		Rows: []viewmodels.SessionRow{
			{ID: "s1", StudentID: "u1", StudentCustomID: "STU-1", Name: "Ada"},
		},
	}))

	assertContains(t, html, `hx-get="/sessions/rows?page=2"`)
	assertContains(t, html, `hx-trigger="load"`)
	assertContains(t, html, `data-flag="pending"`)
	assertContains(t, html, `hx-target="#summary-dialog"`)
	assertContains(t, html, `value="STU-1"`)
}

func TestSessionRowsRenderResolvedFlags(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, SessionRows(viewmodels.SessionsViewData{
		Rows: []viewmodels.SessionRow{
			{ID: "s1", Resolved: true, Flagged: true},
			{ID: "s2", Resolved: true},
		},
	}))

	assertContains(t, html, `<tbody id="session-rows">`)
	assertContains(t, html, `data-flag="flagged"`)
	assertContains(t, html, `data-flag="clear"`)
	assertNotContains(t, html, `hx-trigger="load"`)
	assertNotContains(t, html, `<html`)
}

func TestSessionSummaryFragmentOmitsLayout(t *testing.T) {
	t.Parallel()

	data := viewmodels.SessionSummaryViewData{
		SessionID: "abc",
		Flagged:   true,
		Fragment:  true,
		TypedTexts: []viewmodels.TextSampleRow{
			{Text: "hello", Prediction: "ai", BadgeClass: "badge-danger", Confidence: "0.91"},
		},
	}
	html := renderViewComponent(t, SessionSummary(data))
	assertNotContains(t, html, `<html`)
	assertContains(t, html, `Cheating threshold exceeded`)
	assertContains(t, html, `badge-danger`)

	data.Fragment = false
	html = renderViewComponent(t, SessionSummary(data))
	assertContains(t, html, `<html`)
}

func TestSessionSummaryShowsErrorMessage(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, SessionSummary(viewmodels.SessionSummaryViewData{
		SessionID:    "abc",
		Fragment:     true,
		ErrorMessage: "Failed to load summary.",
	}))
	assertContains(t, html, `Failed to load summary.`)
	assertNotContains(t, html, `Detections by model`)
}

func TestPagerMarksCurrentPageAndDisablesEnds(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, BookingsPage(viewmodels.BookingsViewData{
		Pager: viewmodels.Pager{
			Page:       1,
			TotalPages: 3,
			TotalCount: 12,
			Links: []viewmodels.PageLink{
				{Page: 1, Href: "/bookings", Current: true},
				{Page: 2, Href: "/bookings?page=2"},
				{Page: 3, Href: "/bookings?page=3"},
			},
			NextHref: "/bookings?page=2",
		},
	}))

	assertContains(t, html, `aria-current="page">1</span>`)
	assertContains(t, html, `aria-disabled="true">&lsaquo;`)
	assertContains(t, html, `href="/bookings?page=2" aria-label="Next page"`)
}

func TestBookingsPageStatusForm(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, BookingsPage(viewmodels.BookingsViewData{
		Layout:   viewmodels.LayoutData{CSRFToken: "tok"},
		Statuses: []string{"pending", "cancel", "confirm"},
		Rows:     []viewmodels.BookingRow{{ID: "b1", Status: "confirm", Customer: "Guest"}},
	}))

	assertContains(t, html, `action="/bookings/b1/status"`)
	assertContains(t, html, `<option value="confirm" selected>Confirmed</option>`)
	assertContains(t, html, `name="csrf" value="tok"`)
}

func TestPackageFormRendersListButtons(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, PackageFormPage(viewmodels.PackageFormViewData{
		Action:     "/packages/new",
		Highlights: []string{"Sunrise", "Lunch"},
		Include:    []string{""},
	}))

	assertContains(t, html, `enctype="multipart/form-data"`)
	assertContains(t, html, `value="remove:highlights:1"`)
	assertContains(t, html, `value="add:include"`)
	assertContains(t, html, `name="highlights" value="Lunch"`)
}

func TestLocationFormKeepsExistingImages(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, LocationFormPage(viewmodels.LocationFormViewData{
		Editing:             true,
		Action:              "/locations/l1/edit",
		Descriptions:        []string{""},
		ExistingMainImage:   "https://cdn.example.test/main.jpg",
		ExistingOtherImages: []string{"https://cdn.example.test/a.jpg"},
		ErrorMessage:        "Title is required.",
	}))

	assertContains(t, html, `name="existingMainImage" value="https://cdn.example.test/main.jpg"`)
	assertContains(t, html, `value="remove:existingOtherImages:0"`)
	assertContains(t, html, `Title is required.`)
	assertContains(t, html, `Save changes`)
}

func TestStudentRegisterShowsFieldErrors(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, StudentRegisterPage(viewmodels.StudentRegisterViewData{
		FirstName:   "Ada",
		FieldErrors: map[string]string{"password": "Include at least one number."},
	}))
	assertContains(t, html, `data-field-error="password"`)
	assertContains(t, html, `value="Ada"`)
	assertNotContains(t, html, `data-field-error="nameF"`)

	html = renderViewComponent(t, StudentRegisterPage(viewmodels.StudentRegisterViewData{AssignedID: "STU7"}))
	assertContains(t, html, `data-assigned-id="STU7"`)
}

func TestConfirmPagePostsToAction(t *testing.T) {
	t.Parallel()

	html := renderViewComponent(t, ConfirmPage(viewmodels.ConfirmViewData{
		Heading:    "Delete this package?",
		Action:     "/packages/p1/delete",
		CancelHref: "/packages",
	}))
	assertContains(t, html, `action="/packages/p1/delete"`)
	assertContains(t, html, `href="/packages"`)
}

func TestSessionsListURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		refresh bool
		page    int
		want    string
	}{
		{want: "/sessions"},
		{refresh: true, want: "/sessions?refresh=1"},
		{query: "STU 1", page: 2, want: "/sessions?page=2&q=STU+1"},
	}
	for _, tt := range tests {
		if got := SessionsListURL("/sessions", tt.query, tt.refresh, tt.page); got != tt.want {
			t.Fatalf("SessionsListURL(%q, %v, %d) = %q, want %q", tt.query, tt.refresh, tt.page, got, tt.want)
		}
	}
}

func TestSessionSummaryURL(t *testing.T) {
	t.Parallel()

	if got := SessionSummaryURL("s 1", "u&1"); got != "/sessions/s%201/summary?student=u%261" {
		t.Fatalf("SessionSummaryURL() = %q", got)
	}
	if got := SessionSummaryURL("s1", ""); got != "/sessions/s1/summary" {
		t.Fatalf("SessionSummaryURL() = %q", got)
	}
}
