package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/config"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/risk"
)

var errBackendDown = errors.New("backend down")

type fakeBackend struct {
	mu sync.Mutex

	sessions    []backend.Session
	sessionsErr error
	flagged     map[string]bool
	summaryErr  error
	flagGate    chan struct{}
	flagStarted chan string

	bookings   []backend.Booking
	inquiries  []backend.CustomInquiry
	locations  []backend.Location
	packages   []backend.Package
	students   []backend.Student
	listErr    error
	mutateErr  error
	registered backend.RegisteredStudent

	listSessionCalls []string
	summaryCalls     []string
	statusUpdates    map[string]backend.BookingStatus
	locationInputs   []backend.LocationInput
	packageInputs    []backend.PackageInput
	deleted          []string
	registrations    []backend.StudentRegistration
}

func (f *fakeBackend) ListSessions(_ context.Context, _ auth.Credentials, studentID string) ([]backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listSessionCalls = append(f.listSessionCalls, studentID)
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	return f.sessions, nil
}

func (f *fakeBackend) SessionSummary(_ context.Context, _ auth.Credentials, sessionID, _ string) (backend.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls = append(f.summaryCalls, sessionID)
	if f.summaryErr != nil {
		return backend.SessionSummary{}, f.summaryErr
	}
	return backend.SessionSummary{
		SessionID:                 sessionID,
		DurationMinutes:           "42",
		CheatingThresholdExceeded: backend.Flag(f.flagged[sessionID]),
	}, nil
}

// SessionFlag records into summaryCalls too: both read the same backend endpoint.
// When flagGate is set the call reports on flagStarted and then waits for the gate to close.
func (f *fakeBackend) SessionFlag(_ context.Context, _ auth.Credentials, sessionID, _ string) (bool, error) {
	f.mu.Lock()
	f.summaryCalls = append(f.summaryCalls, sessionID)
	gate, started := f.flagGate, f.flagStarted
	err, flagged := f.summaryErr, f.flagged[sessionID]
	f.mu.Unlock()

	if gate != nil {
		started <- sessionID
		<-gate
	}
	if err != nil {
		return false, err
	}
	return flagged, nil
}

func (f *fakeBackend) ListBookings(context.Context, auth.Credentials) ([]backend.Booking, error) {
	return f.bookings, f.listErr
}

func (f *fakeBackend) UpdateBookingStatus(_ context.Context, _ auth.Credentials, id string, status backend.BookingStatus) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	if f.statusUpdates == nil {
		f.statusUpdates = map[string]backend.BookingStatus{}
	}
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeBackend) ListCustomInquiries(context.Context, auth.Credentials) ([]backend.CustomInquiry, error) {
	return f.inquiries, f.listErr
}

func (f *fakeBackend) ListLocations(context.Context, auth.Credentials) ([]backend.Location, error) {
	return f.locations, f.listErr
}

func (f *fakeBackend) GetLocation(_ context.Context, _ auth.Credentials, id string) (backend.Location, error) {
	for _, l := range f.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return backend.Location{}, &backend.APIError{Status: http.StatusNotFound, Message: "Location not found"}
}

func (f *fakeBackend) CreateLocation(_ context.Context, _ auth.Credentials, in backend.LocationInput) error {
	f.locationInputs = append(f.locationInputs, in)
	return f.mutateErr
}

func (f *fakeBackend) UpdateLocation(_ context.Context, _ auth.Credentials, _ string, in backend.LocationInput) error {
	f.locationInputs = append(f.locationInputs, in)
	return f.mutateErr
}

func (f *fakeBackend) DeleteLocation(_ context.Context, _ auth.Credentials, id string) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) ListPackages(context.Context, auth.Credentials) ([]backend.Package, error) {
	return f.packages, f.listErr
}

func (f *fakeBackend) GetPackage(_ context.Context, _ auth.Credentials, id string) (backend.Package, error) {
	for _, p := range f.packages {
		if p.ID == id {
			return p, nil
		}
	}
	return backend.Package{}, &backend.APIError{Status: http.StatusNotFound, Message: "Package not found"}
}

func (f *fakeBackend) CreatePackage(_ context.Context, _ auth.Credentials, in backend.PackageInput) error {
	f.packageInputs = append(f.packageInputs, in)
	return f.mutateErr
}

func (f *fakeBackend) UpdatePackage(_ context.Context, _ auth.Credentials, _ string, in backend.PackageInput) error {
	f.packageInputs = append(f.packageInputs, in)
	return f.mutateErr
}

func (f *fakeBackend) DeletePackage(_ context.Context, _ auth.Credentials, id string) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) ListStudents(context.Context, auth.Credentials) ([]backend.Student, error) {
	return f.students, f.listErr
}

func (f *fakeBackend) RegisterStudent(_ context.Context, _ auth.Credentials, reg backend.StudentRegistration) (backend.RegisteredStudent, error) {
	f.registrations = append(f.registrations, reg)
	if f.mutateErr != nil {
		return backend.RegisteredStudent{}, f.mutateErr
	}
	return f.registered, nil
}

func testCredentials() auth.Credentials {
	return auth.Credentials{
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		Principal: auth.Principal{UserID: "u1", Name: "Ada Admin", Email: "ada@example.test", Method: auth.MethodBackend},
	}
}

func testConfig() config.Config {
	return config.Config{SessionsPageSize: 10, StudentsPageSize: 10, TablePageSize: 5}
}

// newTestHandlers loads an empty dashboard session into the request and signs it in.
func newTestHandlers(t *testing.T, c *echo.Context, fb *fakeBackend) *Handlers {
	t.Helper()

	sessions := scs.New()
	sessionCtx, err := sessions.Load(c.Request().Context(), "")
	if err != nil {
		t.Fatalf("sessions.Load() error = %v", err)
	}
	c.SetRequest(c.Request().WithContext(sessionCtx))
	c.Set(authn.ContextKeyCredentials, testCredentials())

	return &Handlers{
		Cfg:      testConfig(),
		Backend:  fb,
		Sessions: sessions,
		Risk:     risk.NewAggregator(fb, nil),
		Boards:   risk.NewMemoryBoards(time.Hour),
	}
}

// withRequest replaces the request on c, keeping the session context loaded by newTestHandlers.
func withRequest(c *echo.Context, req *http.Request) {
	c.SetRequest(req.WithContext(c.Request().Context()))
}

func newRecorderContext(req *http.Request) (*echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
