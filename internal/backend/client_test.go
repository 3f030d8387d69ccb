package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func testClient(t *testing.T, rt roundTripperFunc) *Client {
	t.Helper()
	c, err := New("https://backend.example.test/api/", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.HTTP.Transport = rt
	c.Now = func() time.Time { return testNow }
	return c
}

func validCreds() auth.Credentials {
	return auth.Credentials{Token: "tok-123", ExpiresAt: testNow.Add(time.Hour)}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  ", time.Second); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	c, err := New("https://backend.example.test/", 0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if c.BaseURL != "https://backend.example.test" {
		t.Fatalf("BaseURL = %q", c.BaseURL)
	}
	if c.HTTP.Timeout != defaultTimeout {
		t.Fatalf("Timeout = %s, want %s", c.HTTP.Timeout, defaultTimeout)
	}
}

func TestListSessionsAttachesBearerAndFilter(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/student/getSessionsByCustomStudentId" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		if got := req.URL.Query().Get("studentId"); got != "STUE1A4" {
			t.Fatalf("studentId = %q", got)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("Authorization = %q", got)
		}
		return jsonResponse(req, http.StatusOK, `[
			{"_id":"s1","studentId":"st1","studentCustomId":"STUE1A4","name":"Ann","email":"ann@example.com","startedAt":"2026-05-01T08:00:00Z","endedAt":null,"duration":null},
			{"_id":"s2","studentId":"st1","studentCustomId":"STUE1A4","name":"Ann","email":"ann@example.com","startedAt":"2026-05-02T08:00:00Z","endedAt":"2026-05-02T09:00:00Z","duration":3600}
		]`), nil
	})

	sessions, err := c.ListSessions(context.Background(), validCreds(), " STUE1A4 ")
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].EndedAt != nil && !sessions[0].EndedAt.IsZero() {
		t.Fatalf("expected no end time for s1, got %v", sessions[0].EndedAt)
	}
	if sessions[1].Duration != "3600" || sessions[1].EndedAt == nil {
		t.Fatalf("unexpected session[1]: %#v", sessions[1])
	}
}

func TestListSessionsOmitsEmptyFilter(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.RawQuery != "" {
			t.Fatalf("expected no query, got %q", req.URL.RawQuery)
		}
		return jsonResponse(req, http.StatusOK, `[]`), nil
	})
	if _, err := c.ListSessions(context.Background(), validCreds(), ""); err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
}

func TestExpiredCredentialsNeverReachTheNetwork(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("request issued with expired credentials")
		return nil, nil
	})
	expired := auth.Credentials{Token: "tok", ExpiresAt: testNow.Add(-time.Second)}

	_, err := c.ListBookings(context.Background(), expired)
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestBackend401MapsToUnauthenticated(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusUnauthorized, `{"message":"jwt expired"}`), nil
	})

	_, err := c.ListLocations(context.Background(), validCreds())
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "jwt expired" {
		t.Fatalf("expected APIError with message, got %#v", err)
	}
}

func TestAPIErrorMessageExtraction(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusBadRequest, `{"error":"Email already registered"}`), nil
	})

	_, err := c.RegisterStudent(context.Background(), validCreds(), StudentRegistration{Email: "a@b.co"})
	if errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatal("400 must not map to ErrUnauthenticated")
	}
	if got := UserMessage(err, "fallback"); got != "Email already registered" {
		t.Fatalf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("dial tcp: refused"), "fallback"); got != "fallback" {
		t.Fatalf("UserMessage for transport error = %q", got)
	}
}

func TestSessionSummaryDecodes(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || req.URL.Path != "/api/examSession/sessionSummaryByModelType" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		raw, _ := io.ReadAll(req.Body)
		if !strings.Contains(string(raw), `"sessionId":"s1"`) || !strings.Contains(string(raw), `"studentId":"st1"`) {
			t.Fatalf("unexpected body %s", raw)
		}
		return jsonResponse(req, http.StatusOK, `{
			"sessionId":"s1","durationMinutes":42,
			"summary":{"typing":{"total":10,"trueCount":7,"falseCount":3,"averageConfidence":0.81},"audio":{"total":2,"trueCount":0,"falseCount":2}},
			"backgroundApps":[{"name":"chrome","path":"C:\\chrome.exe","firstDetectedAt":"2026-05-01T08:05:00Z"}],
			"copiedTexts":[{"text":"lorem","modelOutput":"AI","confidence":0.93,"timestamp":"2026-05-01T08:06:00Z"}],
			"typedTexts":[{"text":"ipsum","modelOutput":"human"}],
			"cheatingThresholdExceeded":true
		}`), nil
	})

	summary, err := c.SessionSummary(context.Background(), validCreds(), "s1", "st1")
	if err != nil {
		t.Fatalf("SessionSummary error: %v", err)
	}
	if !summary.CheatingThresholdExceeded || summary.DurationMinutes != "42" {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	types := summary.ModelTypes()
	if len(types) != 2 || types[0].Name != "audio" || !types[1].AverageConfidence.Valid || types[1].Total.Int() != 10 {
		t.Fatalf("unexpected model types: %#v", types)
	}
	if summary.CopiedTexts[0].Prediction() != "ai" || summary.TypedTexts[0].Confidence.Valid {
		t.Fatalf("unexpected texts: %#v %#v", summary.CopiedTexts, summary.TypedTexts)
	}
}

func TestSessionSummaryToleratesOddDisplayFields(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(req, http.StatusOK, `{
			"summary":{"typing":{"total":3.0,"trueCount":"2","falseCount":null,"averageConfidence":"0.87"}},
			"backgroundApps":[{"name":"chrome","firstDetectedAt":1714550700000}],
			"copiedTexts":[{"text":"lorem","modelOutput":"AI","confidence":"high"}],
			"cheatingThresholdExceeded":1
		}`), nil
	})

	summary, err := c.SessionSummary(context.Background(), validCreds(), "s1", "st1")
	if err != nil {
		t.Fatalf("SessionSummary error: %v", err)
	}
	if !summary.CheatingThresholdExceeded {
		t.Fatal("expected flag from a truthy number")
	}
	typing := summary.Summary["typing"]
	if typing.Total.Int() != 3 || typing.TrueCount.Int() != 2 || typing.FalseCount.Valid {
		t.Fatalf("unexpected counts: %#v", typing)
	}
	if !typing.AverageConfidence.Valid || typing.AverageConfidence.Value != 0.87 {
		t.Fatalf("unexpected average confidence: %#v", typing.AverageConfidence)
	}
	if got := summary.BackgroundApps[0].FirstDetectedAt.UTC(); !got.Equal(time.UnixMilli(1714550700000).UTC()) {
		t.Fatalf("FirstDetectedAt = %s", got)
	}
	if summary.CopiedTexts[0].Confidence.Valid {
		t.Fatalf("non-numeric confidence decoded as %#v", summary.CopiedTexts[0].Confidence)
	}
}

func TestSessionFlagReadsOnlyTheFlag(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "true", body: `{"cheatingThresholdExceeded":true}`, want: true},
		{name: "false", body: `{"cheatingThresholdExceeded":false}`, want: false},
		{name: "missing", body: `{"sessionId":"s1"}`, want: false},
		{name: "null", body: `{"cheatingThresholdExceeded":null}`, want: false},
		{name: "one", body: `{"cheatingThresholdExceeded":1}`, want: true},
		{name: "zero", body: `{"cheatingThresholdExceeded":0}`, want: false},
		{name: "string", body: `{"cheatingThresholdExceeded":"yes"}`, want: true},
		{name: "empty_string", body: `{"cheatingThresholdExceeded":""}`, want: false},
		{name: "odd_side_fields", body: `{"summary":{"typing":{"total":"many","averageConfidence":{}}},"backgroundApps":"n/a","cheatingThresholdExceeded":true}`, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testClient(t, func(req *http.Request) (*http.Response, error) {
				if req.Method != http.MethodPost || req.URL.Path != "/api/examSession/sessionSummaryByModelType" {
					t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
				}
				return jsonResponse(req, http.StatusOK, tc.body), nil
			})
			got, err := c.SessionFlag(context.Background(), validCreds(), "s1", "st1")
			if err != nil {
				t.Fatalf("SessionFlag error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("SessionFlag = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionFlagRequiresSessionID(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := c.SessionFlag(context.Background(), validCreds(), "  ", "st1"); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestUpdateLocationSendsMultipart(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPut || req.URL.Path != "/api/locations/loc-1" {
			t.Fatalf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("unexpected content type %q", req.Header.Get("Content-Type"))
		}
		form, err := multipart.NewReader(req.Body, params["boundary"]).ReadForm(1 << 20)
		if err != nil {
			t.Fatalf("ReadForm error: %v", err)
		}
		if got := form.Value["descriptions"]; len(got) != 1 || got[0] != "first|second" {
			t.Fatalf("descriptions = %v", got)
		}
		if got := form.Value["existingOtherImages"]; len(got) != 1 || got[0] != "https://img/a.png,https://img/c.png" {
			t.Fatalf("existingOtherImages = %v", got)
		}
		if got := form.Value["existingMainImage"]; len(got) != 1 || got[0] != "https://img/main.png" {
			t.Fatalf("existingMainImage = %v", got)
		}
		if files := form.File["otherimages"]; len(files) != 1 || files[0].Filename != "new.png" {
			t.Fatalf("otherimages = %v", files)
		}
		if len(form.File["mainimage"]) != 0 {
			t.Fatal("mainimage must not be sent when not replaced")
		}
		return jsonResponse(req, http.StatusOK, `{"message":"updated"}`), nil
	})

	err := c.UpdateLocation(context.Background(), validCreds(), "loc-1", LocationInput{
		Title:               "Ella",
		Descriptions:        ListField{" first ", "", "second"},
		OtherImages:         []Upload{{FileName: "new.png", ContentType: "image/png", Content: []byte("png")}},
		ExistingMainImage:   "https://img/main.png",
		ExistingOtherImages: []string{"https://img/a.png", "https://img/c.png"},
	})
	if err != nil {
		t.Fatalf("UpdateLocation error: %v", err)
	}
}

func TestCreatePackageSerializesLists(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm error: %v", err)
		}
		if req.FormValue("highlights") != "Sunrise|Tea estate" || req.FormValue("include") != "Meals" || req.FormValue("popular") != "1" {
			t.Fatalf("unexpected form %v", req.MultipartForm.Value)
		}
		if files := req.MultipartForm.File["imgurl"]; len(files) != 1 {
			t.Fatalf("expected one image, got %d", len(files))
		}
		return jsonResponse(req, http.StatusCreated, `{"message":"Package added"}`), nil
	})

	err := c.CreatePackage(context.Background(), validCreds(), PackageInput{
		Title:      "Hill country",
		Popular:    true,
		Highlights: ListField{"Sunrise", "Tea estate"},
		Include:    ListField{"Meals"},
		Image:      &Upload{FileName: "hill.jpg", Content: []byte("jpg")},
	})
	if err != nil {
		t.Fatalf("CreatePackage error: %v", err)
	}
}

func TestLoginIsUnauthenticated(t *testing.T) {
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "" {
			t.Fatal("login must not send a bearer token")
		}
		return jsonResponse(req, http.StatusOK, `{"token":"abc","user":{"_id":"u1","firstname":"Ada","lastname":"L","usertype":99}}`), nil
	})

	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.Token != "abc" || res.User.UserType != 99 {
		t.Fatalf("unexpected login result: %#v", res)
	}
}

func TestLoginSendsEmailAsTyped(t *testing.T) {
	var got map[string]string
	c := testClient(t, func(req *http.Request) (*http.Response, error) {
		if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
			t.Fatalf("decode login body: %v", err)
		}
		return jsonResponse(req, http.StatusOK, `{"token":"abc","user":{"_id":"u1","usertype":99}}`), nil
	})

	if _, err := c.Login(context.Background(), "  Ada.Lovelace@Example.COM ", "pw"); err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got["email"] != "Ada.Lovelace@Example.COM" {
		t.Fatalf("login email = %q, want case preserved", got["email"])
	}
}

func TestBookingHelpers(t *testing.T) {
	if _, err := ParseBookingStatus("Confirm"); err != nil {
		t.Fatalf("ParseBookingStatus error: %v", err)
	}
	if _, err := ParseBookingStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if got := (Booking{}).CustomerName(); got != "Guest" {
		t.Fatalf("CustomerName = %q", got)
	}
}

func TestStudentRegistrationValidate(t *testing.T) {
	reg := StudentRegistration{FirstName: "A", LastName: "B", Email: "a@b.co", Password: "Passw0rd", ConfirmPassword: "Passw0rd"}
	if errs := reg.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	cases := map[string]string{
		"short":    "Password must be at least 8 characters.",
		"password": "Include at least one uppercase letter.",
		"PASSWORD": "Include at least one lowercase letter.",
		"Password": "Include at least one number.",
	}
	for pw, want := range cases {
		if got := PasswordProblem(pw); got != want {
			t.Fatalf("PasswordProblem(%q) = %q, want %q", pw, got, want)
		}
	}

	bad := StudentRegistration{Email: "nope", Password: "Passw0rd", ConfirmPassword: "other"}
	errs := bad.Validate()
	for _, field := range []string{"nameF", "nameL", "email", "confirmPassword"} {
		if errs[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}
}
