package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/risk"
)

type fakeRiskBackend struct {
	sessions   []backend.Session
	flagged    map[string]bool
	listErr    error
	gotStudent string
}

func (f *fakeRiskBackend) ListSessions(_ context.Context, _ auth.Credentials, studentID string) ([]backend.Session, error) {
	f.gotStudent = studentID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions, nil
}

func (f *fakeRiskBackend) SessionFlag(_ context.Context, _ auth.Credentials, sessionID, _ string) (bool, error) {
	return f.flagged[sessionID], nil
}

func riskTestCredentials() auth.Credentials {
	return auth.Credentials{Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
}

func riskTestBackend() *fakeRiskBackend {
	return &fakeRiskBackend{
		sessions: []backend.Session{
			{ID: "s1", StudentID: "u1", StudentCustomID: "STU1", Name: "Ada", Email: "ada@example.com"},
			{ID: "s2", StudentID: "u2", StudentCustomID: "STU2", Name: "Bo", Email: "bo@example.com"},
			{ID: "s3", StudentID: "u3", StudentCustomID: "STU3", Name: "Cy", Email: "cy@example.com"},
		},
		flagged: map[string]bool{"s2": true},
	}
}

func TestWriteRiskReportTable(t *testing.T) {
	fb := riskTestBackend()
	var out bytes.Buffer
	err := writeRiskReport(context.Background(), &out, fb, risk.NewAggregator(fb, nil), riskTestCredentials(), riskReportOptions{StudentID: " u2 "})
	if err != nil {
		t.Fatalf("writeRiskReport() error = %v", err)
	}
	if fb.gotStudent != "u2" {
		t.Fatalf("student filter = %q, want %q", fb.gotStudent, "u2")
	}

	got := out.String()
	if !strings.Contains(got, "SESSION") || !strings.Contains(got, "bo@example.com") {
		t.Fatalf("report missing flagged row: %q", got)
	}
	if strings.Contains(got, "ada@example.com") {
		t.Fatalf("report lists an unflagged session: %q", got)
	}
	if !strings.Contains(got, "1 of 3 sessions flagged.") {
		t.Fatalf("report missing totals: %q", got)
	}
}

func TestWriteRiskReportJSON(t *testing.T) {
	fb := riskTestBackend()
	var out bytes.Buffer
	err := writeRiskReport(context.Background(), &out, fb, risk.NewAggregator(fb, nil), riskTestCredentials(), riskReportOptions{JSON: true})
	if err != nil {
		t.Fatalf("writeRiskReport() error = %v", err)
	}

	var report riskReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if report.Checked != 3 || len(report.Flagged) != 1 || report.Flagged[0].SessionID != "s2" {
		t.Fatalf("report = %+v", report)
	}
}

func TestWriteRiskReportNothingFlagged(t *testing.T) {
	fb := riskTestBackend()
	fb.flagged = nil
	var out bytes.Buffer
	if err := writeRiskReport(context.Background(), &out, fb, risk.NewAggregator(fb, nil), riskTestCredentials(), riskReportOptions{}); err != nil {
		t.Fatalf("writeRiskReport() error = %v", err)
	}
	if got := out.String(); got != "No flagged sessions (3 checked).\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestWriteRiskReportListError(t *testing.T) {
	fb := riskTestBackend()
	fb.listErr = errors.New("backend down")
	err := writeRiskReport(context.Background(), &bytes.Buffer{}, fb, risk.NewAggregator(fb, nil), riskTestCredentials(), riskReportOptions{})
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("error = %v, want backend down", err)
	}
}
