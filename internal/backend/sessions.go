package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type Session struct {
	ID              string     `json:"_id"`
	StudentID       string     `json:"studentId"`
	StudentCustomID string     `json:"studentCustomId"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	StartedAt       Timestamp  `json:"startedAt"`
	EndedAt         *Timestamp `json:"endedAt,omitempty"`
	Duration        Text       `json:"duration"`
}

// ModelTypeStats and the text samples are display data only; their numbers use Number so an
// odd shape never fails the summary.
type ModelTypeStats struct {
	Total             Number `json:"total"`
	TrueCount         Number `json:"trueCount"`
	FalseCount        Number `json:"falseCount"`
	AverageConfidence Number `json:"averageConfidence"`
}

type BackgroundApp struct {
	Name            string    `json:"name"`
	Path            string    `json:"path"`
	FirstDetectedAt Timestamp `json:"firstDetectedAt"`
}

type TextSample struct {
	Text        string     `json:"text"`
	ModelOutput string     `json:"modelOutput"`
	Confidence  Number     `json:"confidence"`
	Timestamp   *Timestamp `json:"timestamp"`
}

// Prediction normalizes the model output to "ai", "human", or the lowercased raw value.
func (s TextSample) Prediction() string {
	return strings.ToLower(strings.TrimSpace(s.ModelOutput))
}

type SessionSummary struct {
	SessionID                 string                    `json:"sessionId"`
	DurationMinutes           Text                      `json:"durationMinutes"`
	Summary                   map[string]ModelTypeStats `json:"summary"`
	BackgroundApps            []BackgroundApp           `json:"backgroundApps"`
	CopiedTexts               []TextSample              `json:"copiedTexts"`
	TypedTexts                []TextSample              `json:"typedTexts"`
	CheatingThresholdExceeded Flag                      `json:"cheatingThresholdExceeded"`
}

// ModelType is one row of the per-model breakdown.
type ModelType struct {
	Name string
	ModelTypeStats
}

// ModelTypes returns the breakdown sorted by model type name.
func (s SessionSummary) ModelTypes() []ModelType {
	out := make([]ModelType, 0, len(s.Summary))
	for name, stats := range s.Summary {
		out = append(out, ModelType{Name: name, ModelTypeStats: stats})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListSessions lists exam sessions, filtered to one custom student id when studentID is set.
func (c *Client) ListSessions(ctx context.Context, creds auth.Credentials, studentID string) ([]Session, error) {
	var query url.Values
	if studentID = strings.TrimSpace(studentID); studentID != "" {
		query = url.Values{"studentId": []string{studentID}}
	}
	var out []Session
	err := c.do(ctx, request{
		operation: "list_sessions",
		method:    http.MethodGet,
		path:      "/student/getSessionsByCustomStudentId",
		query:     query,
		creds:     &creds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func summaryRequest(operation, sessionID, studentID string, creds *auth.Credentials) (request, error) {
	if sessionID == "" {
		return request{}, errors.New("session id is required")
	}
	body, err := jsonBody(map[string]string{
		"sessionId": sessionID,
		"studentId": strings.TrimSpace(studentID),
	})
	if err != nil {
		return request{}, err
	}
	return request{
		operation:   operation,
		method:      http.MethodPost,
		path:        "/examSession/sessionSummaryByModelType",
		body:        body,
		contentType: "application/json",
		creds:       creds,
	}, nil
}

// SessionSummary fetches the model-type summary of one session. It is never cached.
func (c *Client) SessionSummary(ctx context.Context, creds auth.Credentials, sessionID, studentID string) (SessionSummary, error) {
	sessionID = strings.TrimSpace(sessionID)
	r, err := summaryRequest("session_summary", sessionID, studentID, &creds)
	if err != nil {
		return SessionSummary{}, err
	}
	var out SessionSummary
	if err := c.do(ctx, r, &out); err != nil {
		return SessionSummary{}, err
	}
	if out.SessionID == "" {
		out.SessionID = sessionID
	}
	return out, nil
}

// SessionFlag asks the summary endpoint for one session and decodes only
// cheatingThresholdExceeded, so the display fields of the summary cannot affect the flag.
func (c *Client) SessionFlag(ctx context.Context, creds auth.Credentials, sessionID, studentID string) (bool, error) {
	r, err := summaryRequest("session_flag", strings.TrimSpace(sessionID), studentID, &creds)
	if err != nil {
		return false, err
	}
	var out struct {
		CheatingThresholdExceeded Flag `json:"cheatingThresholdExceeded"`
	}
	if err := c.do(ctx, r, &out); err != nil {
		return false, err
	}
	return bool(out.CheatingThresholdExceeded), nil
}
