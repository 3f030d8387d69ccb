package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
	"github.com/examwatch/proctor-admin/internal/metrics"
	"github.com/examwatch/proctor-admin/internal/risk"
)

type boardLoad struct {
	board    risk.Board
	reloaded bool
	notice   string
}

// currentBoard returns this dashboard session's board. The collection is fetched again, and
// its flags discarded, until one load has succeeded, when the search term changes, or when
// refresh is asked for.
// done reports that the response was already written.
func (h *Handlers) currentBoard(c *echo.Context) (load boardLoad, done bool, err error) {
	ctx := c.Request().Context()
	boardID := authn.BoardID(ctx, h.Sessions)

	board, err := h.Boards.Get(ctx, boardID)
	found := err == nil
	if err != nil && !errors.Is(err, risk.ErrBoardNotFound) {
		return boardLoad{}, true, h.RenderError(c, err)
	}
	if !found {
		board = risk.Board{ID: boardID}
	}

	query := c.Request().URL.Query()
	term := strings.TrimSpace(query.Get("q"))
	hasTerm := query.Has("q")

	reason := ""
	switch {
	case !found || board.LoadedAt.IsZero():
		reason = "initial"
	case hasTerm && term != board.Query:
		reason = "search"
	case ParseBoolForm(query.Get("refresh")):
		reason = "refresh"
	}
	if reason == "" {
		return boardLoad{board: board}, false, nil
	}
	if !hasTerm {
		term = board.Query
	}

	sessions, err := h.Backend.ListSessions(ctx, h.credentials(c), term)
	if err != nil {
		if answered, err := h.listFailed(c, "sessions", err); answered {
			return boardLoad{}, true, err
		}
		return boardLoad{board: board, notice: "Could not load sessions. Showing the last loaded results."}, false, nil
	}
	board, err = h.Boards.Reset(ctx, boardID, term, sessions)
	if err != nil {
		return boardLoad{}, true, h.RenderError(c, err)
	}
	metrics.BoardResetsTotal.WithLabelValues(reason).Inc()
	return boardLoad{board: board, reloaded: true}, false, nil
}

func (h *Handlers) HandleSessions(c *echo.Context) error {
	load, done, err := h.currentBoard(c)
	if done {
		return err
	}
	ctx := c.Request().Context()
	board := load.board

	window, pager := pageSlice(c, board.Sessions, h.Cfg.SessionsPageSize)
	known, err := h.Boards.Flags(board.ID).Lookup(ctx, sessionIDs(window))
	if err != nil {
		return h.RenderError(c, err)
	}

	layout := h.LayoutData(c, "Exam Sessions")
	layout.Notice = load.notice
	data := viewmodels.SessionsViewData{
		Layout:    layout,
		Query:     board.Query,
		Rows:      sessionRows(window, known),
		Pager:     pager,
		Page:      pager.Page,
		Resolving: h.Risk.ResolvingAny(sessionIDs(board.Sessions)),
		LoadedAt:  formatLoadedAt(board),
	}
	if len(known) < len(data.Rows) {
		data.RowsHref = "/sessions/rows?page=" + strconv.Itoa(pager.Page)
	}
	return h.RenderComponent(c, views.SessionsPage(data))
}

// HandleSessionRows resolves the flags of one window and returns the table body.
func (h *Handlers) HandleSessionRows(c *echo.Context) error {
	ctx := c.Request().Context()
	addVary(c, "HX-Request")

	boardID := authn.BoardID(ctx, h.Sessions)
	board, err := h.Boards.Get(ctx, boardID)
	if err != nil && !errors.Is(err, risk.ErrBoardNotFound) {
		return h.RenderError(c, err)
	}
	board.ID = boardID
	window, pager := pageSlice(c, board.Sessions, h.Cfg.SessionsPageSize)

	res, err := h.Risk.EnsureFlags(ctx, h.credentials(c), window, h.Boards.Flags(board.ID))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		return h.RenderError(c, err)
	}
	if res.Requested > 0 {
		RequestLogger(c).Debug("risk flags resolved",
			"board_id", board.ID,
			"page", pager.Page,
			"requested", res.Requested,
			"failed", res.Failed,
		)
	}

	return h.RenderComponent(c, views.SessionRows(viewmodels.SessionsViewData{
		Rows: sessionRows(window, res.Flags),
		Page: pager.Page,
	}))
}

// HandleHighRisk renders the flagged sessions straight away when every flag of the board is
// known. Otherwise the page carries a placeholder that loads HandleHighRiskRows.
func (h *Handlers) HandleHighRisk(c *echo.Context) error {
	load, done, err := h.currentBoard(c)
	if done {
		return err
	}
	board := load.board

	known, err := h.Boards.Flags(board.ID).Lookup(c.Request().Context(), sessionIDs(board.Sessions))
	if err != nil {
		return h.RenderError(c, err)
	}

	layout := h.LayoutData(c, "High-Risk Sessions")
	layout.Notice = load.notice
	data := viewmodels.HighRiskViewData{
		Layout: layout,
		Query:  board.Query,
	}
	if len(known) < len(board.Sessions) {
		data.RowsHref = "/sessions/high-risk/rows?page=" + strconv.Itoa(parsePageParam(c))
		return h.RenderComponent(c, views.HighRiskPage(data))
	}
	data.Rows, data.Pager = highRiskWindow(c, flaggedOnly(board.Sessions, known), h.Cfg.SessionsPageSize)
	return h.RenderComponent(c, views.HighRiskPage(data))
}

// HandleHighRiskRows resolves every flag of the board and returns the results block.
func (h *Handlers) HandleHighRiskRows(c *echo.Context) error {
	ctx := c.Request().Context()
	addVary(c, "HX-Request")

	boardID := authn.BoardID(ctx, h.Sessions)
	board, err := h.Boards.Get(ctx, boardID)
	if err != nil && !errors.Is(err, risk.ErrBoardNotFound) {
		return h.RenderError(c, err)
	}
	board.ID = boardID

	flagged, err := h.Risk.Flagged(ctx, h.credentials(c), board.Sessions, h.Boards.Flags(board.ID))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		return h.RenderError(c, err)
	}

	data := viewmodels.HighRiskViewData{Query: board.Query}
	data.Rows, data.Pager = highRiskWindow(c, flagged, h.Cfg.SessionsPageSize)
	return h.RenderComponent(c, views.HighRiskResults(data))
}

// highRiskWindow pages the flagged sessions. Pager links always point at the full page.
func highRiskWindow(c *echo.Context, flagged []backend.Session, perPage int) ([]viewmodels.SessionRow, viewmodels.Pager) {
	pager, offset := buildPager("/sessions/high-risk", c.Request().URL.Query(), len(flagged), parsePageParam(c), perPage)
	var window []backend.Session
	if offset < len(flagged) {
		window = flagged[offset:min(offset+perPage, len(flagged))]
	}
	flags := make(map[string]bool, len(window))
	for _, s := range window {
		flags[s.ID] = true
	}
	return sessionRows(window, flags), pager
}

func flaggedOnly(sessions []backend.Session, flags map[string]bool) []backend.Session {
	out := make([]backend.Session, 0)
	for _, s := range sessions {
		if flags[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// HandleSessionSummary always fetches a fresh summary; summaries are never cached.
func (h *Handlers) HandleSessionSummary(c *echo.Context) error {
	ctx := c.Request().Context()
	addVary(c, "HX-Request", "HX-Target")

	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		return RenderNotFound(c)
	}
	studentID := strings.TrimSpace(c.QueryParam("student"))

	var session backend.Session
	if board, err := h.Boards.Get(ctx, authn.BoardID(ctx, h.Sessions)); err == nil {
		for _, s := range board.Sessions {
			if s.ID == sessionID {
				session = s
				break
			}
		}
	}
	if studentID == "" {
		studentID = session.StudentID
	}

	data := viewmodels.SessionSummaryViewData{
		SessionID:       sessionID,
		StudentCustomID: session.StudentCustomID,
		StudentName:     session.Name,
		Fragment:        isHX(c) && isHXTarget(c, "summary-dialog"),
	}
	if !data.Fragment {
		data.Layout = h.LayoutData(c, "Session Summary")
	}

	summary, err := h.Backend.SessionSummary(ctx, h.credentials(c), sessionID, studentID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		RequestLogger(c).Warn("session summary failed", "session_id", sessionID, "error", err)
		data.ErrorMessage = "Failed to load summary."
		return h.RenderComponent(c, views.SessionSummary(data))
	}
	fillSummary(&data, summary)
	return h.RenderComponent(c, views.SessionSummary(data))
}

type flagsResponse struct {
	BoardID   string          `json:"board_id"`
	Query     string          `json:"query"`
	LoadedAt  string          `json:"loaded_at,omitempty"`
	Resolving bool            `json:"resolving"`
	Sessions  int             `json:"sessions"`
	Flags     map[string]bool `json:"flags"`
	Pending   []string        `json:"pending"`
}

// HandleSessionFlagsAPI exposes the board's flag cache as JSON.
func (h *Handlers) HandleSessionFlagsAPI(c *echo.Context) error {
	ctx := c.Request().Context()
	boardID := authn.BoardID(ctx, h.Sessions)
	board, err := h.Boards.Get(ctx, boardID)
	if err != nil && !errors.Is(err, risk.ErrBoardNotFound) {
		return h.RenderError(c, err)
	}
	board.ID = boardID

	cache := h.Boards.Flags(board.ID)
	flags, err := cache.Lookup(ctx, sessionIDs(board.Sessions))
	if err != nil {
		return h.RenderError(c, err)
	}
	pending := make([]string, 0)
	for _, s := range board.Sessions {
		if _, ok := flags[s.ID]; ok {
			continue
		}
		state, _, err := h.Risk.State(ctx, cache, s.ID)
		if err != nil {
			return h.RenderError(c, err)
		}
		if state == risk.FlagPending {
			pending = append(pending, s.ID)
		}
	}

	resp := flagsResponse{
		BoardID:   board.ID,
		Query:     board.Query,
		Resolving: h.Risk.ResolvingAny(sessionIDs(board.Sessions)),
		Sessions:  len(board.Sessions),
		Flags:     flags,
		Pending:   pending,
	}
	if !board.LoadedAt.IsZero() {
		resp.LoadedAt = board.LoadedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

func sessionIDs(sessions []backend.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

func sessionRows(sessions []backend.Session, flags map[string]bool) []viewmodels.SessionRow {
	rows := make([]viewmodels.SessionRow, 0, len(sessions))
	for _, s := range sessions {
		flagged, resolved := flags[s.ID]
		rows = append(rows, viewmodels.SessionRow{
			ID:              s.ID,
			StudentID:       s.StudentID,
			StudentCustomID: orDash(s.StudentCustomID),
			Name:            orDash(s.Name),
			Email:           orDash(s.Email),
			StartedAt:       formatTime(s.StartedAt),
			EndedAt:         formatOptionalTime(s.EndedAt),
			Duration:        orDash(s.Duration.String()),
			Resolved:        resolved,
			Flagged:         flagged,
		})
	}
	return rows
}

func formatLoadedAt(board risk.Board) string {
	if board.LoadedAt.IsZero() {
		return ""
	}
	return board.LoadedAt.Local().Format(displayTimeLayout)
}

func fillSummary(data *viewmodels.SessionSummaryViewData, summary backend.SessionSummary) {
	data.DurationMinutes = orDash(summary.DurationMinutes.String())
	data.Flagged = bool(summary.CheatingThresholdExceeded)
	for _, mt := range summary.ModelTypes() {
		data.ModelTypes = append(data.ModelTypes, viewmodels.ModelTypeRow{
			Type:              mt.Name,
			Total:             mt.Total.Int(),
			TrueCount:         mt.TrueCount.Int(),
			FalseCount:        mt.FalseCount.Int(),
			AverageConfidence: formatConfidence(mt.AverageConfidence),
		})
	}
	for _, app := range summary.BackgroundApps {
		data.BackgroundApps = append(data.BackgroundApps, viewmodels.BackgroundAppRow{
			Name:            app.Name,
			Path:            app.Path,
			FirstDetectedAt: formatTime(app.FirstDetectedAt),
		})
	}
	data.CopiedTexts = textRows(summary.CopiedTexts)
	data.TypedTexts = textRows(summary.TypedTexts)
}

func textRows(samples []backend.TextSample) []viewmodels.TextSampleRow {
	rows := make([]viewmodels.TextSampleRow, 0, len(samples))
	for _, s := range samples {
		pred := s.Prediction()
		badge := "badge-secondary"
		switch pred {
		case "ai":
			badge = "badge-danger"
		case "human":
			badge = "badge-success"
		}
		if pred == "" {
			pred = "unknown"
		}
		rows = append(rows, viewmodels.TextSampleRow{
			Text:       s.Text,
			Prediction: pred,
			BadgeClass: badge,
			Confidence: formatConfidence(s.Confidence),
			Timestamp:  formatOptionalTime(s.Timestamp),
		})
	}
	return rows
}

func formatConfidence(v backend.Number) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.Value)
}
