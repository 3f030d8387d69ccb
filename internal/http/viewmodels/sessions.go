package viewmodels

type SessionRow struct {
	ID              string
	StudentID       string
	StudentCustomID string
	Name            string
	Email           string
	StartedAt       string
	EndedAt         string
	Duration        string
	// Resolved is false while the risk flag is absent or pending.
	Resolved bool
	Flagged  bool
}

type SessionsViewData struct {
	Layout    LayoutData
	Query     string
	Rows      []SessionRow
	Pager     Pager
	Page      int
	Resolving bool
	// RowsHref loads the resolved rows for the current window; empty when every flag is known.
	RowsHref string
	LoadedAt string
}

type HighRiskViewData struct {
	Layout LayoutData
	Query  string
	Rows   []SessionRow
	Pager  Pager
	// RowsHref is set while flags are still unknown; the results block loads from it.
	RowsHref string
}

type ModelTypeRow struct {
	Type              string
	Total             int
	TrueCount         int
	FalseCount        int
	AverageConfidence string
}

type BackgroundAppRow struct {
	Name            string
	Path            string
	FirstDetectedAt string
}

type TextSampleRow struct {
	Text       string
	Prediction string
	BadgeClass string
	Confidence string
	Timestamp  string
}

type SessionSummaryViewData struct {
	Layout          LayoutData
	SessionID       string
	StudentCustomID string
	StudentName     string
	DurationMinutes string
	Flagged         bool
	ModelTypes      []ModelTypeRow
	BackgroundApps  []BackgroundAppRow
	CopiedTexts     []TextSampleRow
	TypedTexts      []TextSampleRow
	ErrorMessage    string
	Fragment        bool
}
