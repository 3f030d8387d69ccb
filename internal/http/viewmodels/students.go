package viewmodels

type StudentRow struct {
	ID           string
	StudentID    string
	Name         string
	Email        string
	CreatedAt    string
	SessionCount int
}

type StudentsViewData struct {
	Layout LayoutData
	Rows   []StudentRow
	Pager  Pager
}

type StudentRegisterViewData struct {
	Layout       LayoutData
	FirstName    string
	LastName     string
	Email        string
	FieldErrors  map[string]string
	ErrorMessage string
	AssignedID   string
}

// ConfirmViewData backs a blocking confirmation dialog for a destructive action.
type ConfirmViewData struct {
	Layout     LayoutData
	Heading    string
	Message    string
	Action     string
	CancelHref string
}
