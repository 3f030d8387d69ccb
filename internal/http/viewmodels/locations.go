package viewmodels

type LocationRow struct {
	ID           string
	Title        string
	MainImage    string
	MapURL       string
	Descriptions []string
	OtherImages  int
}

type LocationsViewData struct {
	Layout LayoutData
	Rows   []LocationRow
	Pager  Pager
}

type LocationFormViewData struct {
	Layout              LayoutData
	Editing             bool
	ID                  string
	Action              string
	Title               string
	MapURL              string
	Descriptions        []string
	ExistingMainImage   string
	ExistingOtherImages []string
	ErrorMessage        string
}
