package viewmodels

type PackageRow struct {
	ID           string
	Title        string
	ImgURL       string
	Popular      bool
	ActivityType string
	Price        string
	Days         string
	People       string
	Highlights   []string
}

type PackagesViewData struct {
	Layout LayoutData
	Rows   []PackageRow
	Pager  Pager
}

type PackageFormViewData struct {
	Layout        LayoutData
	Editing       bool
	ID            string
	Action        string
	Title         string
	Popular       bool
	Overview      string
	Days          string
	People        string
	ActivityType  string
	Price         string
	Highlights    []string
	Include       []string
	ExistingImage string
	ErrorMessage  string
}
