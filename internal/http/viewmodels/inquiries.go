package viewmodels

type InquiryRow struct {
	ID                 string
	Name               string
	Email              string
	ContactNumber      string
	VehicleType        string
	PeopleCount        string
	DateCount          string
	From               string
	To                 string
	ExpectedHotelRate  string
	LocationList       string
	PreferredLanguages string
	Remark             string
}

type InquiriesViewData struct {
	Layout LayoutData
	Rows   []InquiryRow
	Pager  Pager
}
