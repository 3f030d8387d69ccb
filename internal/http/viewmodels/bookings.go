package viewmodels

type BookingRow struct {
	ID            string
	TourTitle     string
	TourImage     string
	Customer      string
	ContactEmail  string
	ContactNumber string
	TotalPeople   string
	From          string
	To            string
	TotalDays     string
	TotalPrice    string
	Status        string
}

type BookingsViewData struct {
	Layout   LayoutData
	Rows     []BookingRow
	Pager    Pager
	Statuses []string
}
