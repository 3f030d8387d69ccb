package viewmodels

type DashboardViewData struct {
	Layout       LayoutData
	StudentCount int
	BookingCount int
	InquiryCount int
}
