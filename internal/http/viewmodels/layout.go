package viewmodels

type LayoutData struct {
	Title      string
	CSRFToken  string
	UserName   string
	UserEmail  string
	Toast      *ToastViewData
	ActivePath string
	// Notice is a non-blocking message, e.g. a list that failed to load.
	Notice string
}

// ToastViewData is a flash message. Toasts with category "error" render as a blocking dialog.
type ToastViewData struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (t *ToastViewData) Blocking() bool {
	return t != nil && t.Category == "error"
}
