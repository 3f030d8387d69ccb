package views

import (
	"net/url"
	"strconv"
	"strings"
)

func FormatInt(v int) string {
	return strconv.Itoa(v)
}

func QueryEscape(v string) string {
	return url.QueryEscape(v)
}

func PathEscape(v string) string {
	return url.PathEscape(strings.TrimSpace(v))
}

// SessionsListURL builds a sessions list URL. refresh asks the server to fetch the collection again.
func SessionsListURL(baseHref, query string, refresh bool, page int) string {
	values := url.Values{}
	if query = strings.TrimSpace(query); query != "" {
		values.Set("q", query)
	}
	if refresh {
		values.Set("refresh", "1")
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if len(values) == 0 {
		return baseHref
	}
	return baseHref + "?" + values.Encode()
}

// SessionSummaryURL is the fragment URL of one session's summary.
func SessionSummaryURL(sessionID, studentID string) string {
	href := "/sessions/" + PathEscape(sessionID) + "/summary"
	if studentID = strings.TrimSpace(studentID); studentID != "" {
		href += "?student=" + url.QueryEscape(studentID)
	}
	return href
}

func BookingStatusBadgeClass(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm":
		return "badge bg-emerald-100 text-emerald-800 dark:bg-emerald-900/50 dark:text-emerald-100"
	case "cancel":
		return "badge bg-rose-100 text-rose-800 dark:bg-rose-900/50 dark:text-rose-100"
	case "pending":
		return "badge bg-amber-100 text-amber-800 dark:bg-amber-900/50 dark:text-amber-100"
	default:
		return "badge-outline"
	}
}

func HumanizeBookingStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm":
		return "Confirmed"
	case "cancel":
		return "Cancelled"
	case "pending":
		return "Pending"
	default:
		status = strings.TrimSpace(status)
		if status == "" {
			return "-"
		}
		return status
	}
}

func ShortIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" {
		return "-"
	}

	runes := []rune(value)
	if len(runes) <= 18 {
		return value
	}

	return string(runes[:8]) + "..." + string(runes[len(runes)-6:])
}

func AlertRole(destructive bool) string {
	if destructive {
		return "alert"
	}
	return "status"
}

func AlertAriaLive(destructive bool) string {
	if destructive {
		return "assertive"
	}
	return "polite"
}

func IsActivePath(activePath, target string) bool {
	activePath = strings.TrimSpace(activePath)
	target = strings.TrimSpace(target)
	if target == "/" {
		return activePath == "/"
	}
	return activePath == target || strings.HasPrefix(activePath, target+"/")
}

func AriaCurrent(activePath, target string) string {
	if IsActivePath(activePath, target) {
		return "page"
	}
	return ""
}

// AriaCurrentExact marks target current only on an exact path match.
func AriaCurrentExact(activePath, target string) string {
	if strings.TrimSpace(activePath) == strings.TrimSpace(target) {
		return "page"
	}
	return ""
}

// ListInputs describes a growable list of text inputs sharing one form field name.
type ListInputs struct {
	Field string
	Label string
	Items []string
}

func NewListInputs(field, label string, items []string) ListInputs {
	return ListInputs{Field: field, Label: label, Items: items}
}
