package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type BookingStatus string

const (
	BookingPending BookingStatus = "pending"
	BookingCancel  BookingStatus = "cancel"
	BookingConfirm BookingStatus = "confirm"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingCancel, BookingConfirm}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range BookingStatuses {
		if s == status {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", raw)
}

type BookingTour struct {
	Title  string `json:"title"`
	ImgURL string `json:"imgurl"`
}

type BookingUser struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type Booking struct {
	ID            string        `json:"_id"`
	Tour          *BookingTour  `json:"packageid"`
	User          *BookingUser  `json:"userid"`
	ContactEmail  string        `json:"contactemail"`
	ContactNumber Text          `json:"contactnu"`
	TotalPeople   Text          `json:"totalpeople"`
	From          Timestamp     `json:"from"`
	To            Timestamp     `json:"to"`
	TotalDays     Text          `json:"totaldays"`
	TotalPrice    Text          `json:"totalprice"`
	Status        BookingStatus `json:"status"`
}

// CustomerName is the booking user's full name, or "Guest" for anonymous bookings.
func (b Booking) CustomerName() string {
	if b.User == nil {
		return "Guest"
	}
	name := strings.TrimSpace(b.User.FirstName + " " + b.User.LastName)
	if name == "" {
		return "Guest"
	}
	return name
}

func (c *Client) ListBookings(ctx context.Context, creds auth.Credentials) ([]Booking, error) {
	var out []Booking
	if err := c.do(ctx, request{operation: "list_bookings", method: http.MethodGet, path: "/bookings", creds: &creds}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, creds auth.Credentials, id string, status BookingStatus) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("booking id is required")
	}
	body, err := jsonBody(map[string]string{"status": string(status)})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "update_booking_status",
		method:      http.MethodPut,
		path:        "/bookings/" + url.PathEscape(id),
		body:        body,
		contentType: "application/json",
		creds:       &creds,
	}, nil)
}
