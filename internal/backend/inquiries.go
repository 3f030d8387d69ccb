package backend

import (
	"context"
	"net/http"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type CustomInquiry struct {
	ID                 string    `json:"_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	ContactNumber      Text      `json:"contactNumber"`
	VehicleType        string    `json:"vehicleType"`
	PeopleCount        Text      `json:"peopleCount"`
	DateCount          Text      `json:"dateCount"`
	From               Timestamp `json:"from"`
	To                 Timestamp `json:"to"`
	ExpectedHotelRate  Text      `json:"expectedHotelRate"`
	LocationList       ListField `json:"locationList"`
	PreferredLanguages ListField `json:"preferredLanguages"`
	Remark             string    `json:"remark"`
}

func (c *Client) ListCustomInquiries(ctx context.Context, creds auth.Credentials) ([]CustomInquiry, error) {
	var out []CustomInquiry
	if err := c.do(ctx, request{operation: "list_inquiries", method: http.MethodGet, path: "/custom-inquiries", creds: &creds}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
