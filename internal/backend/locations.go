package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type Location struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Descriptions ListField `json:"descriptions"`
	MainImage    string    `json:"mainimage"`
	OtherImages  []string  `json:"otherimages"`
	MapURL       string    `json:"mapurl"`
}

// LocationInput is a create or update submission. Existing image URLs are kept unless replaced
// by an upload or removed from ExistingOtherImages.
type LocationInput struct {
	Title               string
	MapURL              string
	Descriptions        ListField
	MainImage           *Upload
	OtherImages         []Upload
	ExistingMainImage   string
	ExistingOtherImages []string
}

func (in LocationInput) form(update bool) multipartForm {
	var f multipartForm
	f.set("title", strings.TrimSpace(in.Title))
	f.set("mapurl", strings.TrimSpace(in.MapURL))
	f.set("descriptions", in.Descriptions.Join())
	if in.MainImage != nil {
		main := *in.MainImage
		main.Field = "mainimage"
		f.attach(main)
	}
	for _, u := range in.OtherImages {
		u.Field = "otherimages"
		f.attach(u)
	}
	if update {
		f.set("existingOtherImages", strings.Join(in.ExistingOtherImages, ","))
		if in.ExistingMainImage != "" && (in.MainImage == nil || len(in.MainImage.Content) == 0) {
			f.set("existingMainImage", in.ExistingMainImage)
		}
	}
	return f
}

func (c *Client) ListLocations(ctx context.Context, creds auth.Credentials) ([]Location, error) {
	var out []Location
	if err := c.do(ctx, request{operation: "list_locations", method: http.MethodGet, path: "/locations", creds: &creds}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLocation(ctx context.Context, creds auth.Credentials, id string) (Location, error) {
	if strings.TrimSpace(id) == "" {
		return Location{}, errors.New("location id is required")
	}
	var out Location
	if err := c.do(ctx, request{operation: "get_location", method: http.MethodGet, path: "/locations/" + url.PathEscape(id), creds: &creds}, &out); err != nil {
		return Location{}, err
	}
	return out, nil
}

func (c *Client) CreateLocation(ctx context.Context, creds auth.Credentials, in LocationInput) error {
	form := in.form(false)
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "create_location",
		method:      http.MethodPost,
		path:        "/locations",
		body:        body,
		contentType: contentType,
		creds:       &creds,
	}, nil)
}

func (c *Client) UpdateLocation(ctx context.Context, creds auth.Credentials, id string, in LocationInput) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("location id is required")
	}
	form := in.form(true)
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "update_location",
		method:      http.MethodPut,
		path:        "/locations/" + url.PathEscape(id),
		body:        body,
		contentType: contentType,
		creds:       &creds,
	}, nil)
}

func (c *Client) DeleteLocation(ctx context.Context, creds auth.Credentials, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("location id is required")
	}
	return c.do(ctx, request{operation: "delete_location", method: http.MethodDelete, path: "/locations/" + url.PathEscape(id), creds: &creds}, nil)
}
