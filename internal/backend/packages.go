package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/examwatch/proctor-admin/internal/auth"
)

type Package struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Popular      Text      `json:"popular"`
	Overview     string    `json:"overview"`
	Highlights   ListField `json:"highlights"`
	Include      ListField `json:"include"`
	ActivityType string    `json:"activityType"`
	Price        Text      `json:"price"`
	Days         Text      `json:"days"`
	People       Text      `json:"people"`
	ImgURL       string    `json:"imgurl"`
}

func (p Package) IsPopular() bool {
	return p.Popular == "1" || p.Popular == "true"
}

type PackageInput struct {
	Title        string
	Popular      bool
	Overview     string
	Days         string
	People       string
	ActivityType string
	Price        string
	Highlights   ListField
	Include      ListField
	Image        *Upload
}

func (in PackageInput) form() multipartForm {
	var f multipartForm
	popular := "0"
	if in.Popular {
		popular = "1"
	}
	f.set("title", strings.TrimSpace(in.Title))
	f.set("popular", popular)
	f.set("overview", strings.TrimSpace(in.Overview))
	f.set("days", strings.TrimSpace(in.Days))
	f.set("people", strings.TrimSpace(in.People))
	f.set("activityType", strings.TrimSpace(in.ActivityType))
	f.set("price", strings.TrimSpace(in.Price))
	f.set("highlights", in.Highlights.Join())
	f.set("include", in.Include.Join())
	if in.Image != nil {
		img := *in.Image
		img.Field = "imgurl"
		f.attach(img)
	}
	return f
}

func (c *Client) ListPackages(ctx context.Context, creds auth.Credentials) ([]Package, error) {
	var out []Package
	if err := c.do(ctx, request{operation: "list_packages", method: http.MethodGet, path: "/packages", creds: &creds}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPackage(ctx context.Context, creds auth.Credentials, id string) (Package, error) {
	if strings.TrimSpace(id) == "" {
		return Package{}, errors.New("package id is required")
	}
	var out Package
	if err := c.do(ctx, request{operation: "get_package", method: http.MethodGet, path: "/packages/" + url.PathEscape(id), creds: &creds}, &out); err != nil {
		return Package{}, err
	}
	return out, nil
}

func (c *Client) CreatePackage(ctx context.Context, creds auth.Credentials, in PackageInput) error {
	form := in.form()
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "create_package",
		method:      http.MethodPost,
		path:        "/packages",
		body:        body,
		contentType: contentType,
		creds:       &creds,
	}, nil)
}

func (c *Client) UpdatePackage(ctx context.Context, creds auth.Credentials, id string, in PackageInput) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("package id is required")
	}
	form := in.form()
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "update_package",
		method:      http.MethodPut,
		path:        "/packages/" + url.PathEscape(id),
		body:        body,
		contentType: contentType,
		creds:       &creds,
	}, nil)
}

func (c *Client) DeletePackage(ctx context.Context, creds auth.Credentials, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("package id is required")
	}
	return c.do(ctx, request{operation: "delete_package", method: http.MethodDelete, path: "/packages/" + url.PathEscape(id), creds: &creds}, nil)
}
