package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/backend"
)

const (
	maxUploadMemory = 32 << 20
	maxUploadBytes  = 10 << 20
)

// formUploads reads the files posted under field. Missing or empty file inputs yield no uploads.
func formUploads(c *echo.Context, field string) ([]backend.Upload, error) {
	form := c.Request().MultipartForm
	if form == nil {
		return nil, nil
	}
	var out []backend.Upload
	for _, fh := range form.File[field] {
		u, err := readUpload(field, fh)
		if err != nil {
			return nil, err
		}
		if len(u.Content) == 0 {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// formUpload returns the first file posted under field, or nil.
func formUpload(c *echo.Context, field string) (*backend.Upload, error) {
	uploads, err := formUploads(c, field)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return &uploads[0], nil
}

func readUpload(field string, fh *multipart.FileHeader) (backend.Upload, error) {
	if fh.Size > maxUploadBytes {
		return backend.Upload{}, fmt.Errorf("%s is larger than %d MB", fh.Filename, maxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return backend.Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return backend.Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	if len(content) > maxUploadBytes {
		return backend.Upload{}, fmt.Errorf("%s is larger than %d MB", fh.Filename, maxUploadBytes>>20)
	}
	return backend.Upload{
		Field:       field,
		FileName:    strings.TrimSpace(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
