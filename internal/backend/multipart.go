package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

// Upload is a file held by the dashboard until the form is submitted.
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Content     []byte
}

type multipartForm struct {
	fields [][2]string
	files  []Upload
}

func (f *multipartForm) set(name, value string) {
	f.fields = append(f.fields, [2]string{name, value})
}

func (f *multipartForm) attach(uploads ...Upload) {
	for _, u := range uploads {
		if len(u.Content) == 0 {
			continue
		}
		f.files = append(f.files, u)
	}
}

func (f *multipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for _, u := range f.files {
		name := strings.TrimSpace(u.FileName)
		if name == "" {
			name = u.Field
		}
		part, err := w.CreatePart(fileHeader(u.Field, name, u.ContentType))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(u.Content); err != nil {
			return nil, "", fmt.Errorf("write upload %s: %w", u.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func fileHeader(field, fileName, contentType string) map[string][]string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := fmt.Sprintf(`form-data; name=%q; filename=%q`, field, fileName)
	return map[string][]string{
		"Content-Disposition": {disposition},
		"Content-Type":        {contentType},
	}
}
