package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
)

// listEdit is an add or remove button press on a growable list of form inputs. Buttons submit
// the whole form with name="action" and a value of "add:<field>" or "remove:<field>:<index>".
type listEdit struct {
	Field  string
	Remove bool
	Index  int
}

func parseListEdit(action string) (listEdit, bool) {
	parts := strings.Split(strings.TrimSpace(action), ":")
	switch {
	case len(parts) == 2 && parts[0] == "add" && parts[1] != "":
		return listEdit{Field: parts[1]}, true
	case len(parts) == 3 && parts[0] == "remove" && parts[1] != "":
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			return listEdit{}, false
		}
		return listEdit{Field: parts[1], Remove: true, Index: idx}, true
	default:
		return listEdit{}, false
	}
}

// apply edits items when the edit targets field. Inputs keep their raw text so a re-rendered
// form shows exactly what was typed.
func (e listEdit) apply(field string, items []string) []string {
	if e.Field != field {
		return items
	}
	out := append([]string(nil), items...)
	if !e.Remove {
		return append(out, "")
	}
	if e.Index < len(out) {
		out = append(out[:e.Index], out[e.Index+1:]...)
	}
	return out
}

// keepOneInput returns items, or a single empty input when the list is empty.
func keepOneInput(items []string) []string {
	if len(items) == 0 {
		return []string{""}
	}
	return items
}

// parseForm parses a urlencoded or multipart body and returns the posted values.
func parseForm(c *echo.Context) (url.Values, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if err := req.ParseMultipartForm(maxUploadMemory); err != nil {
			return nil, err
		}
	} else if err := req.ParseForm(); err != nil {
		return nil, err
	}
	return req.PostForm, nil
}

func trimmed(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}
