package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
	"github.com/examwatch/proctor-admin/internal/http/views"
)

func (h *Handlers) HandleLocations(c *echo.Context) error {
	locations, err := h.Backend.ListLocations(c.Request().Context(), h.credentials(c))
	layout := h.LayoutData(c, "Locations")
	if err != nil {
		if answered, err := h.listFailed(c, "locations", err); answered {
			return err
		}
		layout.Notice = "Could not load locations."
		locations = nil
	}

	window, pager := pageSlice(c, locations, h.Cfg.TablePageSize)
	rows := make([]viewmodels.LocationRow, 0, len(window))
	for _, l := range window {
		rows = append(rows, viewmodels.LocationRow{
			ID:           l.ID,
			Title:        orDash(l.Title),
			MainImage:    l.MainImage,
			MapURL:       l.MapURL,
			Descriptions: l.Descriptions,
			OtherImages:  len(l.OtherImages),
		})
	}
	return h.RenderComponent(c, views.LocationsPage(viewmodels.LocationsViewData{
		Layout: layout,
		Rows:   rows,
		Pager:  pager,
	}))
}

func (h *Handlers) HandleLocationNew(c *echo.Context) error {
	return h.RenderComponent(c, views.LocationFormPage(viewmodels.LocationFormViewData{
		Layout:       h.LayoutData(c, "New Location"),
		Action:       "/locations/new",
		Descriptions: keepOneInput(nil),
	}))
}

func (h *Handlers) HandleLocationEdit(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	loc, err := h.Backend.GetLocation(c.Request().Context(), h.credentials(c), id)
	if err != nil {
		return h.entityLoadFailed(c, "/locations", "Location not found", err)
	}
	return h.RenderComponent(c, views.LocationFormPage(viewmodels.LocationFormViewData{
		Layout:              h.LayoutData(c, "Edit Location"),
		Editing:             true,
		ID:                  loc.ID,
		Action:              "/locations/" + url.PathEscape(id) + "/edit",
		Title:               loc.Title,
		MapURL:              loc.MapURL,
		Descriptions:        keepOneInput(loc.Descriptions),
		ExistingMainImage:   loc.MainImage,
		ExistingOtherImages: loc.OtherImages,
	}))
}

// HandleLocationSave serves both the create and the edit form. List add/remove buttons
// re-render the form without calling the backend.
func (h *Handlers) HandleLocationSave(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	editing := id != ""

	values, err := parseForm(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}

	data := viewmodels.LocationFormViewData{
		Layout:              h.LayoutData(c, "New Location"),
		Editing:             editing,
		ID:                  id,
		Action:              "/locations/new",
		Title:               trimmed(values, "title"),
		MapURL:              trimmed(values, "mapurl"),
		Descriptions:        values["descriptions"],
		ExistingMainImage:   trimmed(values, "existingMainImage"),
		ExistingOtherImages: backend.NewListField(values["existingOtherImages"]...),
	}
	if editing {
		data.Layout.Title = "Edit Location"
		data.Action = "/locations/" + url.PathEscape(id) + "/edit"
	}

	if edit, ok := parseListEdit(values.Get("action")); ok {
		data.Descriptions = edit.apply("descriptions", data.Descriptions)
		data.ExistingOtherImages = edit.apply("existingOtherImages", data.ExistingOtherImages)
		data.Descriptions = keepOneInput(data.Descriptions)
		return h.RenderComponent(c, views.LocationFormPage(data))
	}
	data.Descriptions = keepOneInput(data.Descriptions)

	formError := func(msg string) error {
		data.ErrorMessage = msg
		return h.renderComponentStatus(c, http.StatusUnprocessableEntity, views.LocationFormPage(data))
	}

	if data.Title == "" {
		return formError("Title is required.")
	}
	mainImage, err := formUpload(c, "mainimage")
	if err != nil {
		return formError(err.Error())
	}
	otherImages, err := formUploads(c, "otherimages")
	if err != nil {
		return formError(err.Error())
	}
	if !editing && mainImage == nil {
		return formError("Main image is required.")
	}

	in := backend.LocationInput{
		Title:               data.Title,
		MapURL:              data.MapURL,
		Descriptions:        backend.NewListField(data.Descriptions...),
		MainImage:           mainImage,
		OtherImages:         otherImages,
		ExistingMainImage:   data.ExistingMainImage,
		ExistingOtherImages: data.ExistingOtherImages,
	}
	ctx := c.Request().Context()
	if editing {
		err = h.Backend.UpdateLocation(ctx, h.credentials(c), id, in)
	} else {
		err = h.Backend.CreateLocation(ctx, h.credentials(c), in)
	}
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		RequestLogger(c).Warn("save location failed", "location_id", id, "error", err)
		return formError(backend.UserMessage(err, "Could not save the location. Please try again."))
	}

	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "success",
		Title:       "Location saved",
		Description: data.Title,
	})
	return h.redirect(c, "/locations")
}

func (h *Handlers) HandleLocationDeleteConfirm(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return RenderNotFound(c)
	}
	return h.RenderComponent(c, views.ConfirmPage(viewmodels.ConfirmViewData{
		Layout:     h.LayoutData(c, "Delete Location"),
		Heading:    "Delete this location?",
		Message:    "The location and its images will be removed. This cannot be undone.",
		Action:     "/locations/" + url.PathEscape(id) + "/delete",
		CancelHref: "/locations",
	}))
}

func (h *Handlers) HandleLocationDeletePost(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.Backend.DeleteLocation(c.Request().Context(), h.credentials(c), id); err != nil {
		return h.mutationFailed(c, "/locations", "Location not deleted", err)
	}
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: "Location deleted"})
	return h.redirect(c, "/locations")
}

// entityLoadFailed handles a failed fetch of the entity an edit form is for.
func (h *Handlers) entityLoadFailed(c *echo.Context, back, title string, err error) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return RenderNotFound(c)
	}
	return h.mutationFailed(c, back, title, err)
}
