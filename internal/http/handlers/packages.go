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

func (h *Handlers) HandlePackages(c *echo.Context) error {
	packages, err := h.Backend.ListPackages(c.Request().Context(), h.credentials(c))
	layout := h.LayoutData(c, "Tour Packages")
	if err != nil {
		if answered, err := h.listFailed(c, "packages", err); answered {
			return err
		}
		layout.Notice = "Could not load packages."
		packages = nil
	}

	window, pager := pageSlice(c, packages, h.Cfg.TablePageSize)
	rows := make([]viewmodels.PackageRow, 0, len(window))
	for _, p := range window {
		rows = append(rows, viewmodels.PackageRow{
			ID:           p.ID,
			Title:        orDash(p.Title),
			ImgURL:       p.ImgURL,
			Popular:      p.IsPopular(),
			ActivityType: orDash(p.ActivityType),
			Price:        orDash(p.Price.String()),
			Days:         orDash(p.Days.String()),
			People:       orDash(p.People.String()),
			Highlights:   p.Highlights,
		})
	}
	return h.RenderComponent(c, views.PackagesPage(viewmodels.PackagesViewData{
		Layout: layout,
		Rows:   rows,
		Pager:  pager,
	}))
}

func (h *Handlers) HandlePackageNew(c *echo.Context) error {
	return h.RenderComponent(c, views.PackageFormPage(viewmodels.PackageFormViewData{
		Layout:     h.LayoutData(c, "New Package"),
		Action:     "/packages/new",
		Highlights: keepOneInput(nil),
		Include:    keepOneInput(nil),
	}))
}

func (h *Handlers) HandlePackageEdit(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	p, err := h.Backend.GetPackage(c.Request().Context(), h.credentials(c), id)
	if err != nil {
		return h.entityLoadFailed(c, "/packages", "Package not found", err)
	}
	return h.RenderComponent(c, views.PackageFormPage(viewmodels.PackageFormViewData{
		Layout:        h.LayoutData(c, "Edit Package"),
		Editing:       true,
		ID:            p.ID,
		Action:        "/packages/" + url.PathEscape(id) + "/edit",
		Title:         p.Title,
		Popular:       p.IsPopular(),
		Overview:      p.Overview,
		Days:          p.Days.String(),
		People:        p.People.String(),
		ActivityType:  p.ActivityType,
		Price:         p.Price.String(),
		Highlights:    keepOneInput(p.Highlights),
		Include:       keepOneInput(p.Include),
		ExistingImage: p.ImgURL,
	}))
}

// HandlePackageSave serves both the create and the edit form.
func (h *Handlers) HandlePackageSave(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	editing := id != ""

	values, err := parseForm(c)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}

	data := viewmodels.PackageFormViewData{
		Layout:        h.LayoutData(c, "New Package"),
		Editing:       editing,
		ID:            id,
		Action:        "/packages/new",
		Title:         trimmed(values, "title"),
		Popular:       ParseBoolForm(values.Get("popular")),
		Overview:      trimmed(values, "overview"),
		Days:          trimmed(values, "days"),
		People:        trimmed(values, "people"),
		ActivityType:  trimmed(values, "activityType"),
		Price:         trimmed(values, "price"),
		Highlights:    values["highlights"],
		Include:       values["include"],
		ExistingImage: trimmed(values, "existingImage"),
	}
	if editing {
		data.Layout.Title = "Edit Package"
		data.Action = "/packages/" + url.PathEscape(id) + "/edit"
	}

	if edit, ok := parseListEdit(values.Get("action")); ok {
		data.Highlights = keepOneInput(edit.apply("highlights", data.Highlights))
		data.Include = keepOneInput(edit.apply("include", data.Include))
		return h.RenderComponent(c, views.PackageFormPage(data))
	}
	data.Highlights = keepOneInput(data.Highlights)
	data.Include = keepOneInput(data.Include)

	formError := func(msg string) error {
		data.ErrorMessage = msg
		return h.renderComponentStatus(c, http.StatusUnprocessableEntity, views.PackageFormPage(data))
	}

	if data.Title == "" {
		return formError("Title is required.")
	}
	image, err := formUpload(c, "imgurl")
	if err != nil {
		return formError(err.Error())
	}

	in := backend.PackageInput{
		Title:        data.Title,
		Popular:      data.Popular,
		Overview:     data.Overview,
		Days:         data.Days,
		People:       data.People,
		ActivityType: data.ActivityType,
		Price:        data.Price,
		Highlights:   backend.NewListField(data.Highlights...),
		Include:      backend.NewListField(data.Include...),
		Image:        image,
	}
	ctx := c.Request().Context()
	if editing {
		err = h.Backend.UpdatePackage(ctx, h.credentials(c), id, in)
	} else {
		err = h.Backend.CreatePackage(ctx, h.credentials(c), in)
	}
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return h.handleUnauthenticated(c)
		}
		RequestLogger(c).Warn("save package failed", "package_id", id, "error", err)
		return formError(backend.UserMessage(err, "Could not save the package. Please try again."))
	}

	setFlashToast(c, viewmodels.ToastViewData{
		Category:    "success",
		Title:       "Package saved",
		Description: data.Title,
	})
	return h.redirect(c, "/packages")
}

func (h *Handlers) HandlePackageDeleteConfirm(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return RenderNotFound(c)
	}
	return h.RenderComponent(c, views.ConfirmPage(viewmodels.ConfirmViewData{
		Layout:     h.LayoutData(c, "Delete Package"),
		Heading:    "Delete this package?",
		Message:    "Existing bookings keep their reference but the package will no longer be listed.",
		Action:     "/packages/" + url.PathEscape(id) + "/delete",
		CancelHref: "/packages",
	}))
}

func (h *Handlers) HandlePackageDeletePost(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if err := h.Backend.DeletePackage(c.Request().Context(), h.credentials(c), id); err != nil {
		return h.mutationFailed(c, "/packages", "Package not deleted", err)
	}
	setFlashToast(c, viewmodels.ToastViewData{Category: "success", Title: "Package deleted"})
	return h.redirect(c, "/packages")
}
