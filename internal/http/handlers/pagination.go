package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/examwatch/proctor-admin/internal/http/viewmodels"
)

func parsePageParam(c *echo.Context) int {
	page := 1
	if rawPage := strings.TrimSpace(c.QueryParam("page")); rawPage != "" {
		if parsed, err := strconv.Atoi(rawPage); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return page
}

func paginate(totalCount int64, page, perPage int) (int, int, int) {
	if perPage < 1 {
		perPage = 1
	}
	if page < 1 {
		page = 1
	}
	denom := int64(perPage)
	totalPages := int((totalCount + denom - 1) / denom)
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	offset := (page - 1) * perPage
	return page, totalPages, offset
}

func showingRange(totalCount int64, offset, showingCount int) (int, int) {
	if totalCount <= 0 || showingCount <= 0 {
		return 0, 0
	}
	showingFrom := offset + 1
	showingTo := offset + showingCount
	if int64(showingTo) > totalCount {
		showingTo = int(totalCount)
	}
	return showingFrom, showingTo
}

// pageWindow lists the pages a numbered control shows: the first and last page, the current
// page and its neighbours, and 0 for an ellipsis at position 2 or totalPages-1 when hidden.
func pageWindow(page, totalPages int) []int {
	if totalPages < 1 {
		return nil
	}
	out := make([]int, 0, 7)
	for p := 1; p <= totalPages; p++ {
		show := p == 1 || p == totalPages || (p >= page-1 && p <= page+1)
		switch {
		case show:
			out = append(out, p)
		case p == 2 || p == totalPages-1:
			out = append(out, 0)
		}
	}
	return out
}

// pageHref builds the URL of a page, keeping the other query parameters.
func pageHref(path string, query url.Values, page int) string {
	values := url.Values{}
	for k, v := range query {
		if k == "page" || k == "refresh" {
			continue
		}
		values[k] = v
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}

func buildPager(path string, query url.Values, totalCount, page, perPage int) (viewmodels.Pager, int) {
	page, totalPages, offset := paginate(int64(totalCount), page, perPage)
	showing := min(perPage, max(totalCount-offset, 0))
	from, to := showingRange(int64(totalCount), offset, showing)

	pager := viewmodels.Pager{
		Page:        page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		ShowingFrom: from,
		ShowingTo:   to,
	}
	for _, p := range pageWindow(page, totalPages) {
		if p == 0 {
			pager.Links = append(pager.Links, viewmodels.PageLink{Ellipsis: true})
			continue
		}
		pager.Links = append(pager.Links, viewmodels.PageLink{
			Page:    p,
			Href:    pageHref(path, query, p),
			Current: p == page,
		})
	}
	if page > 1 {
		pager.PrevHref = pageHref(path, query, page-1)
	}
	if page < totalPages {
		pager.NextHref = pageHref(path, query, page+1)
	}
	return pager, offset
}

// pageSlice returns the items on page and the pager describing them.
func pageSlice[T any](c *echo.Context, items []T, perPage int) ([]T, viewmodels.Pager) {
	pager, offset := buildPager(c.Request().URL.Path, c.Request().URL.Query(), len(items), parsePageParam(c), perPage)
	if offset >= len(items) {
		return nil, pager
	}
	end := min(offset+perPage, len(items))
	return items[offset:end], pager
}
