package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError(map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

func listParams(c echo.Context) repository.ListParams {
	p := repository.ListParams{
		Page:     1,
		PageSize: defaultPageSize,
		OrderBy:  c.QueryParam("order_by"),
		Order:    c.QueryParam("order"),
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 0 {
		p.Page = page
	}
	if size, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && size > 0 {
		p.PageSize = min(size, maxPageSize)
	}
	return p
}

// idList parses a comma-separated id query parameter. Malformed entries
// are skipped rather than rejected.
func idList(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
