package handlers

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/benj-n/regami/internal/middleware"
)

// getUserIDFromContext returns the authenticated user's id, or "" when the
// request was not authenticated.
func getUserIDFromContext(c echo.Context) string {
	if v, ok := c.Get(middleware.ContextUserIDKey).(string); ok {
		return v
	}
	return ""
}

// paginationParams reads page and page_size query parameters with sane bounds
func paginationParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// pageMeta builds the standard pagination envelope
func pageMeta(page, pageSize int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    pageSize,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}
