package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mwalimu/shule/core"
)

// Query params bind fail-open: unknown params are ignored and malformed values
// are skipped rather than rejected, leaving the filter field at its zero value.
// Filters reject unknown enum values through their own validation afterwards.

func queryInt(ctx echo.Context, name string) int {
	val, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return 0
	}
	return val
}

func bindPagination(ctx echo.Context) core.Pagination {
	return core.Pagination{
		Limit:  queryInt(ctx, "limit"),
		PageNo: queryInt(ctx, "pageNo"),
	}
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// listResponse is the paginated list payload: the page under results, the
// unpaginated total under count.
type listResponse struct {
	Count   int         `json:"count"`
	Results interface{} `json:"results"`
}
