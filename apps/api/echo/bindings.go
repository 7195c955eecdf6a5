package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/convivencia/core"
)

var (
	orderingParam = "ordering"
	formatParam   = "format"
)

// bindOrdering reads `?ordering=-created_at,name` into DB orderings ("-" means descending).
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// bindFormat reads `?format=`, json by default.
func bindFormat(ctx echo.Context) string {
	if f := strings.TrimSpace(ctx.QueryParam(formatParam)); f != "" {
		return f
	}
	return "json"
}
