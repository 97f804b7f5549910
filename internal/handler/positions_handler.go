package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/roles"
)

// PositionsHandler serves the role catalogue behind the searchable
// picker. Raw array contract, optional ?q= substring filter.
type PositionsHandler struct {
	table *roles.PriceTable
}

// NewPositionsHandler constructs a PositionsHandler.
func NewPositionsHandler(table *roles.PriceTable) *PositionsHandler {
	return &PositionsHandler{table: table}
}

// List handles GET /api/positions requests.
func (h *PositionsHandler) List(c echo.Context) error {
	matches := h.table.Filter(c.QueryParam("q"))
	if matches == nil {
		matches = []roles.Position{}
	}
	return c.JSON(http.StatusOK, matches)
}
