package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/ports"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	repairer ports.MigrationRepairer
	grace    time.Duration
}

// NewAdminHandler returns an AdminHandler that only repairs markers older
// than grace, so renames still in flight are left alone. Callers may ask for
// a longer grace, never a shorter one.
func NewAdminHandler(repairer ports.MigrationRepairer, grace time.Duration) *AdminHandler {
	return &AdminHandler{repairer: repairer, grace: grace}
}

// RepairMigrations runs the repair pass synchronously.
//
// @Summary      Repair interrupted domain renames
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        grace  query     string  false  "Minimum marker age, at least REPAIR_GRACE, e.g. 5m"
// @Success      200    {object}  repairResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /admin/migrations/repair [post]
func (h *AdminHandler) RepairMigrations(c echo.Context) error {
	grace := h.grace
	if raw := c.QueryParam("grace"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < h.grace {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("grace must be a duration of at least %s", h.grace)})
		}
		grace = d
	}

	n, err := h.repairer.RepairMigrations(c.Request().Context(), grace)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, repairResponse{Repaired: n})
}
