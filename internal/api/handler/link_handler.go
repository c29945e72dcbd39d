package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
	"github.com/99minutos/link-dashboard/internal/pkg/metrics"
)

// LinkHandler serves the link queries of a single, already authorized project.
type LinkHandler struct {
	service ports.ProjectService
}

func NewLinkHandler(service ports.ProjectService) *LinkHandler {
	return &LinkHandler{service: service}
}

// Count returns the number of links in the project.
//
// @Summary      Count project links
// @Tags         links
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Project slug or domain"
// @Success      200   {integer} int
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      405   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /projects/{slug}/links/count [get]
func (h *LinkHandler) Count(c echo.Context, project *domain.Project) error {
	n, err := h.service.LinkCount(c.Request().Context(), project)
	if err != nil {
		metrics.LinkQueriesTotal.WithLabelValues("count", "error").Inc()
		return err
	}
	metrics.LinkQueriesTotal.WithLabelValues("count", "ok").Inc()
	return c.JSON(http.StatusOK, n)
}

// Random returns one link key sampled uniformly from the project, or null
// when the project has no links.
//
// @Summary      Sample a random project link
// @Tags         links
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Project slug or domain"
// @Success      200   {string}  string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      405   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /projects/{slug}/links/random [get]
func (h *LinkHandler) Random(c echo.Context, project *domain.Project) error {
	key, ok, err := h.service.RandomLink(c.Request().Context(), project)
	if err != nil {
		metrics.LinkQueriesTotal.WithLabelValues("random", "error").Inc()
		return err
	}
	if !ok {
		metrics.LinkQueriesTotal.WithLabelValues("random", "empty").Inc()
		return c.JSON(http.StatusOK, nil)
	}
	metrics.LinkQueriesTotal.WithLabelValues("random", "ok").Inc()
	return c.JSON(http.StatusOK, key)
}
