package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/core/domain"
	"github.com/99minutos/link-dashboard/internal/core/ports"
	"github.com/99minutos/link-dashboard/internal/pkg/metrics"
)

// ErrConfirmationMismatch is returned when a domain change carries a
// verification value other than DomainChangeConfirmation.
var ErrConfirmationMismatch = errors.New("verification phrase does not match")

// DomainHandler serves the domain availability check and the domain change.
type DomainHandler struct {
	service ports.ProjectService
}

func NewDomainHandler(service ports.ProjectService) *DomainHandler {
	return &DomainHandler{service: service}
}

// Exists reports whether a domain is assigned to any project: 1 if taken,
// 0 otherwise.
//
// @Summary      Check domain availability
// @Tags         domains
// @Produce      json
// @Param        domain  path      string  true  "Candidate domain"
// @Success      200     {integer} int
// @Failure      405     {object}  map[string]string
// @Failure      503     {object}  map[string]string
// @Router       /domains/{domain}/exists [get]
func (h *DomainHandler) Exists(c echo.Context) error {
	ok, err := h.service.DomainExists(c.Request().Context(), c.Param("domain"))
	if err != nil {
		metrics.LinkQueriesTotal.WithLabelValues("exists", "error").Inc()
		return err
	}
	metrics.LinkQueriesTotal.WithLabelValues("exists", "ok").Inc()
	if ok {
		return c.JSON(http.StatusOK, 1)
	}
	return c.JSON(http.StatusOK, 0)
}

// Update renames the project's domain.
//
// @Summary      Change the project domain
// @Tags         domains
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string               true  "Project slug or domain"
// @Param        body  body      updateDomainRequest  true  "New domain, as a bare string or an object"
// @Success      200   {object}  projectResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      405   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /projects/{slug}/domain [put]
func (h *DomainHandler) Update(c echo.Context, project *domain.Project) error {
	var req updateDomainRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if req.Verification != nil && *req.Verification != DomainChangeConfirmation {
		metrics.DomainRenamesTotal.WithLabelValues("invalid").Inc()
		return ErrConfirmationMismatch
	}
	if err := c.Validate(&req); err != nil {
		metrics.DomainRenamesTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %s", domain.ErrInvalidDomain, err.Error())
	}

	if req.Domain == project.Domain {
		metrics.DomainRenamesTotal.WithLabelValues("noop").Inc()
		return c.JSON(http.StatusOK, toProjectResponse(project))
	}

	updated, err := h.service.UpdateDomain(c.Request().Context(), project, req.Domain)
	if err != nil {
		metrics.DomainRenamesTotal.WithLabelValues(renameResult(err)).Inc()
		return err
	}
	metrics.DomainRenamesTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, toProjectResponse(updated))
}

func renameResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidDomain):
		return "invalid"
	case errors.Is(err, domain.ErrDomainConflict):
		return "conflict"
	case errors.Is(err, domain.ErrRenameInProgress), errors.Is(err, domain.ErrConcurrentUpdate):
		return "busy"
	default:
		return "error"
	}
}
