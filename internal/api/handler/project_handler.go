package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/link-dashboard/internal/api/middleware"
	"github.com/99minutos/link-dashboard/internal/core/ports"
)

// ProjectHandler registers new projects for the authenticated principal.
type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// Create registers a project owned by the caller.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProjectRequest  true  "Project slug, name and domain"
// @Success      201   {object}  projectResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	// Slug and domain are validated by the service so the error kinds match
	// the rename path.
	project, err := h.service.CreateProject(c.Request().Context(), middleware.PrincipalFrom(c), ports.CreateProjectInput{
		Slug:   req.Slug,
		Name:   req.Name,
		Domain: req.Domain,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProjectResponse(project))
}
