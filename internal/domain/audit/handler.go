package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carewave/hms/internal/platform/auth"
	"github.com/carewave/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	adminGroup := g.Group("", auth.RequireRole("admin"))
	adminGroup.GET("/audit-log", h.List)
}

// List returns audit entries filtered by resource+resource_id or actor_id,
// falling back to the most recent entries.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	resource := c.QueryParam("resource")
	resourceID := c.QueryParam("resource_id")
	if resource != "" && resourceID != "" {
		items, total, err := h.svc.ListByResource(ctx, resource, resourceID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if actorID := c.QueryParam("actor_id"); actorID != "" {
		items, total, err := h.svc.ListByActor(ctx, actorID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListRecent(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
