package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	billGroup := g.Group("", auth.RequireRole("admin", "billing"))
	billGroup.POST("/bills", h.CreateBill)
	billGroup.GET("/bills", h.ListBills)
	billGroup.GET("/bills/:id", h.GetBill)
	billGroup.POST("/bills/:id/discount", h.ApplyDiscount)
	billGroup.POST("/bills/:id/payments", h.ApplyPayment)
	billGroup.POST("/bills/:id/payments/:paymentID/confirm", h.ConfirmPayment)
}

func actorFromContext(c echo.Context) *uuid.UUID {
	if id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		return &id
	}
	return nil
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req CreateBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreateBill(c.Request().Context(), &req, actorFromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ApplyDiscount(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Discount
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.ApplyDiscount(c.Request().Context(), id, &d, actorFromContext(c))
	if err != nil {
		if errors.Is(err, ErrBillNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ApplyPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.ApplyPayment(c.Request().Context(), id, &req, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrBillNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrPaymentDeclined):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ConfirmPayment(c echo.Context) error {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	paymentID, err := uuid.Parse(c.Param("paymentID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}
	var body struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.ConfirmPayment(c.Request().Context(), billID, paymentID, body.TransactionID, actorFromContext(c))
	if err != nil {
		if errors.Is(err, ErrBillNotFound) || errors.Is(err, ErrPaymentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListByPatient(ctx, id, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if status := c.QueryParam("status"); status != "" {
		items, total, err := h.svc.ListByStatus(ctx, status, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or status is required")
}
