package scheduling

import (
	"errors"
	"net/http"
	"time"

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
	apptGroup := g.Group("", auth.RequireRole("admin", "doctor", "nurse", "receptionist"))
	apptGroup.POST("/appointments", h.BookAppointment)
	apptGroup.GET("/appointments/:id", h.GetAppointment)
	apptGroup.POST("/appointments/:id/status", h.UpdateAppointmentStatus)
	apptGroup.GET("/appointments", h.ListAppointments)

	shiftGroup := g.Group("", auth.RequireRole("admin"))
	shiftGroup.POST("/shifts", h.CreateShift)
	shiftGroup.POST("/shifts/:id/status", h.UpdateShiftStatus)

	shiftRead := g.Group("", auth.RequireRole("admin", "doctor", "nurse", "pharmacist", "receptionist"))
	shiftRead.GET("/shifts/:id", h.GetShift)
	shiftRead.GET("/shifts", h.ListShifts)

	leaveGroup := g.Group("", auth.RequireRole("admin", "doctor", "nurse", "pharmacist", "receptionist", "billing"))
	leaveGroup.POST("/leave-requests", h.RequestLeave)
	leaveGroup.GET("/leave-requests/:id", h.GetLeave)
	leaveGroup.POST("/leave-requests/:id/cancel", h.CancelLeave)
	leaveGroup.GET("/leave-requests", h.ListLeaves)

	reviewGroup := g.Group("", auth.RequireRole("admin"))
	reviewGroup.POST("/leave-requests/:id/review", h.ReviewLeave)
}

// -- Appointments --

func (h *Handler) BookAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.BookAppointment(c.Request().Context(), &a); err != nil {
		if errors.Is(err, ErrAppointmentConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointmentStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateAppointmentStatus(c.Request().Context(), id, body.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if pid := c.QueryParam("patient_id"); pid != "" {
		id, err := uuid.Parse(pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		items, total, err := h.svc.ListAppointmentsByPatient(ctx, id, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if did := c.QueryParam("doctor_id"); did != "" {
		id, err := uuid.Parse(did)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		from := time.Now().Truncate(24 * time.Hour)
		if f := c.QueryParam("from"); f != "" {
			from, err = time.Parse("2006-01-02", f)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			}
		}
		var to time.Time
		if t := c.QueryParam("to"); t != "" {
			to, err = time.Parse("2006-01-02", t)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			}
		}
		items, total, err := h.svc.ListAppointmentsByDoctor(ctx, id, from, to, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or doctor_id is required")
}

// -- Shifts --

func (h *Handler) CreateShift(c echo.Context) error {
	var s Shift
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateShift(c.Request().Context(), &s); err != nil {
		if errors.Is(err, ErrShiftConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetShift(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.GetShift(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "shift not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateShiftStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateShiftStatus(c.Request().Context(), id, body.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListShifts(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if sid := c.QueryParam("staff_id"); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid staff_id")
		}
		items, total, err := h.svc.ListShiftsByStaff(ctx, id, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if d := c.QueryParam("date"); d != "" {
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		items, total, err := h.svc.ListShiftsByDate(ctx, date, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "staff_id or date is required")
}

// -- Leave requests --

func (h *Handler) RequestLeave(c echo.Context) error {
	var l LeaveRequest
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RequestLeave(c.Request().Context(), &l); err != nil {
		if errors.Is(err, ErrLeaveOverlap) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLeave(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLeave(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "leave request not found")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ReviewLeave(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	reviewerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var body struct {
		Approve bool `json:"approve"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ReviewLeave(c.Request().Context(), id, body.Approve, reviewerID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CancelLeave(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	staffID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	if err := h.svc.CancelLeave(c.Request().Context(), id, staffID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLeaves(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if sid := c.QueryParam("staff_id"); sid != "" {
		id, err := uuid.Parse(sid)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid staff_id")
		}
		items, total, err := h.svc.ListLeavesByStaff(ctx, id, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	if status := c.QueryParam("status"); status != "" {
		items, total, err := h.svc.ListLeavesByStatus(ctx, status, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	return echo.NewHTTPError(http.StatusBadRequest, "staff_id or status is required")
}
