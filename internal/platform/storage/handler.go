package storage

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carewave/hms/internal/platform/auth"
)

// Handler exposes file upload/download over HTTP.
type Handler struct {
	store FileStore
}

func NewHandler(store FileStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/files", h.Upload)
	g.GET("/files/:id", h.Download)
	g.DELETE("/files/:id", h.Delete, auth.RequireRole("admin"))
	g.GET("/files", h.ListByPatient)
}

func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > MaxFileSize {
		return echo.NewHTTPError(http.StatusBadRequest, ErrFileTooLarge.Error())
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	meta := FileMetadata{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		PatientID:   c.FormValue("patient_id"),
		Category:    c.FormValue("category"),
		UploadedBy:  auth.UserIDFromContext(c.Request().Context()),
	}

	stored, err := h.store.Save(c.Request().Context(), meta, src)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrMissingFileName) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}
	return c.JSON(http.StatusCreated, stored)
}

func (h *Handler) Download(c echo.Context) error {
	rc, meta, err := h.store.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open file")
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+meta.FileName+`"`)
	return c.Stream(http.StatusOK, contentType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete file")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID := c.QueryParam("patient_id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	items, err := h.store.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
