package blobstore

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
)

type listResponse struct {
	Items []*BlobMetadata `json:"items"`
	Total int             `json:"total"`
}

// BlobHandler exposes a patient's archived reports.
type BlobHandler struct {
	store BlobStore
}

func NewBlobHandler(store BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

// RegisterRoutes mounts archive routes on the supplied Echo group.
func (h *BlobHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients/:id/reports", h.handleListByPatient)
	g.GET("/patients/:id/reports/:file", h.handleDownload)
}

func (h *BlobHandler) handleListByPatient(c echo.Context) error {
	patientID := c.Param("id")
	limit := intParam(c, "limit", 20)
	offset := intParam(c, "offset", 0)

	items, total, err := h.store.ListByPatient(c.Request().Context(), patientID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if items == nil {
		items = []*BlobMetadata{}
	}

	return c.JSON(http.StatusOK, listResponse{Items: items, Total: total})
}

func (h *BlobHandler) handleDownload(c echo.Context) error {
	file := path.Base(c.Param("file"))
	key := PatientPrefix(c.Param("id")) + file

	rc, meta, err := h.store.Download(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer rc.Close()

	name := meta.FileName
	if name == "" {
		name = file
	}
	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	return c.Stream(http.StatusOK, contentType, rc)
}

func intParam(c echo.Context, name string, defaultVal int) int {
	v := c.QueryParam(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
