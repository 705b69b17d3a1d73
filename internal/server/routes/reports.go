package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/logicflow/internal/server/middleware"
	"github.com/OFFIS-RIT/logicflow/internal/storage"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetReportsHandler lists the reports that have an analysis document in
// the configured bucket.
func GetReportsHandler(c echo.Context) error {
	type getReportsResponse struct {
		Message string   `json:"message,omitempty"`
		Reports []string `json:"reports"`
	}

	app := c.(*middleware.AppContext).App
	if app.S3 == nil {
		return c.JSON(http.StatusNotFound, getReportsResponse{
			Message: "S3 source is not configured",
			Reports: []string{},
		})
	}

	ids, err := storage.ListReports(c.Request().Context(), app.S3, app.Bucket, app.Prefix)
	if err != nil {
		logger.Error("[Server] Failed to list reports", "err", err)
		return c.JSON(http.StatusInternalServerError, getReportsResponse{
			Message: "Internal server error",
			Reports: []string{},
		})
	}
	return c.JSON(http.StatusOK, getReportsResponse{Reports: ids})
}
