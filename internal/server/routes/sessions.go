package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/logicflow/internal/server/middleware"
	"github.com/OFFIS-RIT/logicflow/internal/session"
	"github.com/OFFIS-RIT/logicflow/pkg/controller"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"

	"github.com/labstack/echo/v4"
)

type sessionResponse struct {
	Message string            `json:"message,omitempty"`
	Session *session.Snapshot `json:"session,omitempty"`
}

func lookupSession(c echo.Context) (*session.Session, error) {
	app := c.(*middleware.AppContext).App
	return app.Sessions.Get(c.Param("id"))
}

// CreateSessionHandler starts following a report.
func CreateSessionHandler(c echo.Context) error {
	type createSessionBody struct {
		ReportID string `json:"report_id" validate:"required,max=200"`
		Source   string `json:"source" validate:"omitempty,oneof=http s3"`
	}

	data := new(createSessionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, sessionResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, sessionResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	source := data.Source
	if source == "" {
		source = app.DefaultSource
	}
	if _, ok := app.Sources[source]; !ok {
		return c.JSON(http.StatusBadRequest, sessionResponse{
			Message: "Analysis source is not configured",
		})
	}

	s, err := app.Sessions.Create(data.ReportID, source)
	if err != nil {
		logger.Error("[Server] Failed to create session", "err", err)
		return c.JSON(http.StatusInternalServerError, sessionResponse{
			Message: "Internal server error",
		})
	}
	if err := app.StartPolling(s); err != nil {
		app.Sessions.Remove(s.ID)
		return c.JSON(http.StatusBadRequest, sessionResponse{
			Message: err.Error(),
		})
	}

	snap := s.Snapshot()
	return c.JSON(http.StatusCreated, sessionResponse{
		Message: "Session created",
		Session: &snap,
	})
}

// ListSessionsHandler returns the snapshots of all live sessions.
func ListSessionsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	out := []session.Snapshot{}
	for _, s := range app.Sessions.List() {
		out = append(out, s.Snapshot())
	}
	return c.JSON(http.StatusOK, out)
}

func GetSessionHandler(c echo.Context) error {
	s, err := lookupSession(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, sessionResponse{Message: "Session not found"})
	}
	snap := s.Snapshot()
	return c.JSON(http.StatusOK, sessionResponse{Session: &snap})
}

// DeleteSessionHandler stops polling and forgets the session.
func DeleteSessionHandler(c echo.Context) error {
	s, err := lookupSession(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, sessionResponse{Message: "Session not found"})
	}
	app := c.(*middleware.AppContext).App
	app.StopPolling(s.ID)
	app.Sessions.Remove(s.ID)
	return c.JSON(http.StatusOK, sessionResponse{Message: "Session deleted"})
}

// ActivateNodeHandler reveals the suggestion edges of a node.
func ActivateNodeHandler(c echo.Context) error {
	type activateNodeResponse struct {
		Message    string                     `json:"message,omitempty"`
		Activation *controller.NodeActivation `json:"activation,omitempty"`
		Counts     *graph.ZoneCounts          `json:"counts,omitempty"`
	}

	s, err := lookupSession(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, activateNodeResponse{Message: "Session not found"})
	}

	act, err := s.ActivateNode(c.Param("node_id"))
	switch {
	case errors.Is(err, session.ErrNotInteractive):
		return c.JSON(http.StatusConflict, activateNodeResponse{Message: "Graph is not ready yet"})
	case errors.Is(err, controller.ErrUnknownNode):
		return c.JSON(http.StatusNotFound, activateNodeResponse{Message: "Node not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, activateNodeResponse{Message: "Internal server error"})
	}

	counts := s.Snapshot().Counts
	return c.JSON(http.StatusOK, activateNodeResponse{Activation: &act, Counts: &counts})
}

// ActivateEdgeHandler returns the feedback or suggestion attached to an edge.
func ActivateEdgeHandler(c echo.Context) error {
	type activateEdgeResponse struct {
		Message string      `json:"message,omitempty"`
		Edge    *graph.Edge `json:"edge,omitempty"`
	}

	s, err := lookupSession(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, activateEdgeResponse{Message: "Session not found"})
	}

	e, err := s.ActivateEdge(c.Param("edge_id"))
	switch {
	case errors.Is(err, session.ErrNotInteractive):
		return c.JSON(http.StatusConflict, activateEdgeResponse{Message: "Graph is not ready yet"})
	case errors.Is(err, controller.ErrUnknownEdge), errors.Is(err, controller.ErrEdgeHidden):
		return c.JSON(http.StatusNotFound, activateEdgeResponse{Message: "Edge not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, activateEdgeResponse{Message: "Internal server error"})
	}
	return c.JSON(http.StatusOK, activateEdgeResponse{Edge: &e})
}
