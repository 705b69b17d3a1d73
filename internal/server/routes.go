package server

import (
	"net/http"

	"github.com/OFFIS-RIT/logicflow/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api")

	// Stateless layout routes
	apiRoutes.POST("/layouts", routes.PostLayoutsHandler)
	apiRoutes.POST("/layouts/static", routes.PostStaticLayoutHandler)
	apiRoutes.POST("/layouts/neuron", routes.PostNeuronLayoutHandler)
	apiRoutes.GET("/schema/graph", routes.GetGraphSchemaHandler)

	// Report routes
	apiRoutes.GET("/reports", routes.GetReportsHandler)

	// Session routes
	apiRoutes.GET("/sessions", routes.ListSessionsHandler)
	apiRoutes.POST("/sessions", routes.CreateSessionHandler)
	apiRoutes.GET("/sessions/:id", routes.GetSessionHandler)
	apiRoutes.DELETE("/sessions/:id", routes.DeleteSessionHandler)
	apiRoutes.POST("/sessions/:id/nodes/:node_id/activate", routes.ActivateNodeHandler)
	apiRoutes.POST("/sessions/:id/edges/:edge_id/activate", routes.ActivateEdgeHandler)
	apiRoutes.GET("/sessions/:id/ws", routes.SessionSocketHandler)
}
