package routes

import (
	"io"
	"net/http"

	"github.com/OFFIS-RIT/logicflow/internal/server/middleware"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	"github.com/labstack/echo/v4"
)

type layoutParams struct {
	Fallback string `query:"fallback"`
	Steps    int    `query:"steps" validate:"omitempty,min=1,max=5000"`
	MaxLabel int    `query:"max_label" validate:"omitempty,min=1"`
}

type layoutResponse struct {
	Message string               `json:"message,omitempty"`
	Static  *graph.Model         `json:"static,omitempty"`
	Neuron  *graph.Model         `json:"neuron,omitempty"`
	Counts  *graph.ZoneCounts    `json:"counts,omitempty"`
	Status  analysis.Status      `json:"status,omitempty"`
	Error   string               `json:"error,omitempty"`
	Panels  *analysis.SidePanels `json:"side_panels,omitempty"`
}

// readLayoutRequest parses the query and the raw document body. The body is
// not bound into a struct because any JSON object is a valid document. A
// non-empty message means the request is rejected with 400.
func readLayoutRequest(c echo.Context) (analysis.Document, pipeline.Options, string) {
	params := new(layoutParams)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, params); err != nil {
		return analysis.Document{}, pipeline.Options{}, "Invalid query parameters"
	}
	if err := c.Validate(params); err != nil {
		return analysis.Document{}, pipeline.Options{}, "Invalid query parameters"
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return analysis.Document{}, pipeline.Options{}, "Invalid request body"
	}
	doc, err := analysis.Parse(body)
	if err != nil {
		return analysis.Document{}, pipeline.Options{}, "Request body is not a JSON document"
	}

	opts := c.(*middleware.AppContext).App.Pipeline
	opts.FallbackText = params.Fallback
	if params.Steps > 0 {
		opts.Force.Steps = params.Steps
	}
	if params.MaxLabel > 0 {
		opts.MaxLabelRunes = params.MaxLabel
	}
	return doc, opts, ""
}

// withLayoutSlot runs fn while holding one of the app's layout slots.
func withLayoutSlot(c echo.Context, fn func() error) error {
	release, err := c.(*middleware.AppContext).App.AcquireLayout(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, layoutResponse{Message: "Layout capacity exhausted"})
	}
	defer release()
	return fn()
}

// PostStaticLayoutHandler lays out the summary-flow chart of the posted
// document.
func PostStaticLayoutHandler(c echo.Context) error {
	doc, opts, msg := readLayoutRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, layoutResponse{Message: msg})
	}
	return withLayoutSlot(c, func() error {
		m := pipeline.Static(doc, opts)
		counts := m.Counts()
		return c.JSON(http.StatusOK, layoutResponse{Static: &m, Counts: &counts})
	})
}

// PostNeuronLayoutHandler lays out the neuron map of the posted document.
func PostNeuronLayoutHandler(c echo.Context) error {
	doc, opts, msg := readLayoutRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, layoutResponse{Message: msg})
	}
	return withLayoutSlot(c, func() error {
		m := pipeline.Neuron(doc, opts)
		counts := m.Counts()
		return c.JSON(http.StatusOK, layoutResponse{Neuron: &m, Counts: &counts})
	})
}

// PostLayoutsHandler computes both layouts at once.
func PostLayoutsHandler(c echo.Context) error {
	doc, opts, msg := readLayoutRequest(c)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, layoutResponse{Message: msg})
	}
	return withLayoutSlot(c, func() error {
		res, err := pipeline.Build(c.Request().Context(), doc, opts)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, layoutResponse{
				Message: "Failed to build layouts",
			})
		}
		counts := res.Neuron.Counts()
		return c.JSON(http.StatusOK, layoutResponse{
			Static: &res.Static,
			Neuron: &res.Neuron,
			Counts: &counts,
			Status: res.Status,
			Error:  res.Error,
			Panels: &res.Panels,
		})
	})
}

// GetGraphSchemaHandler publishes the JSON Schema of the graph model.
func GetGraphSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, graph.Schema())
}
