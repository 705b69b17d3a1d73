// Package pipeline runs both graph pipelines over one document version.
package pipeline

import (
	"context"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/extract"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/layout"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/neuron"

	"golang.org/x/sync/errgroup"
)

type Options struct {
	// FallbackText feeds the static core label when the document has no
	// thesis of its own.
	FallbackText  string
	MaxLabelRunes int
	Force         layout.ForceConfig
}

// Result is one fully built document version.
type Result struct {
	Static graph.Model         `json:"static"`
	Neuron graph.Model         `json:"neuron"`
	Panels analysis.SidePanels `json:"side_panels"`
	Status analysis.Status     `json:"status"`
	Error  string              `json:"error,omitempty"`
}

// Static extracts candidates from doc and lays out the summary chart.
func Static(doc analysis.Document, opts Options) graph.Model {
	candidates := extract.Extract(doc)
	logger.Debug("[Pipeline] Extracted candidates", "total", candidates.Total())
	return layout.Static(layout.StaticInput{
		Candidates:    candidates,
		Summary:       doc.Summary(),
		FallbackText:  opts.FallbackText,
		MaxLabelRunes: opts.MaxLabelRunes,
	})
}

// Neuron builds the force-laid-out neuron map of doc.
func Neuron(doc analysis.Document, opts Options) graph.Model {
	return neuron.Build(doc, neuron.Options{Force: opts.Force, MaxLabelRunes: opts.MaxLabelRunes})
}

// Build computes both layouts concurrently. The pipelines share nothing
// but the read-only document; ctx only aborts before work starts.
func Build(ctx context.Context, doc analysis.Document, opts Options) (Result, error) {
	res := Result{
		Panels: doc.SidePanels(),
		Status: doc.Status(),
		Error:  doc.Error(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Static = Static(doc, opts)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Neuron = Neuron(doc, opts)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return res, nil
}
