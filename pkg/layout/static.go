package layout

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/extract"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
)

// Placeholder is the core label used when nothing better exists.
const Placeholder = "핵심 주장"

const (
	CanvasWidth  = 800.0
	CanvasHeight = 600.0

	centerX = CanvasWidth / 2
	centerY = CanvasHeight / 2

	maxKeyEvidence    = 2
	maxSideNodes      = 6
	maxSatellitesSide = 2

	evidenceOffsetY = 150.0
	sideSpacing     = 85.0
	commonX         = 170.0
	diffX           = 630.0
	satelliteOffset = 130.0
	satelliteDropY  = 28.0

	defaultLabelRunes = 80
)

// Side columns are centered on the core: six nodes span 5*sideSpacing.
var (
	sideTop    = centerY - sideSpacing*(maxSideNodes-1)/2
	sideBottom = centerY + sideSpacing*(maxSideNodes-1)/2
)

// StaticInput is everything the summary-flow chart is built from.
type StaticInput struct {
	Candidates extract.Candidates
	// Summary is an explicitly labelled core thesis, usually
	// analysis.Document.Summary().
	Summary string
	// FallbackText is free report text used when no thesis was found.
	FallbackText string
	// MaxLabelRunes caps non-core labels; 0 means 80, negative disables.
	MaxLabelRunes int
}

// Static places the summary-flow chart on fixed coordinates: the core in
// the middle, up to two key evidence nodes above and below it, up to six
// common points on the left (top-down) and six differences on the right
// (bottom-up). The first two nodes of each side may carry one extra
// evidence satellite drawn from the evidence left over after the key
// evidence. The same input always yields the same model.
func Static(in StaticInput) graph.Model {
	b := &staticBuilder{maxRunes: in.MaxLabelRunes}
	if b.maxRunes == 0 {
		b.maxRunes = defaultLabelRunes
	}

	b.node(graph.Node{
		ID:       "core",
		Label:    coreLabel(in),
		Position: graph.Position{X: centerX, Y: centerY},
		Style:    graph.NodeCore,
		Category: string(extract.Core),
	})

	evidence := in.Candidates[extract.Evidence]
	keyCount := min(maxKeyEvidence, len(evidence))
	for i := 0; i < keyCount; i++ {
		y := centerY - evidenceOffsetY
		if i == 1 {
			y = centerY + evidenceOffsetY
		}
		id := fmt.Sprintf("evidence-%d", i)
		b.node(graph.Node{
			ID:       id,
			Label:    b.label(evidence[i].Text),
			Position: graph.Position{X: centerX, Y: y},
			Style:    graph.NodeEvidence,
			Category: string(extract.Evidence),
		})
		b.edge(id, "core", graph.EdgeAnimated)
	}
	b.spare = evidence[keyCount:]

	for i, c := range capped(in.Candidates[extract.Common]) {
		id := fmt.Sprintf("common-%d", i)
		pos := graph.Position{X: commonX, Y: sideTop + float64(i)*sideSpacing}
		b.node(graph.Node{
			ID:       id,
			Label:    b.label(c.Text),
			Position: pos,
			Style:    graph.NodeCommon,
			Category: string(extract.Common),
		})
		b.edge("core", id, graph.EdgeDashed)
		if i < maxSatellitesSide {
			b.satellite(id, graph.Position{X: pos.X - satelliteOffset, Y: pos.Y + satelliteDropY})
		}
	}

	for i, c := range capped(in.Candidates[extract.Diff]) {
		id := fmt.Sprintf("diff-%d", i)
		pos := graph.Position{X: diffX, Y: sideBottom - float64(i)*sideSpacing}
		b.node(graph.Node{
			ID:       id,
			Label:    b.label(c.Text),
			Position: pos,
			Style:    graph.NodeDiff,
			Category: string(extract.Diff),
		})
		b.edge("core", id, graph.EdgeDashed)
		if i < maxSatellitesSide {
			b.satellite(id, graph.Position{X: pos.X + satelliteOffset, Y: pos.Y + satelliteDropY})
		}
	}

	return b.model
}

// coreLabel never returns "".
func coreLabel(in StaticInput) string {
	if s := strings.TrimSpace(in.Summary); s != "" {
		return s
	}
	if c, ok := in.Candidates.First(extract.Core); ok && strings.TrimSpace(c.Text) != "" {
		return strings.TrimSpace(c.Text)
	}
	if s := util.FirstSentence(in.FallbackText); s != "" {
		return s
	}
	return Placeholder
}

func capped(list []extract.Candidate) []extract.Candidate {
	if len(list) > maxSideNodes {
		return list[:maxSideNodes]
	}
	return list
}

type staticBuilder struct {
	model    graph.Model
	spare    []extract.Candidate
	maxRunes int
}

func (b *staticBuilder) label(s string) string {
	return util.Truncate(s, b.maxRunes)
}

func (b *staticBuilder) node(n graph.Node) {
	b.model.Nodes = append(b.model.Nodes, n)
}

func (b *staticBuilder) edge(source, target string, style graph.EdgeStyle) {
	e := graph.Edge{
		ID:       fmt.Sprintf("%s->%s", source, target),
		Source:   source,
		Target:   target,
		Style:    style,
		Animated: style == graph.EdgeAnimated,
		Kind:     string(style),
	}
	e.Zone = graph.Classify(e)
	b.model.Edges = append(b.model.Edges, e)
}

// satellite attaches the next spare evidence candidate to parent, if any
// are left.
func (b *staticBuilder) satellite(parent string, pos graph.Position) {
	if len(b.spare) == 0 {
		return
	}
	c := b.spare[0]
	b.spare = b.spare[1:]

	id := parent + "-evidence"
	b.node(graph.Node{
		ID:       id,
		Label:    b.label(c.Text),
		Position: pos,
		Style:    graph.NodeSatellite,
		Category: string(extract.Evidence),
	})
	b.edge(parent, id, graph.EdgeThin)
}
