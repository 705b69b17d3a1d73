package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateNode = errors.New("duplicate node id")
	ErrDanglingEdge  = errors.New("edge references unknown node")
)

// Zone groups edges by how the user interacts with them.
//
//   - A: structural edges, always visible
//   - B: suggested "missing link" edges, hidden until revealed
//   - C: creative-spark edges carrying an AI judgment
type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
)

// Judgment is the AI verdict on a creative-spark connection.
type Judgment string

const (
	JudgmentCreative Judgment = "Creative"
	JudgmentForced   Judgment = "Forced"
)

// ParseJudgment accepts the loose spellings the backend produces.
func ParseJudgment(raw string) Judgment {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(s, "creative") || strings.Contains(s, "창의") {
		return JudgmentCreative
	}
	return JudgmentForced
}

// NodeStyle and EdgeStyle are rendering hints only.
type NodeStyle string

const (
	NodeCore      NodeStyle = "core"
	NodeEvidence  NodeStyle = "evidence"
	NodeCommon    NodeStyle = "common"
	NodeDiff      NodeStyle = "diff"
	NodeSatellite NodeStyle = "satellite"
	NodeConcept   NodeStyle = "concept"
)

type EdgeStyle string

const (
	EdgeSolid    EdgeStyle = "solid"
	EdgeAnimated EdgeStyle = "animated"
	EdgeDashed   EdgeStyle = "dashed"
	EdgeThin     EdgeStyle = "thin"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned vertex. Category records the extractor category the
// node was built from, if any.
type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Position Position  `json:"position"`
	Style    NodeStyle `json:"style_hint"`
	Category string    `json:"source_category,omitempty"`
}

// Feedback is the AI judgment attached to a Zone C edge.
type Feedback struct {
	Judgment Judgment `json:"judgment"`
	Text     string   `json:"text"`
}

// Suggestion is the socratic prompt attached to a Zone B edge.
type Suggestion struct {
	GuideText string `json:"guide_text"`
}

// Edge connects two nodes of the same model. Zone never changes after
// construction and Hidden only ever goes from true to false.
type Edge struct {
	ID         string      `json:"id"`
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Zone       Zone        `json:"zone"`
	Hidden     bool        `json:"hidden"`
	Weight     *float64    `json:"weight,omitempty"`
	Feedback   *Feedback   `json:"feedback,omitempty"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Style      EdgeStyle   `json:"style"`
	Animated   bool        `json:"animated"`
}

// Touches reports whether nodeID is one of the edge's endpoints.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Model is a renderable graph.
type Model struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

var sparkKinds = map[string]bool{
	"questionable":   true,
	"creative":       true,
	"creative_spark": true,
	"spark":          true,
	"leap":           true,
}

// Classify derives the zone of an edge from the data attached to it:
// feedback or a spark kind means C, a suggestion means B, anything else A.
func Classify(e Edge) Zone {
	switch {
	case e.Feedback != nil:
		return ZoneC
	case e.Suggestion != nil:
		return ZoneB
	case sparkKinds[strings.ToLower(strings.TrimSpace(e.Kind))]:
		return ZoneC
	default:
		return ZoneA
	}
}

// Clone returns a deep copy, pointers included.
func (m Model) Clone() Model {
	out := Model{
		Nodes: make([]Node, len(m.Nodes)),
		Edges: make([]Edge, len(m.Edges)),
	}
	copy(out.Nodes, m.Nodes)
	for i, e := range m.Edges {
		if e.Weight != nil {
			w := *e.Weight
			e.Weight = &w
		}
		if e.Feedback != nil {
			f := *e.Feedback
			e.Feedback = &f
		}
		if e.Suggestion != nil {
			s := *e.Suggestion
			e.Suggestion = &s
		}
		out.Edges[i] = e
	}
	return out
}

// Validate checks node id uniqueness and that every edge endpoint exists.
func (m Model) Validate() error {
	ids := make(map[string]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		if _, ok := ids[n.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range m.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: edge %s source %s", ErrDanglingEdge, e.ID, e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: edge %s target %s", ErrDanglingEdge, e.ID, e.Target)
		}
	}
	return nil
}

func (m Model) Node(id string) (Node, bool) {
	for _, n := range m.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func (m Model) Edge(id string) (Edge, bool) {
	for _, e := range m.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// VisibleEdges returns the edges a renderer should draw.
func (m Model) VisibleEdges() []Edge {
	out := make([]Edge, 0, len(m.Edges))
	for _, e := range m.Edges {
		if !e.Hidden {
			out = append(out, e)
		}
	}
	return out
}

// ZoneCounts summarizes a model for notifications.
type ZoneCounts struct {
	A      int `json:"a"`
	B      int `json:"b"`
	C      int `json:"c"`
	Hidden int `json:"hidden"`
}

func (m Model) Counts() ZoneCounts {
	var c ZoneCounts
	for _, e := range m.Edges {
		switch e.Zone {
		case ZoneA:
			c.A++
		case ZoneB:
			c.B++
		case ZoneC:
			c.C++
		}
		if e.Hidden {
			c.Hidden++
		}
	}
	return c
}
