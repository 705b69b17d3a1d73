package controller

import (
	"errors"
	"sync"
	"testing"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
)

func threeNodeModel() graph.Model {
	return graph.Model{
		Nodes: []graph.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Edges: []graph.Edge{
			{ID: "ab", Source: "A", Target: "B", Zone: graph.ZoneA},
			{ID: "bc", Source: "B", Target: "C", Zone: graph.ZoneA},
			{ID: "ac", Source: "A", Target: "C", Zone: graph.ZoneC, Kind: "questionable"},
			{ID: "s", Source: "A", Target: "C", Zone: graph.ZoneB, Hidden: true, Suggestion: &graph.Suggestion{GuideText: "Why?"}},
		},
	}
}

func TestRevealOnNodeActivation(t *testing.T) {
	c := New(threeNodeModel())

	if got := len(c.VisibleEdges()); got != 3 {
		t.Fatalf("visible edges = %d, want 3", got)
	}
	if got := c.RevealEdgesTouching("A"); got != 1 {
		t.Fatalf("first reveal = %d, want 1", got)
	}
	if got := c.RevealEdgesTouching("A"); got != 0 {
		t.Fatalf("second reveal = %d, want 0", got)
	}
	for _, e := range c.Model().Edges {
		if e.Zone == graph.ZoneB && e.Touches("A") && e.Hidden {
			t.Fatalf("edge %s still hidden", e.ID)
		}
	}
	if got := c.RevealEdgesTouching("C"); got != 0 {
		t.Fatalf("reveal from other endpoint = %d, want 0", got)
	}
}

func TestRevealIgnoresOtherZones(t *testing.T) {
	m := graph.Model{
		Nodes: []graph.Node{{ID: "x"}, {ID: "y"}},
		Edges: []graph.Edge{{ID: "odd", Source: "x", Target: "y", Zone: graph.ZoneA, Hidden: true}},
	}
	c := New(m)
	if got := c.RevealEdgesTouching("x"); got != 0 {
		t.Fatalf("reveal = %d, want 0 for non-B edge", got)
	}
}

func TestNewCopiesModel(t *testing.T) {
	m := threeNodeModel()
	c := New(m)
	c.RevealEdgesTouching("A")
	if !m.Edges[3].Hidden {
		t.Fatal("controller mutated the caller's model")
	}

	out := c.Model()
	out.Edges[3].Suggestion.GuideText = "changed"
	if e, _ := c.Model().Edge("s"); e.Suggestion.GuideText != "Why?" {
		t.Fatal("Model() leaked internal state")
	}
}

func TestNewClassifiesMissingZones(t *testing.T) {
	c := New(graph.Model{
		Nodes: []graph.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graph.Edge{
			{ID: "1", Source: "a", Target: "b", Feedback: &graph.Feedback{Judgment: graph.JudgmentCreative}},
			{ID: "2", Source: "a", Target: "b", Suggestion: &graph.Suggestion{}},
			{ID: "3", Source: "a", Target: "b"},
		},
	})
	want := map[string]graph.Zone{"1": graph.ZoneC, "2": graph.ZoneB, "3": graph.ZoneA}
	for _, e := range c.Model().Edges {
		if e.Zone != want[e.ID] {
			t.Errorf("edge %s zone = %s, want %s", e.ID, e.Zone, want[e.ID])
		}
	}
}

func TestActivateNode(t *testing.T) {
	c := New(threeNodeModel())

	var got []NodeActivation
	c.OnNodeActivate(func(a NodeActivation) {
		got = append(got, a)
		// hooks may call back in
		_ = c.Counts()
	})

	act, err := c.ActivateNode("A")
	if err != nil {
		t.Fatalf("ActivateNode() error = %v", err)
	}
	if act.Revealed != 1 || act.Node.ID != "A" || len(act.Edges) != 3 {
		t.Fatalf("activation = %+v", act)
	}
	if len(got) != 1 || got[0].Revealed != 1 {
		t.Fatalf("hook calls = %+v", got)
	}

	if _, err := c.ActivateNode("missing"); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("err = %v, want ErrUnknownNode", err)
	}
}

func TestActivateEdge(t *testing.T) {
	c := New(threeNodeModel())

	var seen []graph.Edge
	c.OnEdgeActivate(func(e graph.Edge) { seen = append(seen, e) })

	if _, err := c.ActivateEdge("s"); !errors.Is(err, ErrEdgeHidden) {
		t.Fatalf("err = %v, want ErrEdgeHidden", err)
	}
	if _, err := c.ActivateEdge("zz"); !errors.Is(err, ErrUnknownEdge) {
		t.Fatalf("err = %v, want ErrUnknownEdge", err)
	}

	c.RevealEdgesTouching("C")
	e, err := c.ActivateEdge("s")
	if err != nil {
		t.Fatalf("ActivateEdge() error = %v", err)
	}
	if e.Suggestion == nil || e.Suggestion.GuideText != "Why?" {
		t.Fatalf("edge payload = %+v", e)
	}
	if len(seen) != 1 || seen[0].ID != "s" {
		t.Fatalf("hook calls = %+v", seen)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    analysis.Status
		to      analysis.Status
		wantErr bool
	}{
		{analysis.StatusInit, analysis.StatusProcessing, false},
		{analysis.StatusInit, analysis.StatusPartial, true},
		{analysis.StatusProcessing, analysis.StatusProcessing, false},
		{analysis.StatusProcessing, analysis.StatusPartial, false},
		{analysis.StatusProcessing, analysis.StatusDone, false},
		{analysis.StatusProcessing, analysis.StatusFailed, false},
		{analysis.StatusPartial, analysis.StatusPartial, false},
		{analysis.StatusPartial, analysis.StatusDone, false},
		{analysis.StatusPartial, analysis.StatusFailed, false},
		{analysis.StatusPartial, analysis.StatusProcessing, true},
		{analysis.StatusDone, analysis.StatusDone, false},
		{analysis.StatusDone, analysis.StatusFailed, true},
		{analysis.StatusFailed, analysis.StatusPartial, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			c := New(graph.Model{}, WithStatus(tt.from))
			err := c.Transition(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("err = %v, want ErrInvalidTransition", err)
				}
				if c.Status() != tt.from {
					t.Fatalf("status changed to %s on rejected transition", c.Status())
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if c.Status() != tt.to {
				t.Fatalf("status = %s, want %s", c.Status(), tt.to)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	c := New(graph.Model{})
	if err := c.Advance(analysis.StatusPartial); err != nil {
		t.Fatalf("Advance(partial) = %v", err)
	}
	if c.Status() != analysis.StatusPartial || !c.Interactive() {
		t.Fatalf("status = %s", c.Status())
	}
	if err := c.Advance(analysis.StatusProcessing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Advance(processing) = %v, want ErrInvalidTransition", err)
	}
	if err := c.Advance(analysis.StatusDone); err != nil {
		t.Fatalf("Advance(done) = %v", err)
	}
	if err := c.Fail("late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fail after done = %v, want ErrInvalidTransition", err)
	}
}

func TestFailWithholdsGraph(t *testing.T) {
	c := New(threeNodeModel())
	if _, ok := c.Graph(); ok {
		t.Fatal("graph shown before processing finished")
	}
	if err := c.Advance(analysis.StatusPartial); err != nil {
		t.Fatal(err)
	}
	if m, ok := c.Graph(); !ok || len(m.Nodes) != 3 {
		t.Fatalf("partial graph = %+v, %v", m, ok)
	}
	if err := c.Fail("model timeout"); err != nil {
		t.Fatalf("Fail() = %v", err)
	}
	if _, ok := c.Graph(); ok {
		t.Fatal("failed analysis must not show a graph")
	}
	if c.Err() != "model timeout" || c.Status() != analysis.StatusFailed {
		t.Fatalf("status = %s, err = %q", c.Status(), c.Err())
	}
}

func TestConcurrentReveal(t *testing.T) {
	m := graph.Model{Nodes: []graph.Node{{ID: "hub"}}}
	for i := 0; i < 50; i++ {
		id := string(rune('a' + i%26))
		if i >= 26 {
			id += "2"
		}
		m.Nodes = append(m.Nodes, graph.Node{ID: id})
		m.Edges = append(m.Edges, graph.Edge{ID: "s-" + id, Source: "hub", Target: id, Zone: graph.ZoneB, Hidden: true, Suggestion: &graph.Suggestion{}})
	}
	c := New(m)

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := c.RevealEdgesTouching("hub")
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()
	if total != 50 {
		t.Fatalf("revealed %d edges in total, want 50", total)
	}
}
