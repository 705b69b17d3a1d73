package layout

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/extract"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
)

func staticFromDoc(t *testing.T, raw, fallback string) graph.Model {
	t.Helper()
	doc := analysis.MustParse(raw)
	return Static(StaticInput{
		Candidates:   extract.Extract(doc),
		Summary:      doc.Summary(),
		FallbackText: fallback,
	})
}

func countStyle(m graph.Model, style graph.NodeStyle) int {
	n := 0
	for _, node := range m.Nodes {
		if node.Style == style {
			n++
		}
	}
	return n
}

func candidates(cat extract.Category, n int) []extract.Candidate {
	out := make([]extract.Candidate, n)
	for i := range out {
		out[i] = extract.Candidate{ID: fmt.Sprintf("%s-%d", cat, i), Text: fmt.Sprintf("%s text %d", cat, i), Category: cat}
	}
	return out
}

func TestStaticThesisWithOneCommonPoint(t *testing.T) {
	m := staticFromDoc(t, `{"Core_Thesis": "Climate change is accelerating", "공통점": ["둘 다 탄소 배출을 다룬다"], "차이점": []}`, "")

	core, ok := m.Node("core")
	if !ok || core.Label != "Climate change is accelerating" {
		t.Fatalf("core = %+v, want label %q", core, "Climate change is accelerating")
	}
	if got := countStyle(m, graph.NodeCommon); got != 1 {
		t.Fatalf("common nodes = %d, want 1", got)
	}
	if got := countStyle(m, graph.NodeDiff); got != 0 {
		t.Fatalf("diff nodes = %d, want 0", got)
	}
	if len(m.Edges) != 1 {
		t.Fatalf("edges = %d, want 1: %+v", len(m.Edges), m.Edges)
	}
	e := m.Edges[0]
	if e.Source != "core" || e.Target != "common-0" || e.Style != graph.EdgeDashed || e.Zone != graph.ZoneA {
		t.Fatalf("edge = %+v, want dashed zone A core->common-0", e)
	}
}

func TestStaticEmptyDocument(t *testing.T) {
	m := staticFromDoc(t, `{}`, "")
	if len(m.Nodes) != 1 || len(m.Edges) != 0 {
		t.Fatalf("model = %+v, want one node and no edges", m)
	}
	if m.Nodes[0].Label != Placeholder {
		t.Fatalf("label = %q, want %q", m.Nodes[0].Label, Placeholder)
	}
}

func TestStaticCoreLabelFallback(t *testing.T) {
	tests := []struct {
		name     string
		in       StaticInput
		wantCore string
	}{
		{
			name:     "summary wins",
			in:       StaticInput{Summary: "Summary claim", Candidates: extract.Candidates{extract.Core: candidates(extract.Core, 1)}, FallbackText: "Text."},
			wantCore: "Summary claim",
		},
		{
			name:     "first core candidate",
			in:       StaticInput{Candidates: extract.Candidates{extract.Core: candidates(extract.Core, 2)}, FallbackText: "Text."},
			wantCore: "core text 0",
		},
		{
			name:     "first sentence of fallback",
			in:       StaticInput{FallbackText: "Renewables are cheaper now. Costs fell by half."},
			wantCore: "Renewables are cheaper now.",
		},
		{
			name:     "placeholder",
			in:       StaticInput{FallbackText: "   "},
			wantCore: Placeholder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Static(tt.in)
			if m.Nodes[0].ID != "core" || m.Nodes[0].Label != tt.wantCore {
				t.Fatalf("core = %+v, want label %q", m.Nodes[0], tt.wantCore)
			}
		})
	}
}

func TestStaticFallbackFromDocumentWithoutThesis(t *testing.T) {
	m := staticFromDoc(t, `{"title": "Energy report"}`, "Solar adoption doubled in 2023. Wind followed.")
	if got := m.Nodes[0].Label; got != "Solar adoption doubled in 2023." {
		t.Fatalf("core label = %q", got)
	}
	if len(m.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(m.Nodes))
	}
}

func TestStaticCaps(t *testing.T) {
	m := Static(StaticInput{Candidates: extract.Candidates{
		extract.Common:   candidates(extract.Common, 9),
		extract.Diff:     candidates(extract.Diff, 7),
		extract.Evidence: candidates(extract.Evidence, 10),
	}})

	if got := countStyle(m, graph.NodeCommon); got != 6 {
		t.Errorf("common = %d, want 6", got)
	}
	if got := countStyle(m, graph.NodeDiff); got != 6 {
		t.Errorf("diff = %d, want 6", got)
	}
	if got := countStyle(m, graph.NodeEvidence); got != 2 {
		t.Errorf("key evidence = %d, want 2", got)
	}
	if got := countStyle(m, graph.NodeSatellite); got != 4 {
		t.Errorf("satellites = %d, want 4", got)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestStaticSatellitesUseSpareEvidenceInOrder(t *testing.T) {
	m := Static(StaticInput{Candidates: extract.Candidates{
		extract.Common:   candidates(extract.Common, 3),
		extract.Diff:     candidates(extract.Diff, 3),
		extract.Evidence: candidates(extract.Evidence, 5),
	}})

	want := map[string]string{
		"common-0-evidence": "evidence text 2",
		"common-1-evidence": "evidence text 3",
		"diff-0-evidence":   "evidence text 4",
	}
	for id, label := range want {
		n, ok := m.Node(id)
		if !ok || n.Label != label {
			t.Errorf("node %s = %+v, want label %q", id, n, label)
		}
	}
	if _, ok := m.Node("diff-1-evidence"); ok {
		t.Error("diff-1 should have no satellite once spare evidence runs out")
	}
	if _, ok := m.Node("common-2-evidence"); ok {
		t.Error("only the first two nodes per side get satellites")
	}
}

func TestStaticGeometry(t *testing.T) {
	m := Static(StaticInput{Candidates: extract.Candidates{
		extract.Common:   candidates(extract.Common, 2),
		extract.Diff:     candidates(extract.Diff, 2),
		extract.Evidence: candidates(extract.Evidence, 2),
	}})

	pos := func(id string) graph.Position {
		n, ok := m.Node(id)
		if !ok {
			t.Fatalf("missing node %s", id)
		}
		return n.Position
	}

	core := pos("core")
	if above := pos("evidence-0"); above.X != core.X || above.Y >= core.Y {
		t.Errorf("evidence-0 at %+v should sit above core %+v", above, core)
	}
	if below := pos("evidence-1"); below.X != core.X || below.Y <= core.Y {
		t.Errorf("evidence-1 at %+v should sit below core %+v", below, core)
	}
	if c0, c1 := pos("common-0"), pos("common-1"); c0.X >= core.X || c1.Y <= c0.Y {
		t.Errorf("common column should be left and top-down: %+v %+v", c0, c1)
	}
	if d0, d1 := pos("diff-0"), pos("diff-1"); d0.X <= core.X || d1.Y >= d0.Y {
		t.Errorf("diff column should be right and bottom-up: %+v %+v", d0, d1)
	}

	for _, e := range m.Edges {
		if strings.HasPrefix(e.Source, "evidence-") && (!e.Animated || e.Target != "core") {
			t.Errorf("key evidence edge %+v should be animated into core", e)
		}
	}
}

func TestStaticDeterministic(t *testing.T) {
	in := StaticInput{Candidates: extract.Candidates{
		extract.Common:   candidates(extract.Common, 4),
		extract.Diff:     candidates(extract.Diff, 5),
		extract.Evidence: candidates(extract.Evidence, 6),
	}, FallbackText: "Something."}
	if a, b := Static(in), Static(in); !reflect.DeepEqual(a, b) {
		t.Fatal("Static() is not deterministic")
	}
}

func TestStaticTruncatesSideLabels(t *testing.T) {
	long := strings.Repeat("가", 120)
	m := Static(StaticInput{
		Summary:       long,
		Candidates:    extract.Candidates{extract.Common: {{ID: "c", Text: long, Category: extract.Common}}},
		MaxLabelRunes: 10,
	})
	if m.Nodes[0].Label != long {
		t.Error("core label must not be truncated")
	}
	n, _ := m.Node("common-0")
	if got := []rune(n.Label); len(got) != 10 || got[9] != '…' {
		t.Errorf("common label = %q, want 10 runes ending in ellipsis", n.Label)
	}
}
