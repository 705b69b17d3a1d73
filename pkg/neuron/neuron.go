// Package neuron builds the interactive "logic neuron" map from the
// neuron_map section of an analysis document.
package neuron

import (
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/layout"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"

	"github.com/tidwall/gjson"
)

const defaultLabelRunes = 60

type Options struct {
	Force layout.ForceConfig
	// MaxLabelRunes caps node labels; 0 means 60, negative disables.
	MaxLabelRunes int
}

// Section returns the neuron map payload: the "neuron_map" object when
// present, otherwise the document root if it carries nodes itself.
func Section(doc analysis.Document) gjson.Result {
	if m := doc.Lookup("neuron_map"); m.IsObject() {
		return m
	}
	if m := doc.Lookup("neuron_map"); m.Type == gjson.String && gjson.Valid(m.String()) {
		return gjson.Parse(m.String())
	}
	if doc.Lookup("nodes").IsArray() {
		return doc.Root()
	}
	return gjson.Result{}
}

// Build turns the neuron map into a positioned model. Edges whose endpoints
// are unknown are dropped. Suggestions become hidden Zone B edges. Creative
// feedback upgrades the existing edge between its two concepts, or adds a
// new spark edge when there is none. Missing sections give an empty or
// smaller graph, never an error.
func Build(doc analysis.Document, opts Options) graph.Model {
	section := Section(doc)
	if !section.Exists() {
		return graph.Model{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	}

	b := newBuilder(opts)
	b.nodes(field(section, "nodes", "concepts"))
	b.edges(field(section, "edges", "links"))
	b.suggestions(field(section, "suggestions"))
	b.feedbacks(field(section, "creative_feedbacks", "feedbacks"))

	for i := range b.model.Edges {
		e := &b.model.Edges[i]
		e.Zone = graph.Classify(*e)
		e.Hidden = e.Zone == graph.ZoneB
		switch e.Zone {
		case graph.ZoneB:
			e.Style = graph.EdgeDashed
		case graph.ZoneC:
			e.Style = graph.EdgeAnimated
			e.Animated = true
		default:
			e.Style = graph.EdgeSolid
		}
	}

	b.model.Nodes = layout.Force(b.model.Nodes, b.model.Edges, opts.Force)
	return b.model
}

func field(v gjson.Result, names ...string) gjson.Result {
	for _, name := range names {
		if f := v.Get(gjson.Escape(name)); f.Exists() {
			return f
		}
	}
	return gjson.Result{}
}

func text(v gjson.Result, names ...string) string {
	for _, name := range names {
		if f := v.Get(gjson.Escape(name)); f.Exists() && f.Type != gjson.Null {
			if s := util.NormalizeText(f.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

type builder struct {
	model    graph.Model
	byID     map[string]string
	byLabel  map[string]string
	edgeIDs  map[string]struct{}
	maxRunes int
}

func newBuilder(opts Options) *builder {
	maxRunes := opts.MaxLabelRunes
	if maxRunes == 0 {
		maxRunes = defaultLabelRunes
	}
	return &builder{
		model:    graph.Model{Nodes: []graph.Node{}, Edges: []graph.Edge{}},
		byID:     map[string]string{},
		byLabel:  map[string]string{},
		edgeIDs:  map[string]struct{}{},
		maxRunes: maxRunes,
	}
}

func (b *builder) nodes(list gjson.Result) {
	list.ForEach(func(_, v gjson.Result) bool {
		var id, label string
		switch {
		case v.IsObject():
			id = text(v, "id", "key")
			label = text(v, "label", "name", "text", "title")
		case v.Type == gjson.String || v.Type == gjson.Number:
			label = util.NormalizeText(v.String())
		}
		if id == "" {
			id = label
		}
		if label == "" {
			label = id
		}
		if id == "" {
			return true
		}
		if _, dup := b.byID[id]; dup {
			return true
		}
		b.byID[id] = id
		if _, ok := b.byLabel[strings.ToLower(label)]; !ok {
			b.byLabel[strings.ToLower(label)] = id
		}
		b.model.Nodes = append(b.model.Nodes, graph.Node{
			ID:    id,
			Label: util.Truncate(label, b.maxRunes),
			Style: graph.NodeConcept,
		})
		return true
	})
}

// resolve maps an endpoint reference to a node id. Backends sometimes
// refer to concepts by label instead of id.
func (b *builder) resolve(ref string) (string, bool) {
	ref = util.NormalizeText(ref)
	if ref == "" {
		return "", false
	}
	if id, ok := b.byID[ref]; ok {
		return id, true
	}
	id, ok := b.byLabel[strings.ToLower(ref)]
	return id, ok
}

func (b *builder) endpoints(kind, id, rawSource, rawTarget string) (string, string, bool) {
	source, okS := b.resolve(rawSource)
	target, okT := b.resolve(rawTarget)
	if !okS || !okT || source == target {
		logger.Debug("[Neuron] Dropping edge", "kind", kind, "id", id, "source", rawSource, "target", rawTarget)
		return "", "", false
	}
	return source, target, true
}

func (b *builder) edgeID(preferred, fallback string) string {
	id := preferred
	if id == "" {
		id = fallback
	}
	if _, taken := b.edgeIDs[id]; taken {
		id = fmt.Sprintf("%s~%d", id, len(b.model.Edges))
	}
	b.edgeIDs[id] = struct{}{}
	return id
}

func (b *builder) edges(list gjson.Result) {
	i := 0
	list.ForEach(func(_, v gjson.Result) bool {
		defer func() { i++ }()
		if !v.IsObject() {
			return true
		}
		fallback := fmt.Sprintf("edge-%d", i)
		source, target, ok := b.endpoints("edge", fallback, text(v, "source", "from"), text(v, "target", "to"))
		if !ok {
			return true
		}
		e := graph.Edge{
			ID:     b.edgeID(text(v, "id"), fallback),
			Source: source,
			Target: target,
			Kind:   strings.ToLower(text(v, "type", "kind", "relation")),
		}
		if w := field(v, "weight", "strength"); w.Type == gjson.Number {
			weight := w.Float()
			e.Weight = &weight
		}
		b.model.Edges = append(b.model.Edges, e)
		return true
	})
}

func (b *builder) suggestions(list gjson.Result) {
	i := 0
	list.ForEach(func(_, v gjson.Result) bool {
		defer func() { i++ }()
		if !v.IsObject() {
			return true
		}
		fallback := fmt.Sprintf("suggestion-%d", i)
		source, target, ok := b.endpoints("suggestion", fallback, text(v, "target_node", "source"), text(v, "partner_node", "target"))
		if !ok {
			return true
		}
		guide := ""
		if s := field(v, "suggestion"); s.IsObject() {
			guide = text(s, "socratic_guide", "guide", "question", "text")
		} else {
			guide = text(v, "suggestion", "socratic_guide", "guide")
		}
		b.model.Edges = append(b.model.Edges, graph.Edge{
			ID:         b.edgeID("", fallback),
			Source:     source,
			Target:     target,
			Kind:       "suggestion",
			Suggestion: &graph.Suggestion{GuideText: guide},
		})
		return true
	})
}

func (b *builder) feedbacks(list gjson.Result) {
	i := 0
	list.ForEach(func(_, v gjson.Result) bool {
		defer func() { i++ }()
		if !v.IsObject() {
			return true
		}
		concepts := field(v, "concepts", "nodes").Array()
		if len(concepts) < 2 {
			return true
		}
		fallback := fmt.Sprintf("spark-%d", i)
		source, target, ok := b.endpoints("feedback", fallback, concepts[0].String(), concepts[1].String())
		if !ok {
			return true
		}
		fb := &graph.Feedback{
			Judgment: graph.ParseJudgment(text(v, "judgment", "verdict")),
			Text:     text(v, "feedback", "comment", "text"),
		}

		for j := range b.model.Edges {
			e := &b.model.Edges[j]
			if e.Suggestion != nil || e.Feedback != nil {
				continue
			}
			if (e.Source == source && e.Target == target) || (e.Source == target && e.Target == source) {
				e.Feedback = fb
				return true
			}
		}
		b.model.Edges = append(b.model.Edges, graph.Edge{
			ID:       b.edgeID("", fallback),
			Source:   source,
			Target:   target,
			Kind:     "creative_spark",
			Feedback: fb,
		})
		return true
	})
}
