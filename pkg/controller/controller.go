// Package controller owns a graph model after layout and mediates every
// interaction with it. It also tracks analysis readiness.
package controller

import (
	"errors"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrUnknownEdge = errors.New("unknown edge")
	ErrEdgeHidden  = errors.New("edge is hidden")
)

// NodeActivation is passed to node hooks.
type NodeActivation struct {
	Node     graph.Node `json:"node"`
	Revealed int        `json:"revealed"`
	// Edges are the edges touching the node that are visible after reveal.
	Edges []graph.Edge `json:"edges"`
}

type (
	NodeHook func(NodeActivation)
	EdgeHook func(graph.Edge)
)

type Option func(*Controller)

// WithStatus sets the starting readiness state instead of init.
func WithStatus(s analysis.Status) Option {
	return func(c *Controller) {
		c.status = s
	}
}

// Controller is safe for concurrent use. Hooks run outside the lock, so a
// hook may call back into the controller.
type Controller struct {
	mu        sync.RWMutex
	model     graph.Model
	status    analysis.Status
	err       string
	nodeHooks []NodeHook
	edgeHooks []EdgeHook
}

// New takes a copy of model. Edges that arrive without a zone are
// classified from their payload.
func New(model graph.Model, opts ...Option) *Controller {
	c := &Controller{
		model:  model.Clone(),
		status: analysis.StatusInit,
	}
	for i := range c.model.Edges {
		e := &c.model.Edges[i]
		if e.Zone == "" {
			e.Zone = ClassifyEdge(*e)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyEdge returns the interaction zone of e.
func ClassifyEdge(e graph.Edge) graph.Zone {
	return graph.Classify(e)
}

// RevealEdgesTouching makes every hidden Zone B edge at nodeID visible and
// returns how many were newly revealed.
func (c *Controller) RevealEdgesTouching(nodeID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reveal(nodeID)
}

func (c *Controller) reveal(nodeID string) int {
	revealed := 0
	for i := range c.model.Edges {
		e := &c.model.Edges[i]
		if e.Zone == graph.ZoneB && e.Hidden && e.Touches(nodeID) {
			e.Hidden = false
			revealed++
		}
	}
	return revealed
}

func (c *Controller) OnNodeActivate(fn NodeHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodeHooks = append(c.nodeHooks, fn)
}

func (c *Controller) OnEdgeActivate(fn EdgeHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edgeHooks = append(c.edgeHooks, fn)
}

// ActivateNode handles a click on a node: suggestion edges touching it are
// revealed, then every node hook receives the node and the reveal count.
func (c *Controller) ActivateNode(nodeID string) (NodeActivation, error) {
	c.mu.Lock()
	node, ok := c.model.Node(nodeID)
	if !ok {
		c.mu.Unlock()
		return NodeActivation{}, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID)
	}
	act := NodeActivation{
		Node:     node,
		Revealed: c.reveal(nodeID),
		Edges:    []graph.Edge{},
	}
	for _, e := range c.model.Clone().Edges {
		if !e.Hidden && e.Touches(nodeID) {
			act.Edges = append(act.Edges, e)
		}
	}
	hooks := append([]NodeHook(nil), c.nodeHooks...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(act)
	}
	return act, nil
}

// ActivateEdge hands the edge, with its feedback or suggestion, to every
// edge hook. Hidden edges cannot be activated.
func (c *Controller) ActivateEdge(edgeID string) (graph.Edge, error) {
	c.mu.RLock()
	e, ok := c.model.Edge(edgeID)
	hooks := append([]EdgeHook(nil), c.edgeHooks...)
	c.mu.RUnlock()

	if !ok {
		return graph.Edge{}, fmt.Errorf("%w: %s", ErrUnknownEdge, edgeID)
	}
	if e.Hidden {
		return graph.Edge{}, fmt.Errorf("%w: %s", ErrEdgeHidden, edgeID)
	}
	e = graph.Model{Edges: []graph.Edge{e}}.Clone().Edges[0]
	for _, fn := range hooks {
		fn(e)
	}
	return e, nil
}

// Model returns a deep copy of the current model.
func (c *Controller) Model() graph.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model.Clone()
}

func (c *Controller) VisibleEdges() []graph.Edge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model.Clone().VisibleEdges()
}

func (c *Controller) Counts() graph.ZoneCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model.Counts()
}

func (c *Controller) Status() analysis.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Err returns the upstream failure text once the controller has failed.
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Transition moves one step through the readiness state machine. Staying in
// a terminal state is a no-op; leaving one is ErrInvalidTransition.
func (c *Controller) Transition(to analysis.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == to {
		return nil
	}
	if !CanTransition(c.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.status, to)
	}
	c.status = to
	return nil
}

// Advance moves to the target status through the intermediate states, so a
// poller that first sees "done" still passes through processing.
func (c *Controller) Advance(to analysis.Status) error {
	steps, err := path(c.Status(), to)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if err := c.Transition(step); err != nil {
			return err
		}
	}
	return nil
}

// Fail records an upstream failure as reported, without retrying.
func (c *Controller) Fail(reason string) error {
	if err := c.Advance(analysis.StatusFailed); err != nil {
		return err
	}
	c.mu.Lock()
	c.err = reason
	c.mu.Unlock()
	return nil
}

// Interactive reports whether the graph may be shown and clicked.
func (c *Controller) Interactive() bool {
	s := c.Status()
	return s == analysis.StatusPartial || s == analysis.StatusDone
}

// Graph returns the model when it may be displayed. A failed analysis shows
// no partial graph.
func (c *Controller) Graph() (graph.Model, bool) {
	if !c.Interactive() {
		return graph.Model{}, false
	}
	return c.Model(), true
}
