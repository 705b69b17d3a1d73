package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/controller"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrFinished       = errors.New("session already finished")
	ErrNotInteractive = errors.New("graph is not interactive yet")
)

// Snapshot is what a renderer needs to draw a session. Graphs are only
// present while the analysis is partial or done.
type Snapshot struct {
	ID        string              `json:"id"`
	ReportID  string              `json:"report_id"`
	Source    string              `json:"source"`
	Status    analysis.Status     `json:"status"`
	Error     string              `json:"error,omitempty"`
	Version   int                 `json:"version"`
	Static    *graph.Model        `json:"static,omitempty"`
	Neuron    *graph.Model        `json:"neuron,omitempty"`
	Counts    graph.ZoneCounts    `json:"counts"`
	Panels    analysis.SidePanels `json:"side_panels"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Session follows one report. Every document version is built completely
// before it replaces the current one; reveal state of the previous version
// is dropped with it.
type Session struct {
	ID       string
	ReportID string
	Source   string

	opts pipeline.Options

	mu        sync.RWMutex
	ctrl      *controller.Controller
	static    graph.Model
	panels    analysis.SidePanels
	version   int
	updatedAt time.Time

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	hookMu    sync.Mutex
	nodeHooks map[int]controller.NodeHook
	edgeHooks map[int]controller.EdgeHook
	nextHook  int
}

func newSession(id, reportID, source string, opts pipeline.Options) *Session {
	s := &Session{
		ID:        id,
		ReportID:  reportID,
		Source:    source,
		opts:      opts,
		updatedAt: time.Now(),
		subs:      map[int]chan Snapshot{},
		nodeHooks: map[int]controller.NodeHook{},
		edgeHooks: map[int]controller.EdgeHook{},
	}
	s.ctrl = s.newController(graph.Model{})
	return s
}

// newController wires the session's hooks into a fresh controller so
// registrations outlive document versions.
func (s *Session) newController(m graph.Model, opts ...controller.Option) *controller.Controller {
	ctrl := controller.New(m, opts...)
	ctrl.OnNodeActivate(s.fireNode)
	ctrl.OnEdgeActivate(s.fireEdge)
	return ctrl
}

// Apply rebuilds both graphs from doc and swaps them in. The status only
// moves forward: a document reporting an earlier stage than the session
// already reached keeps the session's status.
func (s *Session) Apply(ctx context.Context, doc analysis.Document) error {
	res, err := pipeline.Build(ctx, doc, s.opts)
	if err != nil {
		return fmt.Errorf("failed to build graphs for report %s: %w", s.ReportID, err)
	}

	s.mu.Lock()
	current := s.ctrl.Status()
	if current.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFinished, current)
	}

	ctrl := s.newController(res.Neuron, controller.WithStatus(current))
	switch res.Status {
	case analysis.StatusFailed:
		err = ctrl.Fail(res.Error)
	default:
		err = ctrl.Advance(res.Status)
	}
	if err != nil {
		logger.Warn("[Session] Ignoring status regression", "session", s.ID, "from", current, "to", res.Status)
	}

	s.ctrl = ctrl
	s.static = res.Static
	s.panels = res.Panels
	s.version++
	s.updatedAt = time.Now()
	version := s.version
	s.mu.Unlock()

	logger.Debug("[Session] Applied document", "session", s.ID, "version", version, "status", ctrl.Status())
	s.publish()
	return nil
}

// Fail marks the session as failed with reason, for errors that never made
// it into a document such as exhausted fetch retries.
func (s *Session) Fail(reason string) error {
	s.mu.Lock()
	err := s.ctrl.Fail(reason)
	if err == nil {
		s.updatedAt = time.Now()
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	logger.Warn("[Session] Analysis failed", "session", s.ID, "report_id", s.ReportID, "reason", reason)
	s.publish()
	return nil
}

func (s *Session) Status() analysis.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl.Status()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:        s.ID,
		ReportID:  s.ReportID,
		Source:    s.Source,
		Status:    s.ctrl.Status(),
		Error:     s.ctrl.Err(),
		Version:   s.version,
		Counts:    s.ctrl.Counts(),
		Panels:    s.panels,
		UpdatedAt: s.updatedAt,
	}
	if m, ok := s.ctrl.Graph(); ok {
		static := s.static.Clone()
		snap.Static = &static
		snap.Neuron = &m
	}
	return snap
}

func (s *Session) controller() (*controller.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ctrl.Interactive() {
		return nil, fmt.Errorf("%w: status %s", ErrNotInteractive, s.ctrl.Status())
	}
	return s.ctrl, nil
}

// ActivateNode forwards a node click to the current neuron graph.
// Subscribers receive a new snapshot when edges were revealed.
func (s *Session) ActivateNode(nodeID string) (controller.NodeActivation, error) {
	ctrl, err := s.controller()
	if err != nil {
		return controller.NodeActivation{}, err
	}
	act, err := ctrl.ActivateNode(nodeID)
	if err != nil {
		return controller.NodeActivation{}, err
	}
	if act.Revealed > 0 {
		s.publish()
	}
	return act, nil
}

func (s *Session) ActivateEdge(edgeID string) (graph.Edge, error) {
	ctrl, err := s.controller()
	if err != nil {
		return graph.Edge{}, err
	}
	return ctrl.ActivateEdge(edgeID)
}

// OnNodeActivate registers fn for every node activation on this session,
// across document versions. Call remove to unregister.
func (s *Session) OnNodeActivate(fn controller.NodeHook) (remove func()) {
	s.hookMu.Lock()
	id := s.nextHook
	s.nextHook++
	s.nodeHooks[id] = fn
	s.hookMu.Unlock()

	return func() {
		s.hookMu.Lock()
		delete(s.nodeHooks, id)
		s.hookMu.Unlock()
	}
}

func (s *Session) OnEdgeActivate(fn controller.EdgeHook) (remove func()) {
	s.hookMu.Lock()
	id := s.nextHook
	s.nextHook++
	s.edgeHooks[id] = fn
	s.hookMu.Unlock()

	return func() {
		s.hookMu.Lock()
		delete(s.edgeHooks, id)
		s.hookMu.Unlock()
	}
}

func (s *Session) fireNode(act controller.NodeActivation) {
	s.hookMu.Lock()
	hooks := make([]controller.NodeHook, 0, len(s.nodeHooks))
	for _, fn := range s.nodeHooks {
		hooks = append(hooks, fn)
	}
	s.hookMu.Unlock()

	for _, fn := range hooks {
		fn(act)
	}
}

func (s *Session) fireEdge(e graph.Edge) {
	s.hookMu.Lock()
	hooks := make([]controller.EdgeHook, 0, len(s.edgeHooks))
	for _, fn := range s.edgeHooks {
		hooks = append(hooks, fn)
	}
	s.hookMu.Unlock()

	for _, fn := range hooks {
		fn(e)
	}
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers skip intermediate versions. Call cancel to stop receiving.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	ch <- s.Snapshot()

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *Session) publish() {
	snap := s.Snapshot()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
