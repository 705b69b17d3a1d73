package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Registry holds the live sessions of a process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     pipeline.Options
}

func NewRegistry(opts pipeline.Options) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		opts:     opts,
	}
}

// Create starts a new session for reportID. Several sessions may follow
// the same report.
func (r *Registry) Create(reportID, source string) (*Session, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	s := newSession(id, reportID, source, r.opts)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.Info("[Session] Created", "session", id, "report_id", reportID, "source", source)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// List returns all sessions ordered by id.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
