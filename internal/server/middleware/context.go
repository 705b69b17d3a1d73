package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/logicflow/internal/session"
	"github.com/OFFIS-RIT/logicflow/internal/status"
	"github.com/OFFIS-RIT/logicflow/internal/storage"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"
)

// App is shared by every request.
type App struct {
	Sessions *session.Registry
	// Sources maps a source name ("http", "s3") to its fetcher.
	Sources       map[string]status.Fetcher
	DefaultSource string
	// Poll carries interval and retry settings; its Fetcher is ignored.
	Poll     status.Poller
	Pipeline pipeline.Options
	// Layouts bounds concurrent ad-hoc layout requests. Nil means no limit.
	Layouts *semaphore.Weighted

	S3     storage.ObjectAPI
	Bucket string
	Prefix string

	// BaseContext bounds background pollers and is canceled on shutdown.
	BaseContext context.Context

	mu      sync.Mutex
	pollers map[string]context.CancelFunc
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

// StartPolling follows the session's report in the background until it
// finishes or StopPolling is called.
func (a *App) StartPolling(s *session.Session) error {
	name := s.Source
	if name == "" {
		name = a.DefaultSource
	}
	fetcher, ok := a.Sources[name]
	if !ok {
		return fmt.Errorf("unknown analysis source %q", name)
	}

	base := a.BaseContext
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithCancel(base)

	a.mu.Lock()
	if a.pollers == nil {
		a.pollers = map[string]context.CancelFunc{}
	}
	a.pollers[s.ID] = cancel
	a.mu.Unlock()

	p := a.Poll
	p.Fetcher = fetcher
	go func() {
		defer a.StopPolling(s.ID)
		final, err := p.Run(ctx, s.ReportID, s)
		if err != nil && ctx.Err() == nil {
			logger.Error("[Server] Polling stopped", "session", s.ID, "report_id", s.ReportID, "err", err)
			return
		}
		logger.Debug("[Server] Polling finished", "session", s.ID, "status", final)
	}()
	return nil
}

// AcquireLayout waits for a layout slot. The returned release must be
// called once the layout is done.
func (a *App) AcquireLayout(ctx context.Context) (func(), error) {
	if a.Layouts == nil {
		return func() {}, nil
	}
	if err := a.Layouts.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { a.Layouts.Release(1) }, nil
}

func (a *App) StopPolling(id string) {
	a.mu.Lock()
	cancel, ok := a.pollers[id]
	delete(a.pollers, id)
	a.mu.Unlock()
	if ok {
		cancel()
	}
}
