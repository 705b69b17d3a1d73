// Package status follows an evolving analysis until it reaches a terminal
// status and feeds every version into a sink.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
)

// Sink receives document versions. *session.Session implements it.
type Sink interface {
	Apply(ctx context.Context, doc analysis.Document) error
	Fail(reason string) error
}

type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
	// MaxRetries bounds the attempts per poll before the analysis is
	// reported as failed.
	MaxRetries int
	RetryDelay time.Duration
}

func (p *Poller) withDefaults() Poller {
	out := *p
	if out.Interval <= 0 {
		out.Interval = 2 * time.Second
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = 3
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 500 * time.Millisecond
	}
	return out
}

// Run polls until the document reaches a terminal status or ctx ends. When
// the retries of a single poll run out the sink is failed and Run returns.
// It returns the last status seen.
// Documents that are not valid JSON even after repair count as failed
// fetches and are retried.
func (p *Poller) Run(ctx context.Context, reportID string, sink Sink) (analysis.Status, error) {
	cfg := p.withDefaults()
	if cfg.Fetcher == nil {
		return analysis.StatusInit, errors.New("poller has no fetcher")
	}

	last := analysis.StatusInit
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		doc, err := util.RetryWithBackoff(ctx, cfg.MaxRetries, cfg.RetryDelay, func(ctx context.Context) (analysis.Document, error) {
			data, err := cfg.Fetcher.Fetch(ctx, reportID)
			if err != nil {
				logger.Debug("[Poller] Fetch failed", "report_id", reportID, "err", err)
				return analysis.Document{}, err
			}
			return analysis.Parse(data)
		})
		if err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			logger.Error("[Poller] Giving up on report", "report_id", reportID, "err", err)
			if failErr := sink.Fail(err.Error()); failErr != nil {
				logger.Warn("[Poller] Could not mark session failed", "report_id", reportID, "err", failErr)
			}
			return analysis.StatusFailed, fmt.Errorf("failed to poll report %s: %w", reportID, err)
		}

		last = doc.Status()
		if err := sink.Apply(ctx, doc); err != nil {
			return last, fmt.Errorf("failed to apply analysis for report %s: %w", reportID, err)
		}
		logger.Debug("[Poller] Applied version", "report_id", reportID, "status", last)

		if last.Terminal() {
			logger.Info("[Poller] Report finished", "report_id", reportID, "status", last)
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
