package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/logicflow/internal/session"
	"github.com/OFFIS-RIT/logicflow/internal/status"
	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"

	"github.com/spf13/cobra"
)

// printingSink prints every snapshot after the session has applied it.
type printingSink struct {
	s      *session.Session
	out    io.Writer
	asJSON bool
}

func (p *printingSink) Apply(ctx context.Context, doc analysis.Document) error {
	if err := p.s.Apply(ctx, doc); err != nil {
		return err
	}
	p.print()
	return nil
}

func (p *printingSink) Fail(reason string) error {
	if err := p.s.Fail(reason); err != nil {
		return err
	}
	p.print()
	return nil
}

func (p *printingSink) print() {
	snap := p.s.Snapshot()
	if p.asJSON {
		_ = writeJSON(p.out, snap)
		return
	}
	fmt.Fprintf(p.out, "%s %s  version %d\n",
		brand.Sprint(snap.ReportID), statusColor(snap.Status).Sprint(snap.Status), snap.Version)
	if snap.Error != "" {
		bad.Fprintf(p.out, "  %s\n", snap.Error)
	}
	if snap.Neuron != nil {
		subtle.Fprintf(p.out, "  neuron: %d nodes, %d edges (%d hidden)\n",
			len(snap.Neuron.Nodes), len(snap.Neuron.Edges), snap.Counts.Hidden)
	}
	if snap.Panels.Arrived {
		subtle.Fprintf(p.out, "  integrity issues: %d, flow disconnects: %d\n",
			len(snap.Panels.IntegrityIssues), len(snap.Panels.FlowDisconnects))
	}
}

func watchCmd(opts *rootOptions) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "watch <report-id>",
		Short: "Poll a report's analysis until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				baseURL = opts.cfg.Watch.BaseURL
			}
			if baseURL == "" {
				baseURL = util.GetEnv("ANALYSIS_BASE_URL")
			}
			if baseURL == "" {
				return errors.New("no analysis endpoint: pass --base-url or set ANALYSIS_BASE_URL")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := session.NewRegistry(opts.pipelineOptions()).Create(args[0], "http")
			if err != nil {
				return err
			}
			p := &status.Poller{
				Fetcher:    status.NewHTTPFetcher(baseURL),
				Interval:   opts.cfg.Watch.Interval.Duration,
				MaxRetries: opts.cfg.Watch.MaxRetries,
			}
			sink := &printingSink{s: s, out: cmd.OutOrStdout(), asJSON: opts.asJSON}

			final, err := p.Run(ctx, args[0], sink)
			if err != nil {
				return err
			}
			if final == analysis.StatusFailed {
				return fmt.Errorf("analysis of %s failed: %s", args[0], s.Snapshot().Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Analysis API base URL")
	return cmd
}
