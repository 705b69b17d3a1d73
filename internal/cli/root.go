// Package cli implements the logicmap command.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/logger/console"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

type rootOptions struct {
	configPath string
	asJSON     bool
	debug      bool
	steps      int

	cfg *Config
}

// pipelineOptions merges the config file with flags.
func (o *rootOptions) pipelineOptions() pipeline.Options {
	opts := pipeline.Options{
		FallbackText:  o.cfg.Layout.Fallback,
		MaxLabelRunes: o.cfg.Layout.MaxLabelRunes,
		Force:         o.cfg.Force,
	}
	if o.steps > 0 {
		opts.Force.Steps = o.steps
	}
	return opts
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "logicmap",
		Short:         "Lay out report logic graphs from analysis documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug:  opts.debug,
				Output: cmd.ErrOrStderr(),
			}))
			cfg, err := LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a layout.toml file")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print the graph as JSON")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", util.GetEnvBool("DEBUG", false), "Enable debug logging")
	cmd.PersistentFlags().IntVar(&opts.steps, "steps", 0, "Override the number of force simulation steps")

	cmd.AddCommand(
		staticCmd(opts),
		neuronCmd(opts),
		watchCmd(opts),
		enqueueCmd(opts),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	util.LoadEnv()
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		bad.Fprintf(os.Stderr, "logicmap: %v\n", err)
		return 1
	}
	return 0
}

// readDocument reads a document file, or stdin for "-".
func readDocument(cmd *cobra.Command, path string) (analysis.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return analysis.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := analysis.Parse(data)
	if err != nil {
		return analysis.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func staticCmd(opts *rootOptions) *cobra.Command {
	var fallback string
	cmd := &cobra.Command{
		Use:   "static <file|->",
		Short: "Lay out the summary-flow chart of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			popts := opts.pipelineOptions()
			if fallback != "" {
				popts.FallbackText = fallback
			}
			m := pipeline.Static(doc, popts)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			writeModel(cmd.OutOrStdout(), "summary flow", m)
			return nil
		},
	}
	cmd.Flags().StringVar(&fallback, "fallback", "", "Free text used for the core label when the document has no thesis")
	return cmd
}

func neuronCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "neuron <file|->",
		Short: "Lay out the logic neuron map of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			m := pipeline.Neuron(doc, opts.pipelineOptions())
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), m)
			}
			writeModel(cmd.OutOrStdout(), "logic neuron map", m)
			c := m.Counts()
			subtle.Fprintf(cmd.OutOrStdout(), "\n  zone A %d, zone B %d (hidden %d), zone C %d\n", c.A, c.B, c.Hidden, c.C)
			return nil
		},
	}
}
