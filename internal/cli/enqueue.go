package cli

import (
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/logicflow/internal/queue"

	"github.com/spf13/cobra"
)

func enqueueCmd(opts *rootOptions) *cobra.Command {
	var (
		file     string
		s3Key    string
		fallback string
	)
	cmd := &cobra.Command{
		Use:   "enqueue <report-id>",
		Short: "Queue an analysis update for the layout worker",
		Long: "Publishes an analysis update on the worker queue. The document is sent inline\n" +
			"with --file, otherwise the worker reads it from S3.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := queue.AnalysisUpdateMsg{
				ReportID:     args[0],
				S3Key:        s3Key,
				FallbackText: fallback,
			}
			if file != "" {
				doc, err := readDocument(cmd, file)
				if err != nil {
					return err
				}
				msg.Document = json.RawMessage(doc.Raw())
			}

			conn := queue.Init(cmd.Context())
			defer conn.Close()
			ch, err := conn.Channel()
			if err != nil {
				return fmt.Errorf("failed to open channel: %w", err)
			}
			defer ch.Close()

			if err := queue.EnqueueAnalysisUpdate(ch, msg); err != nil {
				return fmt.Errorf("failed to enqueue %s: %w", args[0], err)
			}
			good.Fprintf(cmd.OutOrStdout(), "queued %s on %s\n", args[0], queue.AnalysisQueue)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Send this document inline (- for stdin)")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "Object key of the document")
	cmd.Flags().StringVar(&fallback, "fallback", "", "Free text used for the core label when the document has no thesis")
	return cmd
}
