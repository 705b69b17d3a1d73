package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/logicflow/internal/storage"
	"github.com/OFFIS-RIT/logicflow/internal/util"
	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/logger"
	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"
)

var ErrInvalidMessage = errors.New("invalid analysis update message")

const publishTries = 3

// Processor turns analysis updates into published graphs.
type Processor struct {
	Channel Channel
	// S3 is optional; messages without an inline document need it.
	S3       storage.ObjectAPI
	Bucket   string
	Prefix   string
	Pipeline pipeline.Options
}

// ProcessAnalysisUpdate builds both graphs for the document in msg and
// publishes them on the report's graph topic.
func (p *Processor) ProcessAnalysisUpdate(ctx context.Context, msg string) error {
	data := new(AnalysisUpdateMsg)
	if err := util.UnmarshalFlexible(msg, data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if data.ReportID == "" {
		return fmt.Errorf("%w: missing report_id", ErrInvalidMessage)
	}

	raw, err := p.documentBytes(ctx, data)
	if err != nil {
		return err
	}
	doc, err := analysis.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse analysis for report %s: %w", data.ReportID, err)
	}

	opts := p.Pipeline
	if data.FallbackText != "" {
		opts.FallbackText = data.FallbackText
	}
	res, err := pipeline.Build(ctx, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to build graphs for report %s: %w", data.ReportID, err)
	}

	out, err := json.Marshal(GraphUpdateMsg{
		ReportID: data.ReportID,
		Result:   res,
		BuiltAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal graph update: %w", err)
	}

	topic := GraphTopic(data.ReportID)
	err = util.RetryErrWithContext(ctx, publishTries, func(context.Context) error {
		return PublishTopic(p.Channel, topic, out)
	})
	if err != nil {
		return fmt.Errorf("failed to publish graph update to %s: %w", topic, err)
	}

	logger.Info(
		"[Queue] Published graph update",
		"report_id", data.ReportID,
		"status", res.Status,
		"static_nodes", len(res.Static.Nodes),
		"neuron_nodes", len(res.Neuron.Nodes),
	)
	return nil
}

func (p *Processor) documentBytes(ctx context.Context, data *AnalysisUpdateMsg) ([]byte, error) {
	if len(data.Document) > 0 && string(data.Document) != "null" {
		return data.Document, nil
	}
	if p.S3 == nil {
		return nil, fmt.Errorf("%w: no inline document and no S3 client", ErrInvalidMessage)
	}
	key := data.S3Key
	if key == "" {
		key = storage.AnalysisKey(p.Prefix, data.ReportID)
	}
	return storage.GetFile(ctx, p.S3, p.Bucket, key)
}
