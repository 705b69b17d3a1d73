package queue

import (
	"encoding/json"
	"time"

	"github.com/OFFIS-RIT/logicflow/pkg/pipeline"
)

// AnalysisUpdateMsg announces a new version of a report's analysis. The
// document is either inline or stored in S3 under S3Key; with neither set
// the worker reads the report's default key.
type AnalysisUpdateMsg struct {
	ReportID string          `json:"report_id" validate:"required"`
	Document json.RawMessage `json:"document,omitempty"`
	S3Key    string          `json:"s3_key,omitempty"`
	// FallbackText is free report text for the static core label.
	FallbackText string `json:"fallback_text,omitempty"`
}

// GraphUpdateMsg is published on graph.<report_id> after every build.
type GraphUpdateMsg struct {
	ReportID string          `json:"report_id"`
	Result   pipeline.Result `json:"result"`
	BuiltAt  time.Time       `json:"built_at"`
}

// GraphTopic is the routing key graphs of reportID are published under.
func GraphTopic(reportID string) string {
	return "graph." + reportID
}

// EnqueueAnalysisUpdate publishes msg on the analysis queue.
func EnqueueAnalysisUpdate(ch Channel, msg AnalysisUpdateMsg) error {
	if msg.ReportID == "" {
		return ErrInvalidMessage
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, AnalysisQueue, data)
}
