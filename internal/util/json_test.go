package util

import "testing"

func TestUnmarshalFlexible(t *testing.T) {
	type msg struct {
		ReportID string `json:"report_id"`
	}
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain", input: `{"report_id": "r1"}`},
		{name: "double encoded", input: `"{\"report_id\": \"r1\"}"`},
		{name: "trailing comma", input: `{"report_id": "r1",}`},
		{name: "unquoted key", input: `{report_id: "r1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got msg
			if err := UnmarshalFlexible(tt.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.ReportID != "r1" {
				t.Fatalf("report_id = %q", got.ReportID)
			}
		})
	}
}
