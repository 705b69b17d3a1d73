package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalFlexible decodes input into out, accepting double-encoded JSON
// strings and input that jsonrepair can fix.
//
// Example:
//
//	UnmarshalFlexible(`{"report_id": "r1"}`, &msg)         // standard JSON
//	UnmarshalFlexible(`"{\"report_id\": \"r1\"}"`, &msg)   // double-encoded
//	UnmarshalFlexible(`{report_id: "r1",}`, &msg)           // repaired
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("failed to unmarshal repaired json: %w", err)
	}
	return nil
}
