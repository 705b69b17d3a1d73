package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/logicflow/internal/util"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned by Parse when the input is not JSON even after
// repair. The accompanying Document is empty and still safe to use.
var ErrMalformed = errors.New("malformed analysis document")

// Document is a read-only view over an analysis result. It keeps the raw
// JSON so that object keys are visited in the order the backend wrote them.
type Document struct {
	root gjson.Result
}

// SidePanels carries the side-channel checks that may arrive after the graph.
type SidePanels struct {
	IntegrityIssues []string `json:"integrity_issues"`
	FlowDisconnects []string `json:"flow_disconnects"`
	Arrived         bool     `json:"arrived"`
}

// Parse turns raw bytes into a Document. Model output is often almost-JSON,
// so double-encoded strings are unwrapped and broken input goes through
// jsonrepair before giving up.
//
// Example:
//
//	doc, _ := analysis.Parse([]byte(`{Core_Thesis: "x",}`)) // repaired
func Parse(data []byte) (Document, error) {
	input := strings.TrimSpace(string(data))
	if input == "" {
		return Document{}, nil
	}

	if gjson.Valid(input) {
		res := gjson.Parse(input)
		if res.Type == gjson.String {
			inner := strings.TrimSpace(res.String())
			if gjson.Valid(inner) {
				return Document{root: gjson.Parse(inner)}, nil
			}
		}
		return Document{root: res}, nil
	}

	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !gjson.Valid(repaired) {
		return Document{}, ErrMalformed
	}
	return Document{root: gjson.Parse(repaired)}, nil
}

// MustParse is Parse for literals in tests and examples.
func MustParse(s string) Document {
	doc, err := Parse([]byte(s))
	if err != nil {
		panic(err)
	}
	return doc
}

func (d Document) Root() gjson.Result {
	return d.root
}

func (d Document) Raw() string {
	return d.root.Raw
}

func (d Document) IsEmpty() bool {
	return !d.root.Exists() || d.root.Raw == "" || d.root.Raw == "{}" || d.root.Raw == "null"
}

// Lookup walks keys from the root, comparing them case-insensitively after
// normalization, so "summary"/"Summary" and decomposed Hangul keys resolve.
func (d Document) Lookup(keys ...string) gjson.Result {
	cur := d.root
	for _, key := range keys {
		want := util.NormalizeText(key)
		var found gjson.Result
		if !cur.IsObject() {
			return gjson.Result{}
		}
		cur.ForEach(func(k, v gjson.Result) bool {
			if strings.EqualFold(util.NormalizeText(k.String()), want) {
				found = v
				return false
			}
			return true
		})
		if !found.Exists() {
			return gjson.Result{}
		}
		cur = found
	}
	return cur
}

var summaryFields = [][]string{
	{"Summary", "Core_Thesis"},
	{"Summary", "핵심_주장"},
	{"Summary", "main_claim"},
	{"Core_Thesis"},
	{"핵심_주장"},
	{"핵심주장"},
	{"main_claim"},
}

// Summary returns the explicitly labelled core thesis, or "".
func (d Document) Summary() string {
	for _, path := range summaryFields {
		v := d.Lookup(path...)
		if v.Type != gjson.String {
			continue
		}
		if s := util.NormalizeText(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// Status reads the backend status. An "error" field wins over everything.
// Without a status field, a document that carries the neuron map or the
// side panels counts as done and anything else as still processing.
func (d Document) Status() Status {
	if d.Error() != "" {
		return StatusFailed
	}
	for _, key := range []string{"status", "analysis_status"} {
		if v := d.Lookup(key); v.Exists() {
			return ParseStatus(v.String())
		}
	}
	if d.IsEmpty() {
		return StatusInit
	}
	if d.Lookup("neuron_map").Exists() || d.Lookup("nodes").Exists() || d.SidePanels().Arrived {
		return StatusDone
	}
	return StatusProcessing
}

// Error returns the upstream failure text, if any.
func (d Document) Error() string {
	for _, key := range []string{"error", "error_message"} {
		v := d.Lookup(key)
		switch {
		case v.Type == gjson.String:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		case v.IsObject():
			if msg := v.Get("message"); msg.Exists() && msg.String() != "" {
				return msg.String()
			}
			return v.Raw
		}
	}
	return ""
}

// SidePanels collects the integrity and flow-check results.
func (d Document) SidePanels() SidePanels {
	integrity := d.Lookup("integrity_issues")
	flow := d.Lookup("flow_disconnects")
	return SidePanels{
		IntegrityIssues: panelItems(integrity),
		FlowDisconnects: panelItems(flow),
		Arrived:         integrity.Exists() || flow.Exists(),
	}
}

func panelItems(v gjson.Result) []string {
	items := []string{}
	if !v.IsArray() {
		return items
	}
	v.ForEach(func(_, item gjson.Result) bool {
		text := ""
		switch {
		case item.Type == gjson.String:
			text = item.String()
		case item.IsObject():
			for _, field := range []string{"message", "description", "issue", "text", "reason"} {
				if f := item.Get(field); f.Type == gjson.String && f.String() != "" {
					text = f.String()
					break
				}
			}
			if text == "" {
				text = item.Raw
			}
		case item.Exists():
			text = item.Raw
		}
		if text = util.NormalizeText(text); text != "" {
			items = append(items, text)
		}
		return true
	})
	return items
}
