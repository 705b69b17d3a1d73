package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
	"github.com/OFFIS-RIT/logicflow/pkg/graph"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func zoneColor(z graph.Zone) *color.Color {
	switch z {
	case graph.ZoneB:
		return warn
	case graph.ZoneC:
		return bad
	default:
		return good
	}
}

// writeModel prints a model as an indented node list followed by its edges.
func writeModel(w io.Writer, title string, m graph.Model) {
	brand.Fprintf(w, "%s\n", title)
	subtle.Fprintf(w, "  %d nodes, %d edges\n", len(m.Nodes), len(m.Edges))

	for _, n := range m.Nodes {
		fmt.Fprintf(w, "  %-22s %8.1f %8.1f  %s\n",
			n.ID, n.Position.X, n.Position.Y, n.Label)
	}
	if len(m.Edges) > 0 {
		fmt.Fprintln(w)
	}
	for _, e := range m.Edges {
		flags := []string{string(e.Style)}
		if e.Hidden {
			flags = append(flags, "hidden")
		}
		fmt.Fprintf(w, "  %s %s -> %s  %s\n",
			zoneColor(e.Zone).Sprintf("[%s]", e.Zone), e.Source, e.Target, subtle.Sprint(strings.Join(flags, ",")))
		switch {
		case e.Feedback != nil:
			fmt.Fprintf(w, "      %s: %s\n", e.Feedback.Judgment, e.Feedback.Text)
		case e.Suggestion != nil && e.Suggestion.GuideText != "":
			fmt.Fprintf(w, "      ? %s\n", e.Suggestion.GuideText)
		}
	}
}

func statusColor(s analysis.Status) *color.Color {
	switch s {
	case analysis.StatusDone:
		return good
	case analysis.StatusFailed:
		return bad
	case analysis.StatusPartial:
		return warn
	default:
		return subtle
	}
}
