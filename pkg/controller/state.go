package controller

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/logicflow/pkg/analysis"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// allowed lists the legal moves out of each non-terminal state. Self moves
// on processing and partial are accepted as no-ops.
var allowed = map[analysis.Status][]analysis.Status{
	analysis.StatusInit:       {analysis.StatusProcessing},
	analysis.StatusProcessing: {analysis.StatusProcessing, analysis.StatusPartial, analysis.StatusDone, analysis.StatusFailed},
	analysis.StatusPartial:    {analysis.StatusPartial, analysis.StatusDone, analysis.StatusFailed},
}

// CanTransition reports whether from -> to is a legal single step.
func CanTransition(from, to analysis.Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// path returns the canonical steps that lead from "from" to "to", or an
// error when "to" is not reachable.
func path(from, to analysis.Status) ([]analysis.Status, error) {
	if from == to {
		return nil, nil
	}
	if from.Terminal() {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	order := []analysis.Status{analysis.StatusInit, analysis.StatusProcessing, analysis.StatusPartial}

	var steps []analysis.Status
	cur := from
	for !CanTransition(cur, to) {
		next := analysis.Status("")
		for i, s := range order {
			if s == cur && i+1 < len(order) {
				next = order[i+1]
			}
		}
		if next == "" {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		steps = append(steps, next)
		cur = next
	}
	return append(steps, to), nil
}
