package policy

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Engine evaluates proposals against an ordered rule set plus a confidence
// threshold for auto-resolves. The rule list is fixed at construction, so a
// single engine is safe for concurrent Evaluate calls.
type Engine struct {
	rules                []Rule
	autoResolveThreshold float64
}

func NewEngine(autoResolveThreshold float64, rules ...Rule) (*Engine, error) {
	if math.IsNaN(autoResolveThreshold) || autoResolveThreshold < 0.0 || autoResolveThreshold > 1.0 {
		return nil, fmt.Errorf("auto-resolve threshold %v is outside [0.0, 1.0]", autoResolveThreshold)
	}
	return &Engine{
		rules:                append([]Rule(nil), rules...),
		autoResolveThreshold: autoResolveThreshold,
	}, nil
}

func (e *Engine) AutoResolveThreshold() float64 {
	return e.autoResolveThreshold
}

// Evaluate runs every registered rule in order and aggregates one decision.
// The first deny short-circuits: later rules are not consulted. Soft
// adjustments from passing rules accumulate; their non-empty reasons are
// collected as notes in registration order. A rule error aborts evaluation
// and is returned as-is — converting faults into verdicts is the caller's
// concern.
func (e *Engine) Evaluate(ctx context.Context, proposal Proposal, ec EvalContext) (Decision, error) {
	totalAdjustment := 0.0
	var notes []string

	for _, rule := range e.rules {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}

		decision, err := rule.Evaluate(ctx, proposal, ec)
		if err != nil {
			return Decision{}, fmt.Errorf("rule %T: %w", rule, err)
		}

		if decision.Status == StatusDeny {
			return Decision{
				Status:               StatusDeny,
				Reason:               "Denied by rule: " + decision.Reason,
				ConfidenceAdjustment: totalAdjustment + decision.ConfidenceAdjustment,
			}, nil
		}

		totalAdjustment += decision.ConfidenceAdjustment
		if decision.Reason != "" {
			notes = append(notes, decision.Reason)
		}
	}

	finalConfidence := clamp(proposal.ConfidenceScore+totalAdjustment, 0.0, 1.0)

	if proposal.ActionType == ActionAutoResolve && finalConfidence < e.autoResolveThreshold {
		return Decision{
			Status:               StatusDeny,
			Reason:               fmt.Sprintf("Final confidence %.2f is below auto-resolve threshold %v.", finalConfidence, e.autoResolveThreshold),
			ConfidenceAdjustment: totalAdjustment,
		}, nil
	}

	reason := "All policies passed."
	if len(notes) > 0 {
		reason += " Notes: " + strings.Join(notes, "; ")
	}

	return Decision{
		Status:               StatusAllow,
		Reason:               reason,
		ConfidenceAdjustment: totalAdjustment,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
