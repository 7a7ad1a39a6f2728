package policy

import (
	"fmt"
	"math"
)

type ActionType string

const (
	ActionAutoResolve ActionType = "auto_resolve"
	ActionAutoReply   ActionType = "auto_reply"
	ActionSendEmail   ActionType = "send_email"
	ActionEscalate    ActionType = "escalate"
)

// ParseActionType validates a wire-level action type string.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionAutoResolve, ActionAutoReply, ActionSendEmail, ActionEscalate:
		return ActionType(s), nil
	default:
		return "", fmt.Errorf("unknown action type: %q", s)
	}
}

type DecisionStatus string

const (
	StatusAllow DecisionStatus = "allow"
	StatusDeny  DecisionStatus = "deny"
)

// Proposal describes one action an agent wants to perform. Built once per
// attempt via NewProposal and treated as immutable afterwards.
type Proposal struct {
	ActionType      ActionType
	TargetID        string
	ConfidenceScore float64
	Payload         map[string]any
}

func NewProposal(actionType ActionType, targetID string, confidenceScore float64, payload map[string]any) (Proposal, error) {
	if _, err := ParseActionType(string(actionType)); err != nil {
		return Proposal{}, err
	}
	// NaN compares false against both bounds, so it needs its own check.
	if math.IsNaN(confidenceScore) || confidenceScore < 0.0 || confidenceScore > 1.0 {
		return Proposal{}, fmt.Errorf("confidence score %v is outside [0.0, 1.0]", confidenceScore)
	}
	return Proposal{
		ActionType:      actionType,
		TargetID:        targetID,
		ConfidenceScore: confidenceScore,
		Payload:         payload,
	}, nil
}

// Decision is the outcome of a single rule or of a full engine evaluation.
// ConfidenceAdjustment is an unbounded delta; only the proposal score and
// the final aggregated confidence are clamped to [0,1].
type Decision struct {
	Status               DecisionStatus
	Reason               string
	ConfidenceAdjustment float64
}

// EvalContext carries per-call signals (user role, account flags) supplied
// by the caller. Rules read it but never write it.
type EvalContext map[string]any

func (ec EvalContext) Str(key string) string {
	if v, ok := ec[key].(string); ok {
		return v
	}
	return ""
}

func (ec EvalContext) Flag(key string) bool {
	if v, ok := ec[key].(bool); ok {
		return v
	}
	return false
}
