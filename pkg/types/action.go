package types

type AgentActionRequest struct {
	ActionType      string         `json:"action_type"`
	TargetID        string         `json:"target_id"`
	ConfidenceScore float64        `json:"confidence_score"`
	Payload         map[string]any `json:"payload,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}

type AgentActionResponse struct {
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason"`
	Payload map[string]any `json:"payload,omitempty"`
}
