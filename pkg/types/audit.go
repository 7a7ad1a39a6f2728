package types

import "encoding/json"

type AuditLogEntry struct {
	AuditID         string          `json:"audit_id"`
	ActionType      string          `json:"action_type"`
	TargetID        string          `json:"target_id"`
	ConfidenceScore float64         `json:"confidence_score"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	Context         json.RawMessage `json:"context,omitempty"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason"`
	BodyDigest      string          `json:"body_digest,omitempty"`
	KeyID           string          `json:"key_id,omitempty"`
	Sig             []byte          `json:"sig,omitempty"`
	CreatedAt       string          `json:"created_at"`
}
