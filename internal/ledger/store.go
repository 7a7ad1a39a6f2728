package ledger

// AuditLogRecord is one append-only entry in the agent audit trail. The
// payload column holds the redacted copy of the action payload; the raw
// payload is never persisted.
type AuditLogRecord struct {
	AuditID         string
	ActionType      string
	TargetID        string
	ConfidenceScore float64
	PayloadJSON     []byte
	ContextJSON     []byte
	Status          string // allow | deny
	Reason          string
	BodyDigest      string
	KeyID           string
	Sig             []byte
	CreatedAt       string // RFC3339 UTC
}

// Store is the audit trail write contract. Writes are best-effort from the
// executor's perspective; implementations only report the failure.
type Store interface {
	PutAuditLog(rec AuditLogRecord) error
	GetAuditLog(auditID string) (AuditLogRecord, bool)
	// ListAuditLogs returns records newest-first, optionally filtered by
	// target id. An empty targetID matches everything.
	ListAuditLogs(targetID string, limit int) ([]AuditLogRecord, error)
}
