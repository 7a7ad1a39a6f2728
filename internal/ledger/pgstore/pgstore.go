package pgstore

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/clarusdesk/guardrail/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) PutAuditLog(rec ledger.AuditLogRecord) error {
	_, err := s.db.Exec(`INSERT INTO agent_audit_logs
(audit_id, action_type, target_id, confidence_score, payload_json, context_json, status, reason, body_digest, key_id, sig, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT(audit_id) DO NOTHING`,
		rec.AuditID, rec.ActionType, rec.TargetID, rec.ConfidenceScore,
		string(rec.PayloadJSON), string(rec.ContextJSON), rec.Status, rec.Reason,
		rec.BodyDigest, rec.KeyID, rec.Sig, rec.CreatedAt)
	return err
}

func (s *Store) GetAuditLog(auditID string) (ledger.AuditLogRecord, bool) {
	row := s.db.QueryRow(`SELECT audit_id, action_type, target_id, confidence_score, payload_json, context_json, status, reason, body_digest, key_id, sig, created_at
FROM agent_audit_logs WHERE audit_id = $1`, auditID)
	rec, err := scanAuditLog(row)
	if err != nil {
		return ledger.AuditLogRecord{}, false
	}
	return rec, true
}

func (s *Store) ListAuditLogs(targetID string, limit int) ([]ledger.AuditLogRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		rows *sql.Rows
		err  error
	)
	if targetID != "" {
		rows, err = s.db.Query(`SELECT audit_id, action_type, target_id, confidence_score, payload_json, context_json, status, reason, body_digest, key_id, sig, created_at
FROM agent_audit_logs WHERE target_id = $1 ORDER BY created_at DESC, audit_id DESC LIMIT $2`, targetID, limit)
	} else {
		rows, err = s.db.Query(`SELECT audit_id, action_type, target_id, confidence_score, payload_json, context_json, status, reason, body_digest, key_id, sig, created_at
FROM agent_audit_logs ORDER BY created_at DESC, audit_id DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.AuditLogRecord{}
	for rows.Next() {
		rec, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(row rowScanner) (ledger.AuditLogRecord, error) {
	var rec ledger.AuditLogRecord
	var payload, evalContext string
	if err := row.Scan(&rec.AuditID, &rec.ActionType, &rec.TargetID, &rec.ConfidenceScore,
		&payload, &evalContext, &rec.Status, &rec.Reason,
		&rec.BodyDigest, &rec.KeyID, &rec.Sig, &rec.CreatedAt); err != nil {
		return ledger.AuditLogRecord{}, err
	}
	rec.PayloadJSON = []byte(payload)
	rec.ContextJSON = []byte(evalContext)
	return rec, nil
}
