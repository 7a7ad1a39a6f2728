package ledger

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/clarusdesk/guardrail/internal/crypto"
)

// Signer signs audit record digests. A nil Signer produces unsigned records.
type Signer interface {
	KeyID() string
	Sign(digest []byte) ([]byte, error)
}

// Ed25519Signer signs with an in-process private key.
type Ed25519Signer struct {
	ID   string
	Priv ed25519.PrivateKey
}

func (s Ed25519Signer) KeyID() string { return s.ID }

func (s Ed25519Signer) Sign(digest []byte) ([]byte, error) {
	return crypto.SignDigest(s.Priv, digest)
}

// BuildAuditInput carries the already-redacted payload plus the decision
// fields the executor wants persisted.
type BuildAuditInput struct {
	ActionType      string
	TargetID        string
	ConfidenceScore float64
	Payload         map[string]any
	Context         map[string]any
	Status          string
	Reason          string
	CreatedAt       string
}

// BuildAuditRecord assembles a record, computes its canonical body digest,
// and signs it when a signer is supplied.
func BuildAuditRecord(input BuildAuditInput, signer Signer) (AuditLogRecord, error) {
	payloadJSON, err := json.Marshal(input.Payload)
	if err != nil {
		return AuditLogRecord{}, fmt.Errorf("marshal payload: %w", err)
	}
	contextJSON, err := json.Marshal(input.Context)
	if err != nil {
		return AuditLogRecord{}, fmt.Errorf("marshal context: %w", err)
	}

	rec := AuditLogRecord{
		AuditID:         uuid.NewString(),
		ActionType:      input.ActionType,
		TargetID:        input.TargetID,
		ConfidenceScore: input.ConfidenceScore,
		PayloadJSON:     payloadJSON,
		ContextJSON:     contextJSON,
		Status:          input.Status,
		Reason:          input.Reason,
		CreatedAt:       input.CreatedAt,
	}

	canonical, err := crypto.Canonicalize(auditBodyView(rec))
	if err != nil {
		return AuditLogRecord{}, fmt.Errorf("canonicalize audit body: %w", err)
	}
	rec.BodyDigest = crypto.DigestWithPrefix(canonical)

	if signer != nil {
		sig, err := signer.Sign(crypto.DigestBytes(canonical))
		if err != nil {
			return AuditLogRecord{}, fmt.Errorf("sign audit digest: %w", err)
		}
		rec.KeyID = signer.KeyID()
		rec.Sig = sig
	}

	return rec, nil
}

// VerifyAuditRecord recomputes the canonical body digest and checks it and,
// when present, the signature against the given public key.
func VerifyAuditRecord(rec AuditLogRecord, publicKey ed25519.PublicKey) error {
	canonical, err := crypto.Canonicalize(auditBodyView(rec))
	if err != nil {
		return fmt.Errorf("canonicalize audit body: %w", err)
	}

	if got := crypto.DigestWithPrefix(canonical); got != rec.BodyDigest {
		return fmt.Errorf("body digest mismatch: stored %s, computed %s", rec.BodyDigest, got)
	}

	if len(rec.Sig) == 0 {
		return nil
	}
	if publicKey == nil {
		return fmt.Errorf("record is signed but no public key supplied")
	}

	ok, err := crypto.VerifyDigest(publicKey, crypto.DigestBytes(canonical), rec.Sig)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("signature verification failed for audit %s", rec.AuditID)
	}
	return nil
}

// auditBodyView is the digestable projection of a record. Payload and
// context are re-decoded with json.Number so the digest is independent of
// whether values arrived as Go numerics or stored JSON.
func auditBodyView(rec AuditLogRecord) map[string]any {
	return map[string]any{
		"audit_id":         rec.AuditID,
		"action_type":      rec.ActionType,
		"target_id":        rec.TargetID,
		"confidence_score": rec.ConfidenceScore,
		"payload":          decodeJSONView(rec.PayloadJSON),
		"context":          decodeJSONView(rec.ContextJSON),
		"status":           rec.Status,
		"reason":           rec.Reason,
		"created_at":       rec.CreatedAt,
	}
}

func decodeJSONView(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		// Leave undecodable bytes visible in the digest as a string.
		return string(raw)
	}
	return out
}
