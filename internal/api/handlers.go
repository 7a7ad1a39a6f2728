package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clarusdesk/guardrail/internal/auth"
	"github.com/clarusdesk/guardrail/internal/executor"
	"github.com/clarusdesk/guardrail/internal/ledger"
	"github.com/clarusdesk/guardrail/internal/policy"
	"github.com/clarusdesk/guardrail/pkg/types"
)

type Handler struct {
	Auth  auth.Authenticator
	Exec  *executor.Executor
	Audit ledger.Store
}

func (h *Handler) AgentActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !h.ensureAuth(w, r) {
		return
	}

	if h.Exec == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "executor not configured"})
		return
	}

	var req types.AgentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result, err := h.Exec.Run(r.Context(), executor.Input{
		ActionType:      policy.ActionType(req.ActionType),
		TargetID:        req.TargetID,
		ConfidenceScore: req.ConfidenceScore,
		Payload:         req.Payload,
		Context:         policy.EvalContext(req.Context),
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, types.AgentActionResponse{
		Allowed: result.Allowed,
		Reason:  result.Reason,
		Payload: result.Payload,
	})
}

func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !h.ensureAuth(w, r) {
		return
	}

	if h.Audit == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "audit store not configured"})
		return
	}

	targetID := r.URL.Query().Get("target_id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.Audit.ListAuditLogs(targetID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	entries := make([]types.AuditLogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, types.AuditLogEntry{
			AuditID:         rec.AuditID,
			ActionType:      rec.ActionType,
			TargetID:        rec.TargetID,
			ConfidenceScore: rec.ConfidenceScore,
			Payload:         json.RawMessage(rec.PayloadJSON),
			Context:         json.RawMessage(rec.ContextJSON),
			Status:          rec.Status,
			Reason:          rec.Reason,
			BodyDigest:      rec.BodyDigest,
			KeyID:           rec.KeyID,
			Sig:             rec.Sig,
			CreatedAt:       rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

// Authenticate treats a nil authenticator as open mode, same as a
// TokenAuthenticator with no token configured.
func (h *Handler) Authenticate(r *http.Request) (auth.Claims, error) {
	if h.Auth == nil {
		return auth.Claims{Subject: "anonymous", Issuer: "guardrail-open"}, nil
	}
	return h.Auth.Authenticate(r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
