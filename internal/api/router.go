package api

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/agent/actions", h.AgentActions)
	mux.HandleFunc("/v1/audit/logs", h.AuditLogs)
	mux.HandleFunc("/healthz", h.Healthz)
	return mux
}
