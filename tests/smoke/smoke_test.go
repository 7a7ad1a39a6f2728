package smoke

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clarusdesk/guardrail/internal/api"
	"github.com/clarusdesk/guardrail/internal/auth"
	"github.com/clarusdesk/guardrail/internal/executor"
	"github.com/clarusdesk/guardrail/internal/ledger"
	"github.com/clarusdesk/guardrail/internal/policy"
)

func TestSmoke(t *testing.T) {
	engine, err := policy.NewEngine(0.85, policy.DefaultRules()...)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	store := ledger.NewInMemoryStore()
	exec := executor.New(engine, store, nil, log.New(io.Discard, "", 0))

	router := api.NewRouter(&api.Handler{
		Auth:  &auth.TokenAuthenticator{DevToken: "test-token"},
		Exec:  exec,
		Audit: store,
	})

	srv := httptest.NewServer(router)
	defer srv.Close()

	// auth gate sanity check
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/audit/logs", nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
	_ = res.Body.Close()

	checkAction(t, srv.URL)
	listAudit(t, srv.URL)
}

func checkAction(t *testing.T, baseURL string) {
	t.Helper()

	body := bytes.NewBufferString(`{
		"action_type": "auto_reply",
		"target_id": "smoke_ticket",
		"confidence_score": 0.9,
		"payload": {"message": "hello"},
		"context": {"user_role": "regular"}
	}`)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/agent/actions", body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("check status: %d", res.StatusCode)
	}

	var payload struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Allowed {
		t.Fatalf("expected allow, got reason %q", payload.Reason)
	}
}

func listAudit(t *testing.T, baseURL string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/v1/audit/logs?target_id=smoke_ticket", nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("audit status: %d", res.StatusCode)
	}

	var payload struct {
		Logs []struct {
			AuditID string `json:"audit_id"`
			Status  string `json:"status"`
		} `json:"logs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Logs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(payload.Logs))
	}
	if payload.Logs[0].AuditID == "" || payload.Logs[0].Status != "allow" {
		t.Fatalf("unexpected record: %+v", payload.Logs[0])
	}
}
