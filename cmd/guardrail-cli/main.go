package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "check":
		return handleCheck(args[2:], stdout, stderr)
	case "audit":
		return handleAudit(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleCheck(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("GUARDRAIL_ADDR", defaultAddr), "Guardrail API address")
	token := fs.String("token", envOrDefault("GUARDRAIL_TOKEN", os.Getenv("GUARDRAIL_DEV_TOKEN")), "bearer token")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	action := fs.String("action", "", "action type (auto_resolve, auto_reply, send_email, escalate)")
	target := fs.String("target", "", "target id, e.g. a ticket id")
	confidence := fs.Float64("confidence", 0, "model confidence score in [0.0, 1.0]")
	payloadJSON := fs.String("payload", "", "action payload as a JSON object")
	contextJSON := fs.String("context", "", "evaluation context as a JSON object")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	if *action == "" || *target == "" {
		fmt.Fprintln(stderr, "check requires --action and --target")
		fs.Usage()
		return 2
	}

	req := map[string]any{
		"action_type":      *action,
		"target_id":        *target,
		"confidence_score": *confidence,
	}
	for flagName, raw := range map[string]string{"payload": *payloadJSON, "context": *contextJSON} {
		if raw == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			fmt.Fprintf(stderr, "invalid --%s json: %v\n", flagName, err)
			return 2
		}
		req[flagName] = obj
	}

	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/agent/actions", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "check failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "allowed=%t reason=%s\n", payload.Allowed, payload.Reason)
	if payload.Allowed {
		return 0
	}
	return 1
}

func handleAudit(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("GUARDRAIL_ADDR", defaultAddr), "Guardrail API address")
	token := fs.String("token", envOrDefault("GUARDRAIL_TOKEN", os.Getenv("GUARDRAIL_DEV_TOKEN")), "bearer token")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	target := fs.String("target", "", "filter by target id")
	limit := fs.Int("limit", 0, "maximum number of records")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	query := url.Values{}
	if *target != "" {
		query.Set("target_id", *target)
	}
	if *limit > 0 {
		query.Set("limit", strconv.Itoa(*limit))
	}
	endpoint := *addr + "/v1/audit/logs"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	respBody, status, err := httpGet(http.DefaultClient, endpoint, *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "audit failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		Logs []struct {
			AuditID    string `json:"audit_id"`
			ActionType string `json:"action_type"`
			TargetID   string `json:"target_id"`
			Status     string `json:"status"`
			Reason     string `json:"reason"`
			CreatedAt  string `json:"created_at"`
		} `json:"logs"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	for _, entry := range payload.Logs {
		fmt.Fprintf(stdout, "audit_id=%s action=%s target=%s status=%s created_at=%s reason=%s\n",
			entry.AuditID, entry.ActionType, entry.TargetID, entry.Status, entry.CreatedAt, entry.Reason)
	}
	return 0
}

func httpGet(client *http.Client, url string, token string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func httpPost(client *http.Client, url string, token string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBody, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Guardrail CLI

Usage:
  guardrail check --action TYPE --target ID [--confidence F] [--payload JSON] [--context JSON] [--addr URL] [--token TOKEN] [--json]
  guardrail audit [--target ID] [--limit N] [--addr URL] [--token TOKEN] [--json]
`)
}
