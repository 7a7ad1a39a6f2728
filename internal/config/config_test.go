package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":8080"
db:
  driver: sqlite
  dsn: guardrail.db
policy:
  auto_resolve_threshold: 0.9
  eval_timeout_ms: 2000
audit:
  signing_key_id: audit-1
  signing_key_path: /etc/guardrail/audit.key
auth:
  dev_token: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen_addr: %s", cfg.ListenAddr)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.DSN != "guardrail.db" {
		t.Fatalf("unexpected db config: %+v", cfg.DB)
	}
	if cfg.Policy.AutoResolveThreshold != 0.9 {
		t.Fatalf("unexpected threshold: %v", cfg.Policy.AutoResolveThreshold)
	}
	if cfg.Policy.EvalTimeoutMS != 2000 {
		t.Fatalf("unexpected eval timeout: %d", cfg.Policy.EvalTimeoutMS)
	}
	if cfg.Audit.SigningKeyID != "audit-1" {
		t.Fatalf("unexpected signing key id: %s", cfg.Audit.SigningKeyID)
	}
	if cfg.Auth.DevToken != "secret" {
		t.Fatalf("unexpected dev token: %s", cfg.Auth.DevToken)
	}
}

func TestLoadAppliesThresholdDefault(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":8080\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Policy.AutoResolveThreshold != DefaultAutoResolveThreshold {
		t.Fatalf("expected default threshold, got %v", cfg.Policy.AutoResolveThreshold)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("GUARDRAIL_TEST_TOKEN", "from-env")
	path := writeConfig(t, `
listen_addr: ":8080"
auth:
  dev_token: ${GUARDRAIL_TEST_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.DevToken != "from-env" {
		t.Fatalf("expected env expansion, got %q", cfg.Auth.DevToken)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := map[string]Config{
		"missing listen addr": {},
		"bad driver": {
			ListenAddr: ":8080",
			DB:         DBConfig{Driver: "oracle", DSN: "x"},
		},
		"sqlite without dsn": {
			ListenAddr: ":8080",
			DB:         DBConfig{Driver: "sqlite"},
		},
		"threshold above one": {
			ListenAddr: ":8080",
			Policy:     PolicyConfig{AutoResolveThreshold: 1.5},
		},
		"negative timeout": {
			ListenAddr: ":8080",
			Policy:     PolicyConfig{AutoResolveThreshold: 0.85, EvalTimeoutMS: -1},
		},
		"signing key path without id": {
			ListenAddr: ":8080",
			Policy:     PolicyConfig{AutoResolveThreshold: 0.85},
			Audit:      AuditConfig{SigningKeyPath: "/tmp/key"},
		},
	}

	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
