package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/clarusdesk/guardrail/internal/config"
)

func TestNewServerMemoryStore(t *testing.T) {
	addr := "127.0.0.1:9999"
	cfg := config.Config{
		Policy: config.PolicyConfig{AutoResolveThreshold: 0.85},
	}
	srv, err := newServer(addr, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.Addr != addr {
		t.Fatalf("expected addr %s, got %s", addr, srv.Addr)
	}
	if srv.Handler == nil {
		t.Fatalf("expected handler to be set")
	}
}

func TestNewServerSQLiteStore(t *testing.T) {
	cfg := config.Config{
		DB: config.DBConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(t.TempDir(), "guardrail.db"),
		},
		Policy: config.PolicyConfig{AutoResolveThreshold: 0.85},
	}
	srv, err := newServer("127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.Handler == nil {
		t.Fatalf("expected handler to be set")
	}
}

func TestNewServerUnknownDriver(t *testing.T) {
	cfg := config.Config{
		DB:     config.DBConfig{Driver: "oracle", DSN: "x"},
		Policy: config.PolicyConfig{AutoResolveThreshold: 0.85},
	}
	if _, err := newServer("127.0.0.1:0", cfg); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestRunDefaults(t *testing.T) {
	factory := func(addr string, cfg config.Config) (*http.Server, error) {
		if addr != ":8080" {
			t.Fatalf("expected default addr, got %s", addr)
		}
		if cfg.Policy.AutoResolveThreshold != config.DefaultAutoResolveThreshold {
			t.Fatalf("expected default threshold, got %v", cfg.Policy.AutoResolveThreshold)
		}
		return &http.Server{Addr: addr}, nil
	}

	listen := func(_ *http.Server) error {
		return http.ErrServerClosed
	}

	getenv := func(string) string { return "" }
	if err := run(nil, getenv, listen, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunError(t *testing.T) {
	listenErr := errors.New("listen failed")
	listen := func(_ *http.Server) error {
		return listenErr
	}

	factory := func(addr string, cfg config.Config) (*http.Server, error) {
		return &http.Server{Addr: addr}, nil
	}

	getenv := func(key string) string {
		if key == "GUARDRAIL_LISTEN_ADDR" {
			return "127.0.0.1:1234"
		}
		return ""
	}

	if err := run(nil, getenv, listen, factory); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunFactoryError(t *testing.T) {
	factory := func(string, config.Config) (*http.Server, error) {
		return nil, errors.New("bad wiring")
	}
	listen := func(_ *http.Server) error { return nil }
	getenv := func(string) string { return "" }

	if err := run(nil, getenv, listen, factory); err == nil {
		t.Fatalf("expected factory error to surface")
	}
}

func TestRunLoadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guardrail.yaml")
	contents := "listen_addr: \":9999\"\npolicy:\n  auto_resolve_threshold: 0.7\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	factory := func(addr string, cfg config.Config) (*http.Server, error) {
		if addr != ":9999" {
			t.Fatalf("expected addr from config, got %s", addr)
		}
		if cfg.Policy.AutoResolveThreshold != 0.7 {
			t.Fatalf("expected threshold from config, got %v", cfg.Policy.AutoResolveThreshold)
		}
		return &http.Server{Addr: addr}, nil
	}

	listen := func(_ *http.Server) error { return http.ErrServerClosed }
	getenv := func(key string) string {
		if key == "GUARDRAIL_CONFIG_PATH" {
			return path
		}
		return ""
	}

	if err := run(nil, getenv, listen, factory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "a", "b"); got != "a" {
		t.Fatalf("expected a, got %s", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Fatalf("expected empty, got %s", got)
	}
}

func TestListenAndServeInvalidAddr(t *testing.T) {
	err := listenAndServe(&http.Server{Addr: "127.0.0.1"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestMainNoError(t *testing.T) {
	oldRun := runFn
	oldFatal := fatalf
	defer func() {
		runFn = oldRun
		fatalf = oldFatal
	}()

	runFn = func(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
		return nil
	}

	called := false
	fatalf = func(string, ...any) {
		called = true
	}

	main()
	if called {
		t.Fatalf("unexpected fatal call")
	}
}

func TestMainError(t *testing.T) {
	oldRun := runFn
	oldFatal := fatalf
	defer func() {
		runFn = oldRun
		fatalf = oldFatal
	}()

	runFn = func(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
		return errors.New("boom")
	}

	called := false
	fatalf = func(string, ...any) {
		called = true
	}

	main()
	if !called {
		t.Fatalf("expected fatal call")
	}
}
