package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/clarusdesk/guardrail/internal/api"
	"github.com/clarusdesk/guardrail/internal/auth"
	"github.com/clarusdesk/guardrail/internal/config"
	"github.com/clarusdesk/guardrail/internal/crypto"
	"github.com/clarusdesk/guardrail/internal/executor"
	"github.com/clarusdesk/guardrail/internal/ledger"
	"github.com/clarusdesk/guardrail/internal/ledger/pgstore"
	"github.com/clarusdesk/guardrail/internal/ledger/sqlstore"
	"github.com/clarusdesk/guardrail/internal/policy"
)

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = log.Fatalf

func newServer(addr string, cfg config.Config) (*http.Server, error) {
	store, err := openStore(cfg.DB)
	if err != nil {
		return nil, err
	}

	engine, err := policy.NewEngine(cfg.Policy.AutoResolveThreshold, policy.DefaultRules()...)
	if err != nil {
		return nil, err
	}

	var signer ledger.Signer
	if cfg.Audit.SigningKeyPath != "" {
		priv, _, err := crypto.LoadEd25519PrivateKey(cfg.Audit.SigningKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load signing key: %w", err)
		}
		signer = ledger.Ed25519Signer{ID: cfg.Audit.SigningKeyID, Priv: priv}
	}

	exec := executor.New(engine, store, signer, log.Default())
	if cfg.Policy.EvalTimeoutMS > 0 {
		exec.EvalTimeout = time.Duration(cfg.Policy.EvalTimeoutMS) * time.Millisecond
	}

	authn := auth.NewAuthenticatorFromEnv()
	if authn.DevToken == "" {
		authn.DevToken = cfg.Auth.DevToken
	}

	h := &api.Handler{
		Auth:  authn,
		Exec:  exec,
		Audit: store,
	}
	return &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

func openStore(db config.DBConfig) (ledger.Store, error) {
	switch db.Driver {
	case "", "memory":
		return ledger.NewInMemoryStore(), nil
	case "sqlite":
		store, err := sqlstore.OpenSQLite(db.DSN)
		if err != nil {
			return nil, err
		}
		if err := ledger.Migrate(store.DB(), ledger.DBSQLite); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := pgstore.OpenPostgres(db.DSN)
		if err != nil {
			return nil, err
		}
		if err := ledger.Migrate(store.DB(), ledger.DBPostgres); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", db.Driver)
	}
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(addr string, cfg config.Config) (*http.Server, error)

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("guardrail-gateway", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to guardrail config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = getenv("GUARDRAIL_CONFIG_PATH")
	}

	cfg := config.Config{
		Policy: config.PolicyConfig{AutoResolveThreshold: config.DefaultAutoResolveThreshold},
	}
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	addr := firstNonEmpty(getenv("GUARDRAIL_LISTEN_ADDR"), cfg.ListenAddr, ":8080")

	server, err := factory(addr, cfg)
	if err != nil {
		return err
	}

	log.Printf("guardrail-gateway listening on %s", addr)
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
