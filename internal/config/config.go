package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string       `yaml:"listen_addr"`
	DB         DBConfig     `yaml:"db"`
	Policy     PolicyConfig `yaml:"policy"`
	Audit      AuditConfig  `yaml:"audit"`
	Auth       AuthConfig   `yaml:"auth"`
}

type DBConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite | postgres
	DSN    string `yaml:"dsn"`
}

type PolicyConfig struct {
	// AutoResolveThreshold is the minimum final confidence for an
	// auto_resolve action. Load fills in the 0.85 default when omitted.
	AutoResolveThreshold float64 `yaml:"auto_resolve_threshold"`
	// EvalTimeoutMS bounds one policy evaluation; 0 disables the deadline.
	EvalTimeoutMS int `yaml:"eval_timeout_ms"`
}

type AuditConfig struct {
	SigningKeyID   string `yaml:"signing_key_id"`
	SigningKeyPath string `yaml:"signing_key_path"`
}

type AuthConfig struct {
	DevToken string `yaml:"dev_token"`
}

const DefaultAutoResolveThreshold = 0.85

func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	cfg := Config{
		Policy: PolicyConfig{AutoResolveThreshold: DefaultAutoResolveThreshold},
	}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	switch c.DB.Driver {
	case "", "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver must be one of memory, sqlite, postgres")
	}
	if (c.DB.Driver == "sqlite" || c.DB.Driver == "postgres") && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required when db.driver is %s", c.DB.Driver)
	}

	if c.Policy.AutoResolveThreshold < 0.0 || c.Policy.AutoResolveThreshold > 1.0 {
		return fmt.Errorf("policy.auto_resolve_threshold must be within [0.0, 1.0]")
	}
	if c.Policy.EvalTimeoutMS < 0 {
		return fmt.Errorf("policy.eval_timeout_ms must not be negative")
	}

	if c.Audit.SigningKeyPath != "" && c.Audit.SigningKeyID == "" {
		return fmt.Errorf("audit.signing_key_id is required when audit.signing_key_path is set")
	}

	return nil
}
