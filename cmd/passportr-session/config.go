package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/passportr/passportr"
	"gopkg.in/yaml.v3"
)

// cliConfig is read from an optional YAML file and then overlaid with
// PASSPORTR_* environment variables. Flags win over both.
type cliConfig struct {
	RedisAddr     string `yaml:"redis_addr"     env:"PASSPORTR_REDIS_ADDR"`
	RedisPrefix   string `yaml:"redis_prefix"   env:"PASSPORTR_REDIS_PREFIX"`
	MarkersPrefix string `yaml:"markers_prefix" env:"PASSPORTR_MARKERS_PREFIX"`
	ClientID      string `yaml:"client_id"      env:"PASSPORTR_CLIENT_ID"`

	SigningMethod  string        `yaml:"signing_method"   env:"PASSPORTR_JWT_SIGNING_METHOD"`
	PrivateKeyFile string        `yaml:"private_key_file" env:"PASSPORTR_JWT_PRIVATE_KEY_FILE"`
	PublicKeyFile  string        `yaml:"public_key_file"  env:"PASSPORTR_JWT_PUBLIC_KEY_FILE"`
	Secret         string        `yaml:"-"                env:"PASSPORTR_JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl"        env:"PASSPORTR_JWT_TTL"`
	Issuer         string        `yaml:"issuer"           env:"PASSPORTR_JWT_ISSUER"`
	Audience       string        `yaml:"audience"         env:"PASSPORTR_JWT_AUDIENCE"`
	Leeway         time.Duration `yaml:"leeway"           env:"PASSPORTR_JWT_LEEWAY"`
	KeyID          string        `yaml:"key_id"           env:"PASSPORTR_JWT_KEY_ID"`
	MarkersTTL     time.Duration `yaml:"markers_ttl"      env:"PASSPORTR_MARKERS_TTL"`

	LogLevel  string `yaml:"log_level"  env:"PASSPORTR_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"PASSPORTR_LOG_FORMAT"`
	Audit     bool   `yaml:"audit"      env:"PASSPORTR_AUDIT"`
}

func defaultCLIConfig() cliConfig {
	def := passportr.DefaultConfig()
	return cliConfig{
		RedisAddr:     "localhost:6379",
		RedisPrefix:   def.Provider.RedisPrefix,
		MarkersPrefix: def.Markers.RedisPrefix,
		ClientID:      "cli",
		SigningMethod: def.Provider.JWT.SigningMethod,
		TokenTTL:      def.Provider.JWT.TTL,
		Issuer:        def.Provider.JWT.Issuer,
		Leeway:        def.Provider.JWT.Leeway,
		MarkersTTL:    def.Markers.TTL,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// loadCLIConfig applies defaults, then path (when not empty), then the
// environment.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cliConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.SigningMethod = strings.ToLower(strings.TrimSpace(cfg.SigningMethod))
	return cfg, nil
}

// keys loads the signing material. A missing private key is not an error:
// the engine can still verify tokens, only sign-in needs it.
func (c cliConfig) keys() (priv, pub []byte, err error) {
	if c.SigningMethod == "hs256" {
		if c.Secret == "" {
			return nil, nil, errors.New("hs256 requires PASSPORTR_JWT_SECRET")
		}
		return []byte(c.Secret), nil, nil
	}
	if c.PrivateKeyFile != "" {
		if priv, err = os.ReadFile(c.PrivateKeyFile); err != nil {
			return nil, nil, fmt.Errorf("read private key: %w", err)
		}
	}
	if c.PublicKeyFile != "" {
		if pub, err = os.ReadFile(c.PublicKeyFile); err != nil {
			return nil, nil, fmt.Errorf("read public key: %w", err)
		}
	}
	return priv, pub, nil
}

// engineConfig maps the CLI settings onto the library configuration.
func (c cliConfig) engineConfig(priv, pub []byte) passportr.Config {
	cfg := passportr.DefaultConfig()
	cfg.Provider.RedisPrefix = c.RedisPrefix
	cfg.Provider.JWT.SigningMethod = c.SigningMethod
	cfg.Provider.JWT.PrivateKey = priv
	cfg.Provider.JWT.PublicKey = pub
	cfg.Provider.JWT.TTL = c.TokenTTL
	cfg.Provider.JWT.Issuer = c.Issuer
	cfg.Provider.JWT.Audience = c.Audience
	cfg.Provider.JWT.Leeway = c.Leeway
	cfg.Provider.JWT.KeyID = c.KeyID
	cfg.Markers.RedisPrefix = c.MarkersPrefix
	cfg.Markers.ClientID = c.ClientID
	cfg.Markers.TTL = c.MarkersTTL
	cfg.Audit.Enabled = c.Audit
	return cfg
}
