package passportr

import (
	"fmt"
	"strings"
	"time"

	"github.com/passportr/passportr/jwt"
)

// Config defines the settings consumed by [Builder.Build].
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Provider ProviderConfig
	Markers  MarkersConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig controls the Redis-backed identity provider that Build
// constructs when a Redis client is supplied and no provider is.
type ProviderConfig struct {
	RedisPrefix string
	JWT         JWTConfig
}

// JWTConfig controls the identity tokens the Redis provider stores and
// publishes.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
MARKERS CONFIG
====================================
*/

// MarkersConfig controls the Redis marker store. It is ignored when no Redis
// client is configured or when markers are injected with WithMarkers.
type MarkersConfig struct {
	RedisPrefix string
	ClientID    string
	TTL         time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters and the notify latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration Build starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			RedisPrefix: "passportr:auth",
			JWT: JWTConfig{
				TTL:           24 * time.Hour,
				SigningMethod: "ed25519",
				Issuer:        "passportr",
			},
		},
		Markers: MarkersConfig{
			RedisPrefix: "passportr:markers",
			ClientID:    "default",
			TTL:         0,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Provider.JWT.PrivateKey = cloneBytes(cfg.Provider.JWT.PrivateKey)
	out.Provider.JWT.PublicKey = cloneBytes(cfg.Provider.JWT.PublicKey)
	return out
}

// ManagerConfig maps c onto the token manager settings. Key material is
// copied.
func (c JWTConfig) ManagerConfig() jwt.Config {
	return jwt.Config{
		TTL:           c.TTL,
		SigningMethod: jwt.SigningMethod(c.SigningMethod),
		PrivateKey:    cloneBytes(c.PrivateKey),
		PublicKey:     cloneBytes(c.PublicKey),
		Issuer:        c.Issuer,
		Audience:      c.Audience,
		Leeway:        c.Leeway,
		KeyID:         c.KeyID,
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the structural soundness of c. Missing signing keys are not
// a validation failure: the provider they feed is only built when a Redis
// client is present, and a provider that cannot be built degrades instead of
// failing Build.
func (c *Config) Validate() error {
	// Provider
	if strings.TrimSpace(c.Provider.RedisPrefix) == "" {
		return invalid("Provider RedisPrefix must not be empty")
	}
	if c.Provider.JWT.TTL <= 0 {
		return invalid("Provider JWT TTL must be > 0")
	}
	if c.Provider.JWT.SigningMethod != "ed25519" && c.Provider.JWT.SigningMethod != "hs256" {
		return invalid("unsupported Provider JWT signing method")
	}
	if c.Provider.JWT.Leeway < 0 || c.Provider.JWT.Leeway > 2*time.Minute {
		return invalid("Provider JWT Leeway must be between 0 and 2m")
	}

	// Markers
	if strings.TrimSpace(c.Markers.RedisPrefix) == "" {
		return invalid("Markers RedisPrefix must not be empty")
	}
	if strings.TrimSpace(c.Markers.ClientID) == "" {
		return invalid("Markers ClientID must not be empty")
	}
	if strings.ContainsAny(c.Markers.ClientID, ":{}") {
		return invalid("Markers ClientID must not contain ':', '{' or '}'")
	}
	if c.Markers.TTL < 0 {
		return invalid("Markers TTL must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}
