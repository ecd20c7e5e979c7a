package passportr

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is a configuration choice that is valid but probably not
// intended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintResult []LintWarning

func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds every warning at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports valid-but-risky settings. It does not call Validate.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Provider.RedisPrefix == c.Markers.RedisPrefix {
		add("redis_prefix_shared", LintHigh, "provider and marker keys share one Redis prefix")
	}
	if c.Provider.JWT.SigningMethod == "hs256" {
		add("hs256_shared_secret", LintWarn, "hs256 requires every verifier to hold the signing secret")
	}
	if c.Provider.JWT.TTL > 7*24*time.Hour {
		add("token_ttl_long", LintWarn, "identity tokens live longer than 7 days")
	}
	if c.Provider.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "token leeway above 1 minute")
	}
	if c.Markers.TTL == 0 || c.Markers.TTL > c.Provider.JWT.TTL {
		add("markers_outlive_token", LintWarn, "login markers can outlive the identity token they describe")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "sign-out failures are only visible in logs")
	} else if !c.Audit.DropIfFull {
		add("audit_blocking", LintWarn, "a full audit buffer blocks sign-out and provider callbacks")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo, "session counters are not collected")
	}

	return ws
}
