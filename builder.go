package passportr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/jwt"
	"github.com/passportr/passportr/markers"
	"github.com/redis/go-redis/v9"
)

var errNoProvider = errors.New("no identity provider or redis client configured")

// Builder assembles an Engine. A Builder can build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider  identity.Provider
	markers   markers.Store
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder starting from DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Later With* calls still apply
// on top of it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used for the default provider and marker
// store. The engine never closes it.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithProvider overrides the identity provider. Build does not close an
// injected provider.
func (b *Builder) WithProvider(p identity.Provider) *Builder {
	b.provider = p
	return b
}

// WithMarkers overrides the local marker store.
func (b *Builder) WithMarkers(s markers.Store) *Builder {
	b.markers = s
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms also enables metrics when enabled is true.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	if enabled {
		b.config.Metrics.Enabled = true
	}
	return b
}

// Build validates the configuration and wires the engine.
//
// When no provider was injected, Build constructs the Redis provider from
// Config.Provider. If that is impossible (no Redis client, bad signing keys)
// the failure is logged and counted and the engine runs on the unavailable
// provider: every scope resolves to signed out. Only configuration errors and
// builder reuse are returned.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:  cfg,
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger)

	// -------- IDENTITY PROVIDER --------
	switch {
	case b.provider != nil:
		engine.provider = b.provider
	default:
		p, err := b.redisProvider(cfg, logger)
		if err != nil {
			logger.Error("identity provider unavailable; sessions will resolve signed out",
				"component", "builder", "error", err)
			engine.metricInc(MetricProviderUnavailable)
			engine.emitAudit(context.Background(), auditEventProviderUnavailable, false, "", "", err, nil)
			engine.provider = identity.Unavailable(err)
			engine.degraded = true
			break
		}
		engine.provider = p
		engine.owned = append(engine.owned, p.Close)
	}

	// -------- LOCAL MARKERS --------
	switch {
	case b.markers != nil:
		engine.markers = b.markers
	case b.redis != nil:
		engine.markers = markers.NewRedisStore(b.redis, cfg.Markers.RedisPrefix, cfg.Markers.ClientID, cfg.Markers.TTL)
	default:
		engine.markers = markers.NewMemoryStore()
	}

	b.built = true

	return engine, nil
}

func (b *Builder) redisProvider(cfg Config, logger *slog.Logger) (*identity.RedisProvider, error) {
	if b.redis == nil {
		return nil, errNoProvider
	}
	tokens, err := jwt.NewManager(cfg.Provider.JWT.ManagerConfig())
	if err != nil {
		return nil, err
	}
	return identity.NewRedisProvider(b.redis, tokens, identity.RedisConfig{
		Prefix: cfg.Provider.RedisPrefix,
		Logger: logger,
	})
}
