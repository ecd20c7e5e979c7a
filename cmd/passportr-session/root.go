package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alicebob/miniredis/v2"
	"github.com/passportr/passportr"
	"github.com/passportr/passportr/identity"
	"github.com/passportr/passportr/jwt"
	"github.com/passportr/passportr/markers"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const cliSurface = "cli"

type app struct {
	configPath string
	embedded   bool
	redisAddr  string
	clientID   string
	logLevel   string

	cfg      cliConfig
	logger   *slog.Logger
	mini     *miniredis.Miniredis
	redis    redis.UniversalClient
	provider *identity.RedisProvider
	markers  markers.Store
	engine   *passportr.Engine
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "passportr-session",
		Short: "Inspect and drive passportr sessions backed by Redis",
		Long: `passportr-session mounts a session scope against the Redis identity provider.

Configuration is read from --config (YAML), then PASSPORTR_* environment
variables, then flags. With --embedded an in-process Redis is started; it lives
only as long as the command, so it is mainly useful for trying things out.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file")
	flags.BoolVar(&a.embedded, "embedded", false, "run against an in-process Redis")
	flags.StringVar(&a.redisAddr, "redis-addr", "", "Redis address (overrides config)")
	flags.StringVar(&a.clientID, "client-id", "", "local marker namespace (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		newWatchCmd(a),
		newSignInCmd(a),
		newSignOutCmd(a),
		newStatusCmd(a),
	)
	return root
}

// open wires Redis, the identity provider, the marker store and the engine.
// Callers must defer close.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := loadCLIConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("redis-addr") {
		cfg.RedisAddr = a.redisAddr
	}
	if cmd.Flags().Changed("client-id") {
		cfg.ClientID = a.clientID
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	if a.embedded {
		a.mini, err = miniredis.Run()
		if err != nil {
			return fmt.Errorf("start embedded redis: %w", err)
		}
		cfg.RedisAddr = a.mini.Addr()
		a.logger.Info("using embedded redis", "addr", cfg.RedisAddr)
	}
	a.redis = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})

	priv, pub, err := cfg.keys()
	if err != nil {
		return err
	}
	if a.embedded && cfg.SigningMethod == string(jwt.MethodEd25519) && len(priv) == 0 && len(pub) == 0 {
		if _, priv, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return fmt.Errorf("generate ephemeral key: %w", err)
		}
	}

	engineCfg := cfg.engineConfig(priv, pub)
	if err := engineCfg.Validate(); err != nil {
		return err
	}

	tokens, err := jwt.NewManager(engineCfg.Provider.JWT.ManagerConfig())
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	a.provider, err = identity.NewRedisProvider(a.redis, tokens, identity.RedisConfig{
		Prefix: engineCfg.Provider.RedisPrefix,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	a.markers = markers.NewRedisStore(a.redis, engineCfg.Markers.RedisPrefix, engineCfg.Markers.ClientID, engineCfg.Markers.TTL)

	b := passportr.New().
		WithConfig(engineCfg).
		WithProvider(a.provider).
		WithMarkers(a.markers).
		WithLogger(a.logger)
	if cfg.Audit {
		b = b.WithAuditSink(passportr.NewJSONWriterSink(cmd.ErrOrStderr()))
	}
	a.engine, err = b.Build()
	return err
}

func (a *app) close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.provider != nil {
		errs = append(errs, a.provider.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.mini != nil {
		a.mini.Close()
	}
	return errors.Join(errs...)
}

// mount starts a scope labelled with the CLI surface.
func (a *app) mount(ctx context.Context) (*passportr.Scope, context.Context, error) {
	ctx = passportr.WithSurface(ctx, cliSurface)
	sc := a.engine.NewScope()
	if err := sc.Mount(ctx); err != nil {
		return nil, ctx, err
	}
	return sc, ctx, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
