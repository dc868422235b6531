package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geoknoesis/lindt-go/internal/config"
	"github.com/geoknoesis/lindt-go/internal/tracing"
	"github.com/geoknoesis/lindt-go/lindt"
	"github.com/geoknoesis/lindt-go/lindt/script"
)

// errFindings signals a command that ran fine but found something to
// report through the exit status.
var errFindings = errors.New("findings reported")

// app carries the state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
}

func newRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "lindt",
		Short: "Resolve and compare linked datatypes",
		Long: `lindt resolves linked datatypes: literal datatypes whose behavior is defined
by a JavaScript resource published at the datatype URI. It checks, parses,
canonicalizes and compares literals of such datatypes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .lindt/config.yaml or ~/.config/lindt/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Int("cache-capacity", 0, "lexical forms cached per datatype")
	root.PersistentFlags().Bool("shared-runtime", false, "evaluate all resources in one JavaScript runtime")
	root.PersistentFlags().Bool("trace", false, "print OpenTelemetry spans to stderr")
	root.PersistentFlags().Bool("metrics", false, "print Prometheus metrics to stderr on exit")

	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("cache.capacity", root.PersistentFlags().Lookup("cache-capacity"))
	_ = a.v.BindPFlag("script.shared_runtime", root.PersistentFlags().Lookup("shared-runtime"))
	_ = a.v.BindPFlag("tracing.enabled", root.PersistentFlags().Lookup("trace"))
	_ = a.v.BindPFlag("metrics.dump", root.PersistentFlags().Lookup("metrics"))

	root.AddCommand(
		newValidCmd(a),
		newParseCmd(a),
		newCanonicalCmd(a),
		newEqualCmd(a),
		newCompareCmd(a),
		newCheckCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) initConfig() error {
	defaults := config.Defaults()
	a.v.SetDefault("log.level", defaults.Log.Level)
	a.v.SetDefault("log.format", defaults.Log.Format)
	a.v.SetDefault("cache.capacity", defaults.Cache.Capacity)
	a.v.SetDefault("loader.timeout", defaults.Loader.Timeout)
	a.v.SetDefault("loader.max_bytes", defaults.Loader.MaxBytes)
	a.v.SetDefault("script.factory_name", defaults.Script.FactoryName)
	a.v.SetDefault("script.shared_runtime", defaults.Script.SharedRuntime)
	a.v.SetDefault("script.call_timeout", defaults.Script.CallTimeout)
	a.v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	a.v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	a.v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	a.v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	a.v.SetDefault("metrics.dump", defaults.Metrics.Dump)

	a.v.SetEnvPrefix("lindt")
	a.v.SetEnvKeyReplacer(config.EnvKeyReplacer())
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		// Config lookup order:
		// 1. .lindt/config.yaml (current directory)
		// 2. ~/.config/lindt/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			a.v.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			a.v.AddConfigPath(filepath.Join(home, ".config", "lindt"))
			a.v.SetConfigName("config")
			a.v.SetConfigType("yaml")
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// session is an engine configured for one command run.
type session struct {
	engine   *lindt.Engine
	logger   *slog.Logger
	tracing  *tracing.Provider
	registry *prometheus.Registry
	dump     bool
	stderr   io.Writer
}

func (a *app) newSession(cmd *cobra.Command) (*session, error) {
	stderr := cmd.ErrOrStderr()
	logger, err := newLogger(a.cfg.Log, stderr)
	if err != nil {
		return nil, err
	}

	tp, err := tracing.NewProvider(a.cfg.Tracing, stderr)
	if err != nil {
		return nil, err
	}

	scriptOpts := []script.Option{
		script.WithFactoryName(a.cfg.Script.FactoryName),
		script.WithCallTimeout(a.cfg.Script.CallTimeout),
		script.WithLogger(logger.With("component", "script")),
	}
	if a.cfg.Script.SharedRuntime {
		scriptOpts = append(scriptOpts, script.WithSharedRuntime())
	}

	registry := prometheus.NewRegistry()
	engine, err := lindt.New(
		lindt.WithLogger(logger),
		lindt.WithCacheCapacity(a.cfg.Cache.Capacity),
		lindt.WithFetcher(&lindt.HTTPFetcher{
			Client:   &http.Client{Timeout: a.cfg.Loader.Timeout},
			MaxBytes: a.cfg.Loader.MaxBytes,
		}),
		lindt.WithTracerProvider(tp.TracerProvider()),
		lindt.WithMetrics(registry),
		script.EngineOption(scriptOpts...),
	)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}

	return &session{
		engine:   engine,
		logger:   logger,
		tracing:  tp,
		registry: registry,
		dump:     a.cfg.Metrics.Dump,
		stderr:   stderr,
	}, nil
}

// close flushes spans and, if requested, dumps metrics.
func (s *session) close(ctx context.Context) {
	if err := s.tracing.Shutdown(ctx); err != nil {
		s.logger.Warn("tracing shutdown failed", "error", err)
	}
	if !s.dump {
		return
	}
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Warn("gathering metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(s.stderr, mf); err != nil {
			s.logger.Warn("writing metrics failed", "error", err)
			return
		}
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// withSession runs fn with a fresh session and closes it afterwards.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close(context.WithoutCancel(ctx))
	return fn(ctx, s)
}
