// Package bootstrap wires configuration, storage, the module loader and the
// HTTP channel into a running application.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/adapters/hasher"
	"github.com/artpar/adminkit/adapters/metrics"
	"github.com/artpar/adminkit/config"
	"github.com/artpar/adminkit/core/authz"
	httpchan "github.com/artpar/adminkit/core/channel/http"
	"github.com/artpar/adminkit/core/events"
	"github.com/artpar/adminkit/core/i18n"
	"github.com/artpar/adminkit/core/registry"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/modules"
	"github.com/artpar/adminkit/modules/settings"
)

// Options adjust how an App is built.
type Options struct {
	// Hasher stores user passwords. Defaults to bcrypt at the default cost.
	Hasher hasher.Hasher

	// Output receives log lines. Defaults to stdout.
	Output io.Writer
}

// App represents the composed application.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Metrics  *metrics.Collector
	Storage  *Storage
	Composed *registry.App
	HTTP     *httpchan.Channel

	holder  *config.Holder
	metrics *prometheus.Registry
}

// New composes the application from cfg without starting the server.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	logger := setupLogger(cfg.Logging, out)
	logger.Info().Str("storage", cfg.Storage.Driver).Msg("initializing adminkit")

	a := &App{Logger: logger, Config: cfg}

	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		a.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = metrics.NewWithRegistry(a.metrics)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	h := opts.Hasher
	if h == nil {
		h = hasher.NewBcrypt(0)
	}
	st, err := OpenStorage(ctx, cfg.Storage, h, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.Storage = st

	composed, err := a.compose(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	a.Composed = composed

	httpOpts := httpchan.Options{
		Addr:          cfg.Server.Addr(),
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		Resolver:      settings.CompanyData(authz.HeaderResolver{}, st.Services[modules.CompanyService]),
		DefaultLocale: cfg.I18n.DefaultLocale,
		Logger:        logger,
	}
	if a.Metrics != nil {
		httpOpts.Recorder = a.Metrics
		httpOpts.MetricsPath = cfg.Metrics.Path
		httpOpts.MetricsHandler = promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})
	}
	a.HTTP = httpchan.New(composed, httpOpts)

	return a, nil
}

// NewWithHotReload loads configuration from path and keeps the log level in
// sync with later edits of the file and SIGHUP.
func NewWithHotReload(ctx context.Context, path string, opts Options) (*App, error) {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	holder, err := config.NewHolder(path, boot)
	if err != nil {
		return nil, err
	}

	a, err := New(ctx, holder.Get(), opts)
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.holder = holder
	if a.Metrics != nil {
		holder.SetRecorder(a.Metrics)
	}
	holder.OnChange(func(cfg *config.Config) {
		zerolog.SetGlobalLevel(parseLevel(cfg.Logging.Level))
		a.Logger.Info().Str("level", cfg.Logging.Level).Msg("configuration reloaded")
	})
	if err := holder.Watch(); err != nil {
		a.Logger.Warn().Err(err).Msg("config file watch disabled, reload with SIGHUP")
	}
	return a, nil
}

// compose registers the enabled modules and runs the loader once.
func (a *App) compose(ctx context.Context) (*registry.App, error) {
	resources := resource.NewRegistry()
	if err := a.Storage.Register(resources); err != nil {
		return nil, err
	}

	defs, err := Definitions(a.Config.Modules)
	if err != nil {
		return nil, err
	}

	deps := registry.Deps{
		Interceptor: events.New(a.Logger),
		I18n:        i18n.New(a.Logger, a.Config.I18n.FallbackLocale),
		Resources:   resources,
		Logger:      a.Logger,
	}
	if a.Metrics != nil {
		deps.Interceptor.SetRecorder(a.Metrics)
		deps.Recorder = a.Metrics
		deps.BuilderRecorder = a.Metrics
	}

	reg := registry.New(deps)
	for _, d := range defs {
		if err := reg.Register(d.Config, d.Init); err != nil {
			return nil, fmt.Errorf("register module %s: %w", d.Config.Name, err)
		}
	}
	reg.Disable(a.Config.Modules.Disabled...)

	composed, err := reg.Run(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("compose modules: %w", err)
	}
	return composed, nil
}

// Run starts the HTTP channel and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.HTTP.Start(context.Background()); err != nil {
		return fmt.Errorf("start http: %w", err)
	}
	a.Logger.Info().
		Str("addr", a.Config.Server.Addr()).
		Int("modules", len(a.Composed.Modules)).
		Int("routes", a.Composed.Table.Len()).
		Msg("adminkit started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")

	return a.Shutdown()
}

// Shutdown stops the server and releases storage.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	var firstErr error
	if a.HTTP != nil {
		if err := a.HTTP.Stop(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			firstErr = err
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("storage close error")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return firstErr
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}
