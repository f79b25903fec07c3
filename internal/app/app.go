package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/config"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/logging"
	"github.com/five82/mlconsole/internal/polling"
	"github.com/five82/mlconsole/internal/prefs"
	"github.com/five82/mlconsole/internal/stores"
	"github.com/five82/mlconsole/internal/ui"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Options configure the mlconsole application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/mlconsole/prefs.toml
	// Username and Password log in when the stored token is missing or
	// rejected by the master.
	Username string
	Password string
}

// Run boots the mlconsole TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prefStore := prefs.NewStore(opts.PrefsPath)
	userPrefs := prefStore.Load()

	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer closeLog()
	logger.Info().Str("version", Version).Str("master", cfg.MasterURL).Msg("starting")

	metrics, err := polling.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		stop := serveMetrics(cfg.MetricsAddr, logger)
		defer stop()
	}

	var handlerOpts []errs.HandlerOption
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Release: "mlconsole@" + Version})
		if err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		handlerOpts = append(handlerOpts, errs.WithSentry())
	}
	handler := errs.New(logger, handlerOpts...)

	clientOpts := []api.Option{api.WithTimeout(cfg.RequestTimeout)}
	if userPrefs.Token != "" {
		clientOpts = append(clientOpts, api.WithToken(userPrefs.Token))
	}
	client, err := api.NewClient(cfg.MasterURL, clientOpts...)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	sc := stores.New(client, stores.Options{
		Handler: handler,
		Logger:  logger,
		Metrics: metrics,
		Tokens:  prefStore,
	})
	// A 401 is reported from inside a poll and Expire stops the pollers.
	handler.OnAuthFailure(func() { go sc.Auth.Expire() })

	username := opts.Username
	if username == "" {
		username = userPrefs.Username
	}
	if err := bootstrap(ctx, sc, username, opts.Password, logger); err != nil {
		return err
	}

	sc.StartPolling(ctx, cfg.PollInterval, cfg.SettingsPollInterval)
	defer func() {
		sc.StopPolling()
		sc.Settings.Flush()
	}()

	err = ui.Run(ui.Options{
		Context:      ctx,
		Stores:       sc,
		Errors:       handler,
		Prefs:        prefStore,
		ThemeMode:    userPrefs.Theme,
		WatchOptions: polling.Options{Delay: cfg.PollInterval, MaxRetry: -1},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
