package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/agrik/agrik-dashboard/components/dashboard"
	"github.com/agrik/agrik-dashboard/components/dashboard/commands"
	"github.com/agrik/agrik-dashboard/components/dashboard/gorouter"
	"github.com/agrik/agrik-dashboard/components/dashboard/httpapi"
	"github.com/agrik/agrik-dashboard/components/dashboard/queries"
	"github.com/agrik/agrik-dashboard/internal/config"
	"github.com/agrik/agrik-dashboard/pkg/assistant"
	dashboardpkg "github.com/agrik/agrik-dashboard/pkg/dashboard"
	"github.com/agrik/agrik-dashboard/pkg/exchangelog"
	"github.com/agrik/agrik-dashboard/pkg/sensorfeed"
)

type serveCmd struct {
	Listen string `help:"Override the listen address."`
	Mock   bool   `help:"Answer prompts with the built-in mock assistant."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals) error {
	cfg, logger, err := loadConfig(g, cmd.Mock)
	if err != nil {
		return err
	}
	if cmd.Listen != "" {
		cfg.Listen = cmd.Listen
	}

	ask, err := newAssistant(cfg)
	if err != nil {
		return err
	}

	base, err := baseSnapshot(cfg, logger)
	if err != nil {
		return err
	}
	var sensors dashboard.SensorProvider = dashboard.NewStaticSensorProvider(base)
	if cfg.MQTT.Broker != "" {
		feed := sensorfeed.New(sensorfeed.Config{
			Broker:         cfg.MQTT.Broker,
			Topic:          cfg.MQTT.Topic,
			ClientID:       cfg.MQTT.ClientID,
			Window:         cfg.MQTT.Window,
			MaxTemperature: cfg.MQTT.MaxTemperature,
			MinHumidity:    cfg.MQTT.MinHumidity,
			Logger:         logger,
		}, base)
		if err := feed.Start(ctx); err != nil {
			return err
		}
		defer feed.Stop()
		sensors = feed
	}

	var recorder dashboard.ExchangeRecorder
	if cfg.ExchangeLog.Path != "" {
		store, err := exchangelog.Open(cfg.ExchangeLog.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	validator, err := dashboard.NewJSONSchemaPromptValidator(cfg.Dashboard.MaxPromptLength)
	if err != nil {
		return err
	}
	hook := dashboard.NewBroadcastHook()
	telemetry := dashboard.NewSlogTelemetry(logger)
	service := dashboardpkg.NewService(dashboard.Options{
		Sensors:   sensors,
		Assistant: ask,
		Charts: dashboard.NewEChartsProvider(
			dashboard.WithChartCache(dashboard.NewChartCache(cfg.Charts.CacheTTL, dashboard.WithChartCacheSize(cfg.Charts.CacheEntries))),
			dashboard.WithChartAssetsHost(cfg.Charts.AssetsHost),
			dashboard.WithChartHeight(cfg.Charts.Height),
		),
		Validator:   validator,
		RefreshHook: hook,
		Recorder:    recorder,
		Telemetry:   telemetry,
		Logger:      logger,
		MapOptions: dashboard.MapOptions{
			TileURL:         cfg.Map.TileURL,
			TileAttribution: cfg.Map.TileAttribution,
			CenterLat:       cfg.Map.CenterLat,
			CenterLng:       cfg.Map.CenterLng,
			Zoom:            cfg.Map.Zoom,
		},
		ChatTimeout: cfg.Assistant.Timeout,
		SessionTTL:  cfg.Dashboard.SessionTTL,
	})

	renderer, err := dashboard.NewTemplateRenderer(cfg.Dashboard.TemplatesDir)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
		Endpoint: cfg.BasePath + "/dashboard",
	})
	executor := &httpapi.CommandExecutor{
		ThemeCommander:    commands.NewToggleThemeCommand(service, telemetry),
		LanguageCommander: commands.NewToggleLanguageCommand(service, telemetry),
		PromptCommander:   commands.NewUpdatePromptCommand(service, telemetry),
		SubmitCommander:   commands.NewSubmitPromptCommand(service, telemetry),
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:      server.Router(),
		Controller:  controller,
		API:         executor,
		Broadcast:   hook,
		ChatState:   queries.NewChatStateQuery(service),
		Preferences: queries.NewPreferencesQuery(service),
		BasePath:    cfg.BasePath,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	go sweepSessions(ctx, commands.NewSweepSessionsCommand(service, telemetry), cfg.Dashboard.SweepInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard ready", "url", "http://localhost"+cfg.Listen+cfg.BasePath+"/dashboard")
		errCh <- server.Serve(cfg.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	if s, ok := any(server).(interface{ Shutdown(context.Context) error }); ok {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func sweepSessions(ctx context.Context, sweep *commands.SweepSessionsCommand, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var removed int
			if err := sweep.Execute(ctx, commands.SweepSessionsInput{Removed: &removed}); err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("expired idle sessions", "count", removed)
			}
		}
	}
}

func baseSnapshot(cfg *config.Config, logger *slog.Logger) (dashboard.FieldSnapshot, error) {
	if cfg.Dashboard.FieldFile == "" {
		return dashboard.FixtureSnapshot(), nil
	}
	doc, err := dashboard.ReadManifest(cfg.Dashboard.FieldFile)
	if err != nil {
		return dashboard.FieldSnapshot{}, err
	}
	logger.Info("loaded field manifest", "path", doc.Source, "name", doc.Name, "sensors", len(doc.Sensors))
	return doc.Snapshot(), nil
}

func loadConfig(g *globals, forceMock bool) (*config.Config, *slog.Logger, error) {
	path, err := config.FindConfig(g.Config)
	if err != nil {
		return nil, nil, err
	}
	var overrides []func(*config.Config)
	if forceMock {
		overrides = append(overrides, func(c *config.Config) { c.Assistant.Mock = true })
	}
	cfg, err := config.Load(path, overrides...)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}
	return cfg, logger, nil
}

func newAssistant(cfg *config.Config) (dashboard.Assistant, error) {
	if cfg.Assistant.Mock {
		return assistant.DefaultMockClient(), nil
	}
	return assistant.NewHTTPClient(assistant.HTTPConfig{
		Endpoint:     cfg.Assistant.Endpoint,
		APIKey:       cfg.Assistant.APIKey,
		APIKeyHeader: cfg.Assistant.APIKeyHeader,
		Timeout:      cfg.Assistant.Timeout,
	})
}
