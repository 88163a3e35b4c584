package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/gray-logic-presence/migrations"

	"github.com/nerrad567/gray-logic-presence/internal/api"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/light"
	"github.com/nerrad567/gray-logic-presence/internal/motion"
	"github.com/nerrad567/gray-logic-presence/internal/presence"
	"github.com/nerrad567/gray-logic-presence/internal/thermal"
)

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Configuration file to load and watch
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Presence",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"device_id", cfg.Light.DeviceID,
		"timeout", cfg.Presence.Timeout,
	)

	// Open database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	qos := mqttClient.DefaultQoS()
	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))

	lightClient, err := light.NewMQTTClient(light.Options{
		Config: cfg.Light,
		Bus:    mqttClient,
		QoS:    qos,
		Logger: log.Component("light"),
	})
	if err != nil {
		return fmt.Errorf("creating light client: %w", err)
	}
	defer func() {
		if closeErr := lightClient.Close(); closeErr != nil {
			log.Warn("error closing light client", "error", closeErr)
		}
	}()

	ctrlOpts := presence.Options{
		DeviceID:          cfg.Light.DeviceID,
		Presence:          cfg.Presence,
		GestureBrightness: cfg.Thermal.GestureBrightness,
		Light:             lightClient,
		Repository:        presence.NewSQLiteRepository(db.DB),
		Publisher:         mqttClient,
		Broadcaster:       hub,
		Metrics:           presence.NewMetrics(registry),
		Logger:            log.Component("presence"),
	}
	if influxClient != nil {
		ctrlOpts.Telemetry = influxClient
	}

	ctrl, err := presence.New(ctrlOpts)
	if err != nil {
		return fmt.Errorf("creating presence controller: %w", err)
	}
	defer func() {
		log.Info("stopping presence controller")
		if closeErr := ctrl.Close(); closeErr != nil {
			log.Error("error stopping presence controller", "error", closeErr)
		}
	}()

	if err := ctrl.SubscribeCommands(mqttClient, qos); err != nil {
		return err
	}

	source := motion.NewMQTTSource(mqttClient, cfg.Motion, qos)
	source.SetLogger(log.Component("motion"))

	var monitor *thermal.Monitor
	if cfg.Thermal.Enabled {
		monitor, err = newThermalMonitor(cfg, ctrl, influxClient, log)
		if err != nil {
			return err
		}
	} else {
		log.Info("thermal monitor disabled")
	}

	apiDeps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Presence: ctrl,
		Health: map[string]api.HealthChecker{
			"database": db,
			"mqtt":     mqttClient,
		},
		Gatherer:    registry,
		ExternalHub: hub,
		Version:     version,
	}
	if monitor != nil {
		apiDeps.Thermal = monitor
	}
	if influxClient != nil {
		apiDeps.Health["influxdb"] = influxClient
	}

	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	watcher, err := config.NewWatcher(configPath, cfg, func(next *config.Config) {
		applyReload(ctrl, next, log)
	})
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	watcher.SetLogger(log.Component("config"))

	// The controller ending (motion source closed, timer stopped) shuts
	// everything else down too.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		defer stop()
		return ctrl.Run(gctx, source)
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})
	if monitor != nil {
		g.Go(func() error {
			return monitor.Run(gctx)
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	if err := g.Wait(); err != nil {
		return err
	}

	// Deferred Close() calls run in reverse order: API server, presence
	// controller, light client, InfluxDB, MQTT, database.
	log.Info("Gray Logic Presence stopped")
	return nil
}

// newThermalMonitor wires the sysfs sensor to the controller's gesture
// handler and, when enabled, to InfluxDB.
func newThermalMonitor(cfg *config.Config, ctrl *presence.Controller, influxClient *influxdb.Client, log *logging.Logger) (*thermal.Monitor, error) {
	opts := thermal.MonitorOptions{
		DeviceID:      cfg.Light.DeviceID,
		Interval:      cfg.Thermal.Interval,
		HistorySize:   cfg.Thermal.HistorySize,
		DropThreshold: cfg.Thermal.DropThreshold,
		OnGesture:     ctrl.HandleGesture,
		Logger:        log.Component("thermal"),
	}
	if influxClient != nil {
		opts.Recorder = influxClient
	}

	monitor, err := thermal.NewMonitor(thermal.NewSysfsSensor(cfg.Thermal.Path), opts)
	if err != nil {
		return nil, fmt.Errorf("creating thermal monitor: %w", err)
	}
	log.Info("thermal monitor enabled",
		"path", cfg.Thermal.Path,
		"interval", cfg.Thermal.Interval,
		"history_size", monitor.Capacity(),
	)
	return monitor, nil
}

// timeoutSetter is the part of the controller touched by a config reload.
type timeoutSetter interface {
	Timeout() time.Duration
	SetTimeout(d time.Duration) error
}

// applyReload pushes a changed presence timeout to the controller. Other
// settings need a restart.
func applyReload(ctrl timeoutSetter, next *config.Config, log *logging.Logger) {
	if next.Presence.Timeout == ctrl.Timeout() {
		log.Info("configuration reloaded, presence timeout unchanged")
		return
	}
	if err := ctrl.SetTimeout(next.Presence.Timeout); err != nil {
		log.Warn("rejected reloaded presence timeout", "timeout", next.Presence.Timeout, "error", err)
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
