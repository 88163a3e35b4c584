package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the presence controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Presence  PresenceConfig  `yaml:"presence"`
	Light     LightConfig     `yaml:"light"`
	Motion    MotionConfig    `yaml:"motion"`
	Thermal   ThermalConfig   `yaml:"thermal"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PresenceConfig controls the idle countdown and the dim/wake fades.
type PresenceConfig struct {
	// Timeout is how long without motion before the light dims.
	// Default: 5m
	Timeout time.Duration `yaml:"timeout"`

	// FadeDuration is the length of the dimming fade. Zero dims instantly,
	// and any later motion then restores the pre-fade colour unconditionally.
	// Default: 30s
	FadeDuration time.Duration `yaml:"fade_duration"`

	// WakeDuration is the length of the fade back to the pre-fade colour.
	// Default: 1s
	WakeDuration time.Duration `yaml:"wake_duration"`

	// DimBrightness is the brightness (0-65535) the light fades to.
	// Default: 328 (2%)
	DimBrightness uint16 `yaml:"dim_brightness"`

	// NotifyRedundantStop reports a hold command received while idle.
	NotifyRedundantStop bool `yaml:"notify_redundant_stop"`
}

// LightConfig identifies the controlled light on the bus.
type LightConfig struct {
	Protocol string `yaml:"protocol"`
	Address  string `yaml:"address"`

	// DeviceID names this controller in topics, events and metrics.
	DeviceID string `yaml:"device_id"`

	// StateTimeout bounds how long a state read waits for the bridge.
	// Default: 2s
	StateTimeout time.Duration `yaml:"state_timeout"`
}

// MotionConfig identifies the motion sensor's GPIO bridge topic.
type MotionConfig struct {
	Protocol string `yaml:"protocol"`
	Address  string `yaml:"address"`
}

// ThermalConfig controls temperature sampling and the touch gesture.
type ThermalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// Interval between samples. Default: 100ms
	Interval time.Duration `yaml:"interval"`

	// HistorySize is the number of samples kept. Default: 20
	HistorySize int `yaml:"history_size"`

	// DropThreshold is the mean drop in °C between the older and newer
	// halves of the history that counts as a decreasing trend. Default: 1.0
	DropThreshold float64 `yaml:"drop_threshold"`

	// GestureBrightness is applied when the trend turns decreasing.
	// Default: 6554 (10%)
	GestureBrightness uint16 `yaml:"gesture_brightness"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
// For example: GRAYLOGIC_DATABASE_PATH, GRAYLOGIC_PRESENCE_TIMEOUT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "site-001",
			Name:     "Gray Logic",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/presence.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-presence",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/v1/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Presence: PresenceConfig{
			Timeout:       5 * time.Minute,
			FadeDuration:  30 * time.Second,
			WakeDuration:  time.Second,
			DimBrightness: 328,
		},
		Light: LightConfig{
			Protocol:     "lifx",
			DeviceID:     "presence-light",
			StateTimeout: 2 * time.Second,
		},
		Motion: MotionConfig{
			Protocol: "gpio",
		},
		Thermal: ThermalConfig{
			Path:              "/sys/class/thermal/thermal_zone0/temp",
			Interval:          100 * time.Millisecond,
			HistorySize:       20,
			DropThreshold:     1.0,
			GestureBrightness: 6554,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("GRAYLOGIC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("GRAYLOGIC_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Presence
	if v := os.Getenv("GRAYLOGIC_PRESENCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRAYLOGIC_PRESENCE_TIMEOUT: %w", err)
		}
		cfg.Presence.Timeout = d
	}

	// Devices
	if v := os.Getenv("GRAYLOGIC_LIGHT_ADDRESS"); v != "" {
		cfg.Light.Address = v
	}
	if v := os.Getenv("GRAYLOGIC_MOTION_ADDRESS"); v != "" {
		cfg.Motion.Address = v
	}
	if v := os.Getenv("GRAYLOGIC_THERMAL_PATH"); v != "" {
		cfg.Thermal.Path = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Presence timing
	if c.Presence.Timeout <= 0 {
		errs = append(errs, "presence.timeout must be positive")
	}
	if c.Presence.FadeDuration < 0 {
		errs = append(errs, "presence.fade_duration must not be negative")
	}
	if c.Presence.WakeDuration < 0 {
		errs = append(errs, "presence.wake_duration must not be negative")
	}

	// Topic segments must not break the flat topic scheme.
	errs = append(errs, validateSegment("light.protocol", c.Light.Protocol)...)
	errs = append(errs, validateSegment("light.address", c.Light.Address)...)
	errs = append(errs, validateSegment("light.device_id", c.Light.DeviceID)...)
	errs = append(errs, validateSegment("motion.protocol", c.Motion.Protocol)...)
	errs = append(errs, validateSegment("motion.address", c.Motion.Address)...)
	if c.Light.StateTimeout <= 0 {
		errs = append(errs, "light.state_timeout must be positive")
	}

	if c.Thermal.Enabled {
		if c.Thermal.Path == "" {
			errs = append(errs, "thermal.path is required when thermal is enabled")
		}
		if c.Thermal.Interval <= 0 {
			errs = append(errs, "thermal.interval must be positive")
		}
		if c.Thermal.HistorySize < 2 {
			errs = append(errs, "thermal.history_size must be at least 2")
		}
		if c.Thermal.DropThreshold <= 0 {
			errs = append(errs, "thermal.drop_threshold must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateSegment rejects empty values and MQTT separators or wildcards.
func validateSegment(name, value string) []string {
	if value == "" {
		return []string{name + " is required"}
	}
	if strings.ContainsAny(value, "/+#") {
		return []string{name + " must not contain '/', '+' or '#'"}
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
