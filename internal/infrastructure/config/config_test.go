package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// minimalDevices is the smallest device section that passes validation.
const minimalDevices = `
light:
  address: "d073d5000001"
motion:
  address: "gpio17"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Light.Address = "d073d5000001"
	cfg.Motion.Address = "gpio17"
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
presence:
  timeout: "90s"
  fade_duration: "10s"
  dim_brightness: 1000
light:
  protocol: "lifx"
  address: "d073d5000001"
  device_id: "hallway"
motion:
  protocol: "gpio"
  address: "gpio17"
thermal:
  enabled: true
  interval: "250ms"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Presence.Timeout != 90*time.Second {
		t.Errorf("Presence.Timeout = %v, want 90s", cfg.Presence.Timeout)
	}
	if cfg.Presence.FadeDuration != 10*time.Second {
		t.Errorf("Presence.FadeDuration = %v, want 10s", cfg.Presence.FadeDuration)
	}
	if cfg.Presence.DimBrightness != 1000 {
		t.Errorf("Presence.DimBrightness = %d, want 1000", cfg.Presence.DimBrightness)
	}
	// Unset fields keep their defaults.
	if cfg.Presence.WakeDuration != time.Second {
		t.Errorf("Presence.WakeDuration = %v, want 1s", cfg.Presence.WakeDuration)
	}
	if cfg.Light.DeviceID != "hallway" {
		t.Errorf("Light.DeviceID = %q, want %q", cfg.Light.DeviceID, "hallway")
	}
	if !cfg.Thermal.Enabled || cfg.Thermal.Interval != 250*time.Millisecond {
		t.Errorf("Thermal = %+v, want enabled with 250ms interval", cfg.Thermal)
	}
	if cfg.Thermal.HistorySize != 20 {
		t.Errorf("Thermal.HistorySize = %d, want 20", cfg.Thermal.HistorySize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, minimalDevices+"presence:\n  timeout: \"soon\"\n"))
	if err == nil {
		t.Error("Load() expected error for unparseable duration, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
database:
  path: "/tmp/test.db"
api:
  port: 8080
` + minimalDevices

	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestLoad_DevicesRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "site:\n  id: \"s\"\n"))
	if err == nil {
		t.Fatal("Load() expected error without light/motion addresses, got nil")
	}
	for _, want := range []string{"light.address is required", "motion.address is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Presence.Timeout = 0 }, wantErr: true},
		{name: "zero fade allowed", mutate: func(c *Config) { c.Presence.FadeDuration = 0 }},
		{name: "negative fade", mutate: func(c *Config) { c.Presence.FadeDuration = -time.Second }, wantErr: true},
		{name: "negative wake", mutate: func(c *Config) { c.Presence.WakeDuration = -time.Second }, wantErr: true},
		{name: "wildcard in address", mutate: func(c *Config) { c.Light.Address = "lights/#" }, wantErr: true},
		{name: "slash in device id", mutate: func(c *Config) { c.Light.DeviceID = "a/b" }, wantErr: true},
		{name: "missing motion protocol", mutate: func(c *Config) { c.Motion.Protocol = "" }, wantErr: true},
		{name: "zero state timeout", mutate: func(c *Config) { c.Light.StateTimeout = 0 }, wantErr: true},
		{
			name: "thermal disabled ignores bad values",
			mutate: func(c *Config) {
				c.Thermal.Enabled = false
				c.Thermal.HistorySize = 0
			},
		},
		{
			name: "thermal history too small",
			mutate: func(c *Config) {
				c.Thermal.Enabled = true
				c.Thermal.HistorySize = 1
			},
			wantErr: true,
		},
		{
			name: "thermal missing path",
			mutate: func(c *Config) {
				c.Thermal.Enabled = true
				c.Thermal.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_API_HOST", "192.168.1.1")
	t.Setenv("GRAYLOGIC_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_PRESENCE_TIMEOUT", "45s")
	t.Setenv("GRAYLOGIC_LIGHT_ADDRESS", "d073d5abcdef")
	t.Setenv("GRAYLOGIC_MOTION_ADDRESS", "gpio27")
	t.Setenv("GRAYLOGIC_THERMAL_PATH", "/tmp/temp")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Presence.Timeout != 45*time.Second {
		t.Errorf("Presence.Timeout = %v, want 45s", cfg.Presence.Timeout)
	}
	if cfg.Light.Address != "d073d5abcdef" {
		t.Errorf("Light.Address = %q, want %q", cfg.Light.Address, "d073d5abcdef")
	}
	if cfg.Motion.Address != "gpio27" {
		t.Errorf("Motion.Address = %q, want %q", cfg.Motion.Address, "gpio27")
	}
	if cfg.Thermal.Path != "/tmp/temp" {
		t.Errorf("Thermal.Path = %q, want %q", cfg.Thermal.Path, "/tmp/temp")
	}
}

func TestApplyEnvOverrides_InvalidTimeout(t *testing.T) {
	t.Setenv("GRAYLOGIC_PRESENCE_TIMEOUT", "forever")
	if err := applyEnvOverrides(defaultConfig()); err == nil {
		t.Error("applyEnvOverrides() expected error for invalid duration, got nil")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Presence.DimBrightness != 328 {
		t.Errorf("defaultConfig Presence.DimBrightness = %d, want 328", cfg.Presence.DimBrightness)
	}
	if cfg.Thermal.Path != "/sys/class/thermal/thermal_zone0/temp" {
		t.Errorf("defaultConfig Thermal.Path = %q", cfg.Thermal.Path)
	}
	if cfg.Thermal.Enabled {
		t.Error("defaultConfig should leave thermal sampling disabled")
	}
}
