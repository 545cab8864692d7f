package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backkem/crownstone/pkg/keys"
	"github.com/pion/logging"
)

const testYAML = `
log_level: debug
spheres:
  - id: home
    short_id: 42
    keys:
      admin: 000102030405060708090a0b0c0d0e0f
      guest: 202122232425262728292a2b2c2d2e2f
      localization: 101112131415161718191a1b1c1d1e1f
  - id: office
    short_id: 7
    keys:
      member: 303132333435363738393a3b3c3d3e3f
broadcast:
  retries: 5
  device_token: 9
  location_id: 12
  rssi_offset: -4
  tap_to_toggle: true
`

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Broadcast.IntervalMS != 500 {
		t.Errorf("Broadcast.IntervalMS = %d, want 500", cfg.Broadcast.IntervalMS)
	}
	if cfg.Broadcast.Retries != 3 {
		t.Errorf("Broadcast.Retries = %d, want 3", cfg.Broadcast.Retries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.Spheres) != 2 {
		t.Fatalf("len(Spheres) = %d, want 2", len(cfg.Spheres))
	}

	settings := cfg.BroadcastSettings()
	if settings.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v, want default 500ms", settings.Interval)
	}
	if settings.Retries != 5 || settings.DeviceToken != 9 {
		t.Errorf("Retries, DeviceToken = %d, %d, want 5, 9", settings.Retries, settings.DeviceToken)
	}
	bg := settings.Background
	if bg.LocationID != 12 || bg.RSSIOffset != -4 || !bg.TapToToggle || bg.IgnoreForBehaviour {
		t.Errorf("Background = %+v", bg)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestKeyStore(t *testing.T) {
	cfg, err := Parse([]byte(testYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	store, err := cfg.KeyStore()
	if err != nil {
		t.Fatalf("KeyStore() error = %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("store.Len() = %d, want 2", store.Len())
	}

	home, ok := store.Get("home")
	if !ok {
		t.Fatal("sphere home missing")
	}
	if home.ShortID != 42 {
		t.Errorf("ShortID = %d, want 42", home.ShortID)
	}
	level, _, ok := home.Keys.HighestAvailable()
	if !ok || level != keys.AccessAdmin {
		t.Errorf("HighestAvailable = %s, %v, want Admin", level, ok)
	}
	if _, ok := home.Keys.Key(keys.AccessMember); ok {
		t.Error("home should have no member key")
	}
	if _, err := store.RC5Key("home"); err != nil {
		t.Errorf("RC5Key(home) error = %v", err)
	}

	office, _ := store.KeySet("office")
	level, _, _ = office.HighestAvailable()
	if level != keys.AccessMember {
		t.Errorf("office HighestAvailable = %s, want Member", level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"empty sphere id", func(c *Config) { c.Spheres = []SphereConfig{{}} }, "id must not be empty"},
		{"duplicate id", func(c *Config) {
			c.Spheres = []SphereConfig{{ID: "a", ShortID: 1}, {ID: "a", ShortID: 2}}
		}, "duplicate sphere id"},
		{"duplicate short id", func(c *Config) {
			c.Spheres = []SphereConfig{{ID: "a", ShortID: 1}, {ID: "b", ShortID: 1}}
		}, "short_id 1"},
		{"bad key", func(c *Config) {
			c.Spheres = []SphereConfig{{ID: "a", Keys: KeysConfig{Admin: "xyz"}}}
		}, "keys.admin"},
		{"short key", func(c *Config) {
			c.Spheres = []SphereConfig{{ID: "a", Keys: KeysConfig{Guest: "0011"}}}
		}, "keys.guest"},
		{"zero interval", func(c *Config) { c.Broadcast.IntervalMS = 0 }, "interval_ms"},
		{"negative retries", func(c *Config) { c.Broadcast.Retries = -1 }, "retries"},
		{"location id", func(c *Config) { c.Broadcast.LocationID = 64 }, "location_id"},
		{"profile id", func(c *Config) { c.Broadcast.ProfileID = 8 }, "profile_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.LogLevel
	}{
		{"trace", logging.LogLevelTrace},
		{"debug", logging.LogLevelDebug},
		{"info", logging.LogLevelInfo},
		{"warn", logging.LogLevelWarn},
		{"error", logging.LogLevelError},
		{"disabled", logging.LogLevelDisabled},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("ParseLogLevel(verbose) should fail")
	}
}

func TestLoggerFactory(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"
	log := cfg.LoggerFactory(&buf).NewLogger("test")

	log.Info("hidden")
	log.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message not logged")
	}
}

func TestSphereRoundTrip(t *testing.T) {
	ks, err := keys.Derive(bytes.Repeat([]byte{0x11}, 32), "lab")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	out, err := MarshalSpheres(SphereFromKeySet("lab", 3, ks))
	if err != nil {
		t.Fatalf("MarshalSpheres() error = %v", err)
	}

	cfg, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	got, err := cfg.Spheres[0].KeySet()
	if err != nil {
		t.Fatalf("KeySet() error = %v", err)
	}
	for _, level := range []keys.AccessLevel{keys.AccessAdmin, keys.AccessMember, keys.AccessGuest} {
		want, _ := ks.Key(level)
		k, ok := got.Key(level)
		if !ok || k != want {
			t.Errorf("%s key did not survive the round trip", level)
		}
	}
	want, _ := ks.Localization()
	if k, ok := got.Localization(); !ok || k != want {
		t.Error("localization key did not survive the round trip")
	}
}
