// Package config loads the YAML configuration shared by the command line
// tools: sphere keys, broadcast settings and the log level.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/backkem/crownstone/pkg/broadcast"
	"github.com/backkem/crownstone/pkg/keys"
	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Spheres   []SphereConfig  `yaml:"spheres"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// SphereConfig holds one sphere's identifiers and hex-encoded keys.
type SphereConfig struct {
	ID      string     `yaml:"id"`
	ShortID uint8      `yaml:"short_id"`
	Keys    KeysConfig `yaml:"keys"`
}

// KeysConfig holds 32-character hex keys. Empty keys are absent.
type KeysConfig struct {
	Admin        string `yaml:"admin,omitempty"`
	Member       string `yaml:"member,omitempty"`
	Guest        string `yaml:"guest,omitempty"`
	ServiceData  string `yaml:"service_data,omitempty"`
	Localization string `yaml:"localization,omitempty"`
}

// BroadcastConfig holds broadcast scheduling and background settings.
type BroadcastConfig struct {
	IntervalMS         int   `yaml:"interval_ms"`
	Retries            int   `yaml:"retries"`
	DeviceToken        uint8 `yaml:"device_token"`
	LocationID         uint8 `yaml:"location_id"`
	ProfileID          uint8 `yaml:"profile_id"`
	RSSIOffset         int   `yaml:"rssi_offset"`
	TapToToggle        bool  `yaml:"tap_to_toggle"`
	IgnoreForBehaviour bool  `yaml:"ignore_for_behaviour"`
}

// BroadcastSettings are the broadcast values in component form.
type BroadcastSettings struct {
	Interval    time.Duration
	Retries     int
	DeviceToken uint8
	Background  broadcast.BackgroundPayload
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "crownstone.yaml"
	}
	return filepath.Join(home, ".config", "crownstone", "config.yaml")
}

// Default returns a Config with default values and no spheres.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Broadcast: BroadcastConfig{
			IntervalMS: int(broadcast.DefaultInterval / time.Millisecond),
			Retries:    broadcast.DefaultRetries,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML config data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	seenID := make(map[string]bool)
	seenShort := make(map[uint8]string)
	for i, s := range c.Spheres {
		if s.ID == "" {
			return fmt.Errorf("spheres[%d].id must not be empty", i)
		}
		if seenID[s.ID] {
			return fmt.Errorf("spheres[%d]: duplicate sphere id %q", i, s.ID)
		}
		seenID[s.ID] = true
		if other, ok := seenShort[s.ShortID]; ok {
			return fmt.Errorf("spheres[%d]: short_id %d already used by %q", i, s.ShortID, other)
		}
		seenShort[s.ShortID] = s.ID
		if _, err := s.KeySet(); err != nil {
			return fmt.Errorf("spheres[%d]: %w", i, err)
		}
	}

	b := c.Broadcast
	if b.IntervalMS <= 0 {
		return fmt.Errorf("broadcast.interval_ms must be > 0")
	}
	if b.Retries < 0 {
		return fmt.Errorf("broadcast.retries must be >= 0")
	}
	if b.LocationID > broadcast.MaxLocationID {
		return fmt.Errorf("broadcast.location_id must be <= %d, got %d", broadcast.MaxLocationID, b.LocationID)
	}
	if b.ProfileID > broadcast.MaxProfileID {
		return fmt.Errorf("broadcast.profile_id must be <= %d, got %d", broadcast.MaxProfileID, b.ProfileID)
	}
	return nil
}

// KeySet parses the sphere's keys.
func (s SphereConfig) KeySet() (keys.KeySet, error) {
	var kc keys.KeySetConfig
	fields := []struct {
		name string
		hex  string
		dst  **keys.Key
	}{
		{keys.RoleAdmin, s.Keys.Admin, &kc.Admin},
		{keys.RoleMember, s.Keys.Member, &kc.Member},
		{keys.RoleGuest, s.Keys.Guest, &kc.Guest},
		{keys.RoleServiceData, s.Keys.ServiceData, &kc.ServiceData},
		{keys.RoleLocalization, s.Keys.Localization, &kc.Localization},
	}
	for _, f := range fields {
		if f.hex == "" {
			continue
		}
		k, err := keys.ParseKey(f.hex)
		if err != nil {
			return keys.KeySet{}, fmt.Errorf("keys.%s: %w", f.name, err)
		}
		*f.dst = &k
	}
	return keys.NewKeySet(kc), nil
}

// KeyStore builds a key store holding every configured sphere.
func (c *Config) KeyStore() (*keys.Store, error) {
	store := keys.NewStore()
	for _, s := range c.Spheres {
		ks, err := s.KeySet()
		if err != nil {
			return nil, fmt.Errorf("sphere %q: %w", s.ID, err)
		}
		store.Put(keys.Sphere{ID: s.ID, ShortID: s.ShortID, Keys: ks})
	}
	return store, nil
}

// BroadcastSettings converts the broadcast section.
func (c *Config) BroadcastSettings() BroadcastSettings {
	b := c.Broadcast
	return BroadcastSettings{
		Interval:    time.Duration(b.IntervalMS) * time.Millisecond,
		Retries:     b.Retries,
		DeviceToken: b.DeviceToken,
		Background: broadcast.BackgroundPayload{
			LocationID:         b.LocationID,
			ProfileID:          b.ProfileID,
			RSSIOffset:         b.RSSIOffset,
			TapToToggle:        b.TapToToggle,
			IgnoreForBehaviour: b.IgnoreForBehaviour,
		},
	}
}

// ParseLogLevel maps a config log level to a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	switch s {
	case "trace":
		return logging.LogLevelTrace, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "warn":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	case "disabled":
		return logging.LogLevelDisabled, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("log_level must be trace, debug, info, warn, error or disabled, got %q", s)
}

// LoggerFactory returns a pion logger factory at the configured level,
// writing to w. A nil w writes to stderr.
func (c *Config) LoggerFactory(w io.Writer) logging.LoggerFactory {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelInfo
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	if w != nil {
		f.Writer = w
	}
	return f
}

// SphereFromKeySet builds a sphere stanza from a key set.
func SphereFromKeySet(id string, shortID uint8, ks keys.KeySet) SphereConfig {
	kc := ks.Config()
	hexOf := func(k *keys.Key) string {
		if k == nil {
			return ""
		}
		return k.String()
	}
	return SphereConfig{
		ID:      id,
		ShortID: shortID,
		Keys: KeysConfig{
			Admin:        hexOf(kc.Admin),
			Member:       hexOf(kc.Member),
			Guest:        hexOf(kc.Guest),
			ServiceData:  hexOf(kc.ServiceData),
			Localization: hexOf(kc.Localization),
		},
	}
}

// MarshalSpheres encodes spheres as a YAML "spheres:" section.
func MarshalSpheres(spheres ...SphereConfig) ([]byte, error) {
	return yaml.Marshal(struct {
		Spheres []SphereConfig `yaml:"spheres"`
	}{spheres})
}
