package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvMonitorSnapshotURL      = "DFS_MONITOR_SNAPSHOT_URL"
	EnvMonitorSafeInterval     = "DFS_MONITOR_SAFE_INTERVAL"
	EnvMonitorAlertedInterval  = "DFS_MONITOR_ALERTED_INTERVAL"
	EnvMonitorNotReadyInterval = "DFS_MONITOR_NOT_READY_INTERVAL"
	EnvMonitorCooldown         = "DFS_MONITOR_COOLDOWN"
)

// MonitorConfig holds the live monitoring cadence parameters. Intervals are
// measured from the completion of one sampling cycle to the start of the next,
// so analyses never overlap regardless of how long a cycle takes.
type MonitorConfig struct {
	SnapshotURL      string `toml:"snapshot_url"`
	SafeInterval     string `toml:"safe_interval"`
	AlertedInterval  string `toml:"alerted_interval"`
	NotReadyInterval string `toml:"not_ready_interval"`
	Cooldown         string `toml:"cooldown"`
}

// SafeIntervalDuration returns SafeInterval as a time.Duration.
func (c *MonitorConfig) SafeIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SafeInterval)
	return d
}

// AlertedIntervalDuration returns AlertedInterval as a time.Duration.
func (c *MonitorConfig) AlertedIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.AlertedInterval)
	return d
}

// NotReadyIntervalDuration returns NotReadyInterval as a time.Duration.
func (c *MonitorConfig) NotReadyIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.NotReadyInterval)
	return d
}

// CooldownDuration returns Cooldown as a time.Duration.
func (c *MonitorConfig) CooldownDuration() time.Duration {
	d, _ := time.ParseDuration(c.Cooldown)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MonitorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *MonitorConfig) Merge(overlay *MonitorConfig) {
	if overlay.SnapshotURL != "" {
		c.SnapshotURL = overlay.SnapshotURL
	}
	if overlay.SafeInterval != "" {
		c.SafeInterval = overlay.SafeInterval
	}
	if overlay.AlertedInterval != "" {
		c.AlertedInterval = overlay.AlertedInterval
	}
	if overlay.NotReadyInterval != "" {
		c.NotReadyInterval = overlay.NotReadyInterval
	}
	if overlay.Cooldown != "" {
		c.Cooldown = overlay.Cooldown
	}
}

func (c *MonitorConfig) loadDefaults() {
	if c.SafeInterval == "" {
		c.SafeInterval = "3s"
	}
	if c.AlertedInterval == "" {
		// once a fake is confirmed, back off to conserve quota
		c.AlertedInterval = "10s"
	}
	if c.NotReadyInterval == "" {
		c.NotReadyInterval = "1s"
	}
	if c.Cooldown == "" {
		c.Cooldown = "30s"
	}
}

func (c *MonitorConfig) loadEnv() {
	if v := os.Getenv(EnvMonitorSnapshotURL); v != "" {
		c.SnapshotURL = v
	}
	if v := os.Getenv(EnvMonitorSafeInterval); v != "" {
		c.SafeInterval = v
	}
	if v := os.Getenv(EnvMonitorAlertedInterval); v != "" {
		c.AlertedInterval = v
	}
	if v := os.Getenv(EnvMonitorNotReadyInterval); v != "" {
		c.NotReadyInterval = v
	}
	if v := os.Getenv(EnvMonitorCooldown); v != "" {
		c.Cooldown = v
	}
}

func (c *MonitorConfig) validate() error {
	for name, value := range map[string]string{
		"safe_interval":      c.SafeInterval,
		"alerted_interval":   c.AlertedInterval,
		"not_ready_interval": c.NotReadyInterval,
		"cooldown":           c.Cooldown,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s: must be positive", name)
		}
	}
	return nil
}
