// Package config loads the TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the full service configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Economy EconomyConfig `toml:"economy"`
	Anomaly AnomalyConfig `toml:"anomaly"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	RequestTimeout int    `toml:"request_timeout_seconds"`
}

// Addr returns the host:port listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Path string `toml:"path"` // SQLite file; ":memory:" for ephemeral
}

// EconomyConfig holds the reward policy.
type EconomyConfig struct {
	CheckInCoins      int64 `toml:"check_in_coins"`
	CheckInXP         int64 `toml:"check_in_xp"`
	StreakLength      int   `toml:"streak_length"`
	StreakBonusCoins  int64 `toml:"streak_bonus_coins"`
	MilestoneInterval int   `toml:"milestone_interval"`
	MilestoneBonus    int64 `toml:"milestone_bonus"`
}

// AnomalyConfig holds detector thresholds. Windows are hours/minutes to keep
// the TOML readable.
type AnomalyConfig struct {
	XPSpikeThreshold     int64 `toml:"xp_spike_threshold"`
	XPSpikeWindowHours   int   `toml:"xp_spike_window_hours"`
	CoinSpikeThreshold   int64 `toml:"coin_spike_threshold"`
	CoinSpikeWindowHours int   `toml:"coin_spike_window_hours"`
	SubmissionThreshold  int   `toml:"submission_threshold"`
	SubmissionWindowMin  int   `toml:"submission_window_minutes"`
	QueueStallHours      int   `toml:"queue_stall_hours"`
	RedemptionThreshold  int   `toml:"redemption_threshold"`
	RedemptionWindowMin  int   `toml:"redemption_window_minutes"`
}

// XPSpikeWindow returns the XP window as a duration.
func (c AnomalyConfig) XPSpikeWindow() time.Duration {
	return time.Duration(c.XPSpikeWindowHours) * time.Hour
}

// CoinSpikeWindow returns the coin window as a duration.
func (c AnomalyConfig) CoinSpikeWindow() time.Duration {
	return time.Duration(c.CoinSpikeWindowHours) * time.Hour
}

// SubmissionWindow returns the submission window as a duration.
func (c AnomalyConfig) SubmissionWindow() time.Duration {
	return time.Duration(c.SubmissionWindowMin) * time.Minute
}

// QueueStallAge returns the stall cutoff as a duration.
func (c AnomalyConfig) QueueStallAge() time.Duration {
	return time.Duration(c.QueueStallHours) * time.Hour
}

// RedemptionWindow returns the redemption window as a duration.
func (c AnomalyConfig) RedemptionWindow() time.Duration {
	return time.Duration(c.RedemptionWindowMin) * time.Minute
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			RequestTimeout: 30,
		},
		Storage: StorageConfig{
			Path: "awbeta.db",
		},
		Economy: EconomyConfig{
			CheckInCoins:      10,
			CheckInXP:         25,
			StreakLength:      7,
			StreakBonusCoins:  50,
			MilestoneInterval: 5,
			MilestoneBonus:    50,
		},
		Anomaly: AnomalyConfig{
			XPSpikeThreshold:     20000,
			XPSpikeWindowHours:   24,
			CoinSpikeThreshold:   5000,
			CoinSpikeWindowHours: 24,
			SubmissionThreshold:  10,
			SubmissionWindowMin:  60,
			QueueStallHours:      48,
			RedemptionThreshold:  5,
			RedemptionWindowMin:  10,
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".awbeta", "config.toml")
}

// Load reads the config at path, layering it over the defaults. A missing
// file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
