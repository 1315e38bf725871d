package application

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SweepConfig schedules the daily expiry sweep.
type SweepConfig struct {
	DailyAt string `yaml:"daily_at"`
}

// SignatureConfig schedules signature status polling.
type SignatureConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Config defines contract workflow configuration.
type Config struct {
	Sweep            SweepConfig     `yaml:"sweep"`
	Signature        SignatureConfig `yaml:"signature"`
	UpliftMaxPPerKWh float64         `yaml:"uplift_max_p_per_kwh"`
}

// LoadConfig loads config from yaml or env. BROKER_CONFIG points at an
// optional yaml file; env values fill whatever the file leaves unset.
func LoadConfig() (Config, error) {
	cfg := Config{
		UpliftMaxPPerKWh: getenvFloatDefault("BROKER_UPLIFT_MAX_P_PER_KWH", 0),
	}

	if path := os.Getenv("BROKER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Sweep.DailyAt == "" {
		cfg.Sweep.DailyAt = getenvDefault("BROKER_SWEEP_DAILY_AT", "06:00")
	}
	if cfg.Signature.PollInterval <= 0 {
		cfg.Signature.PollInterval = getenvDurationDefault("BROKER_SIGN_POLL_INTERVAL", 15*time.Minute)
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
