package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/padel-elo/internal/cooldown"
	"github.com/AdamBeresnev/padel-elo/internal/rating"
	"github.com/joho/godotenv"
)

var DefaultCourts = []string{"Pista 1", "Pista 2", "Pista 3"}

type Config struct {
	Addr            string
	DBPath          string
	KFactor         int
	Cooldown        time.Duration
	Courts          []string
	SessionLifetime time.Duration
	LogLevel        slog.Level
}

// Load reads .env if there is one, then the environment. Unset variables keep their defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Addr:            ":8080",
		DBPath:          "padel.db",
		KFactor:         rating.DefaultKFactor,
		Cooldown:        cooldown.DefaultWindow,
		Courts:          slices.Clone(DefaultCourts),
		SessionLifetime: 24 * time.Hour,
		LogLevel:        slog.LevelInfo,
	}

	if v := getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("K_FACTOR"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k < 0 {
			return nil, fmt.Errorf("invalid K_FACTOR %q", v)
		}
		cfg.KFactor = k
	}
	if v := getenv("COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid COOLDOWN %q", v)
		}
		cfg.Cooldown = d
	}
	if v := getenv("COURTS"); v != "" {
		courts, err := parseCourts(v)
		if err != nil {
			return nil, err
		}
		cfg.Courts = courts
	}
	if v := getenv("SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SESSION_LIFETIME %q", v)
		}
		cfg.SessionLifetime = d
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}

	return cfg, nil
}

func parseCourts(v string) ([]string, error) {
	var courts []string
	seen := make(map[string]bool)
	for _, c := range strings.Split(v, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate court %q in COURTS", c)
		}
		seen[c] = true
		courts = append(courts, c)
	}
	if len(courts) == 0 {
		return nil, fmt.Errorf("COURTS must name at least one court")
	}
	return courts, nil
}
