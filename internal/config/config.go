// Package config reads service settings from the environment (optionally
// seeded from a .env file) and the team catalog from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

type Config struct {
	Addr            string        `env:"ROSTER_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"ROSTER_LOG_LEVEL" envDefault:"info"`
	LogDev          bool          `env:"ROSTER_LOG_DEV"`
	ShutdownTimeout time.Duration `env:"ROSTER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	TeamsFile     string        `env:"ROSTER_TEAMS_FILE"`
	ActivePlayers int           `env:"ROSTER_ACTIVE_PLAYERS" envDefault:"30"`
	MaxNameLength int           `env:"ROSTER_MAX_NAME_LENGTH" envDefault:"12"`
	DefaultTeams  []string      `env:"ROSTER_DEFAULT_TEAMS" envSeparator:"," envDefault:"red,ocean"`
	ShuffleMode   string        `env:"ROSTER_SHUFFLE_MODE" envDefault:"balanced"`
	NoticeTTL     time.Duration `env:"ROSTER_NOTICE_TTL" envDefault:"5s"`

	DatabaseURL    string   `env:"ROSTER_DATABASE_URL"`
	RateLimit      float64  `env:"ROSTER_RATE_LIMIT" envDefault:"10"`
	RateBurst      int      `env:"ROSTER_RATE_BURST" envDefault:"20"`
	AllowedOrigins []string `env:"ROSTER_ALLOWED_ORIGINS" envSeparator:","`

	Teams []roster.TeamInfo `env:"-"`
}

type teamsFile struct {
	Teams []roster.TeamInfo `yaml:"teams"`
}

// Load reads envFile if it exists, then the environment, then the team
// catalog. An empty envFile skips the .env step.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Teams = roster.DefaultCatalog()
	if cfg.TeamsFile != "" {
		teams, err := LoadTeams(cfg.TeamsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Teams = teams
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadTeams(path string) ([]roster.TeamInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read teams file: %w", err)
	}
	var f teamsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse teams file %s: %w", path, err)
	}
	return f.Teams, nil
}

func (c Config) Validate() error {
	if c.ActivePlayers <= 0 {
		return fmt.Errorf("ROSTER_ACTIVE_PLAYERS must be positive, got %d", c.ActivePlayers)
	}
	if c.MaxNameLength <= 0 {
		return fmt.Errorf("ROSTER_MAX_NAME_LENGTH must be positive, got %d", c.MaxNameLength)
	}
	switch roster.ShuffleMode(c.ShuffleMode) {
	case roster.ShuffleBalanced, roster.ShuffleChunked:
	default:
		return fmt.Errorf("ROSTER_SHUFFLE_MODE must be balanced or chunked, got %q", c.ShuffleMode)
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("ROSTER_RATE_BURST must be at least 1 when ROSTER_RATE_LIMIT is set, got %d", c.RateBurst)
	}

	if len(c.Teams) == 0 {
		return errors.New("team catalog is empty")
	}
	seen := make(map[roster.TeamID]bool, len(c.Teams))
	for i, t := range c.Teams {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("team %d needs an id and a name", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("team %q listed twice", t.ID)
		}
		seen[t.ID] = true
	}
	for _, id := range c.DefaultTeams {
		if !seen[roster.TeamID(id)] {
			return fmt.Errorf("default team %q: %w", id, roster.ErrUnknownTeam)
		}
	}
	return nil
}

func (c Config) Roster() roster.Config {
	return roster.Config{
		Teams:         c.Teams,
		ActivePlayers: c.ActivePlayers,
		MaxNameLength: c.MaxNameLength,
		ShuffleMode:   roster.ShuffleMode(c.ShuffleMode),
	}
}

func (c Config) DefaultTeamIDs() []roster.TeamID {
	ids := make([]roster.TeamID, 0, len(c.DefaultTeams))
	for _, id := range c.DefaultTeams {
		ids = append(ids, roster.TeamID(id))
	}
	return ids
}
