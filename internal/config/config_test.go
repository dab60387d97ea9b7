package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/team-shuffler-backend/internal/roster"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30, cfg.ActivePlayers)
	assert.Equal(t, 12, cfg.MaxNameLength)
	assert.Equal(t, 5*time.Second, cfg.NoticeTTL)
	assert.Equal(t, []roster.TeamID{roster.TeamRed, roster.TeamOcean}, cfg.DefaultTeamIDs())
	assert.Equal(t, roster.DefaultConfig(), cfg.Roster())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ROSTER_ACTIVE_PLAYERS", "8")
	t.Setenv("ROSTER_SHUFFLE_MODE", "chunked")
	t.Setenv("ROSTER_DEFAULT_TEAMS", "sun,stone")
	t.Setenv("ROSTER_ALLOWED_ORIGINS", "http://localhost:5173,https://teams.example")
	t.Setenv("ROSTER_NOTICE_TTL", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Roster().ActivePlayers)
	assert.Equal(t, roster.ShuffleChunked, cfg.Roster().ShuffleMode)
	assert.Equal(t, []roster.TeamID{roster.TeamSun, roster.TeamStone}, cfg.DefaultTeamIDs())
	assert.Equal(t, []string{"http://localhost:5173", "https://teams.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.NoticeTTL)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROSTER_MAX_NAME_LENGTH=20\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ROSTER_MAX_NAME_LENGTH") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxNameLength)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err, "a missing .env file is fine")
}

func TestLoadTeamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.yaml")
	yml := strings.Join([]string{
		"teams:",
		"  - id: red",
		"    name: Rot",
		"  - id: ocean",
		"    name: Ozean",
		"  - id: gold",
		"    name: Gold",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("ROSTER_TEAMS_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []roster.TeamInfo{
		{ID: "red", Name: "Rot"},
		{ID: "ocean", Name: "Ozean"},
		{ID: "gold", Name: "Gold"},
	}, cfg.Teams)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad int", map[string]string{"ROSTER_ACTIVE_PLAYERS": "many"}, "parse env"},
		{"zero capacity", map[string]string{"ROSTER_ACTIVE_PLAYERS": "0"}, "ROSTER_ACTIVE_PLAYERS"},
		{"zero burst", map[string]string{"ROSTER_RATE_BURST": "0"}, "ROSTER_RATE_BURST"},
		{"negative rate", map[string]string{"ROSTER_RATE_LIMIT": "-1"}, "must not be negative"},
		{"bad mode", map[string]string{"ROSTER_SHUFFLE_MODE": "random"}, "ROSTER_SHUFFLE_MODE"},
		{"unknown default", map[string]string{"ROSTER_DEFAULT_TEAMS": "red,purple"}, "unknown team"},
		{"missing teams file", map[string]string{"ROSTER_TEAMS_FILE": "/nonexistent/teams.yaml"}, "read teams file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadRateLimitDisabledAllowsZeroBurst(t *testing.T) {
	t.Setenv("ROSTER_RATE_LIMIT", "0")
	t.Setenv("ROSTER_RATE_BURST", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.RateLimit)
}

func TestValidateDuplicateTeam(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Teams = append(cfg.Teams, roster.TeamInfo{ID: roster.TeamRed, Name: "Again"})
	assert.ErrorContains(t, cfg.Validate(), "listed twice")
}
