package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	c, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, 10*time.Second, c.HTTP.ShutdownTimeout)
	assert.Equal(t, BackendRedis, c.Snapshots.Backend)
	assert.Equal(t, 24*time.Hour, c.Snapshots.TTL)
	assert.Empty(t, c.Telemetry.Endpoint)
	assert.Equal(t, GameConfig{
		TickInterval:   time.Second,
		MinPlayers:     1,
		NightSeconds:   45,
		DiscussSeconds: 60,
		VoteSeconds:    30,
	}, c.Game)

	lvl, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadFromEnv_Scenarios(t *testing.T) {
	type scenario struct {
		name string
		run  func(t *testing.T)
	}

	cases := []scenario{
		{
			name: "env overrides",
			run: func(t *testing.T) {
				t.Setenv("SNAPSHOT_BACKEND", "postgres")
				t.Setenv("LOG_LEVEL", "debug")
				t.Setenv("GAME_MIN_PLAYERS", "5")
				t.Setenv("GAME_TICK_INTERVAL", "250ms")

				c, err := LoadFromEnv()
				require.NoError(t, err)
				assert.Equal(t, BackendPostgres, c.Snapshots.Backend)
				assert.Equal(t, 5, c.Game.MinPlayers)
				assert.Equal(t, 250*time.Millisecond, c.Game.TickInterval)

				lvl, err := c.LogLevel()
				require.NoError(t, err)
				assert.Equal(t, slog.LevelDebug, lvl)
			},
		},
		{
			name: "malformed value",
			run: func(t *testing.T) {
				t.Setenv("GAME_MIN_PLAYERS", "many")

				_, err := LoadFromEnv()
				require.Error(t, err)
				assert.Contains(t, err.Error(), "parse env:")
			},
		},
		{
			name: "unknown backend",
			run: func(t *testing.T) {
				t.Setenv("SNAPSHOT_BACKEND", "etcd")

				_, err := LoadFromEnv()
				require.ErrorContains(t, err, "SNAPSHOT_BACKEND")
			},
		},
		{
			name: "unknown log format",
			run: func(t *testing.T) {
				t.Setenv("LOG_FORMAT", "xml")

				_, err := LoadFromEnv()
				require.ErrorContains(t, err, "LOG_FORMAT")
			},
		},
		{
			name: "phase duration out of range",
			run: func(t *testing.T) {
				t.Setenv("GAME_VOTE_SECONDS", "0")

				_, err := LoadFromEnv()
				require.ErrorContains(t, err, "GAME_VOTE_SECONDS")
			},
		},
		{
			name: "rules file overrides only what it defines",
			run: func(t *testing.T) {
				t.Setenv("GAME_NIGHT_SECONDS", "20")
				t.Setenv("GAME_RULES_FILE", writeRules(t, `
min_players = 4

[durations]
vote = 15
`))

				c, err := LoadFromEnv()
				require.NoError(t, err)
				assert.Equal(t, 4, c.Game.MinPlayers)
				assert.Equal(t, 20, c.Game.NightSeconds)
				assert.Equal(t, 60, c.Game.DiscussSeconds)
				assert.Equal(t, 15, c.Game.VoteSeconds)
				assert.Equal(t, time.Second, c.Game.TickInterval)
			},
		},
		{
			name: "rules file values are validated",
			run: func(t *testing.T) {
				t.Setenv("GAME_RULES_FILE", writeRules(t, "[durations]\nnight = 7200\n"))

				_, err := LoadFromEnv()
				require.ErrorContains(t, err, "GAME_NIGHT_SECONDS")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestApplyRulesFile(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    GameConfig
		wantErr string
	}{
		{
			name: "tick interval",
			body: `tick_interval = "500ms"`,
			want: GameConfig{TickInterval: 500 * time.Millisecond, MinPlayers: 1, NightSeconds: 45, DiscussSeconds: 60, VoteSeconds: 30},
		},
		{
			name:    "bad duration",
			body:    `tick_interval = "soon"`,
			wantErr: "tick_interval",
		},
		{
			name:    "unknown key",
			body:    `max_players = 3`,
			wantErr: "unknown keys",
		},
		{
			name:    "not toml",
			body:    `[[[`,
			wantErr: "load rules file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := GameConfig{TickInterval: time.Second, MinPlayers: 1, NightSeconds: 45, DiscussSeconds: 60, VoteSeconds: 30}
			err := ApplyRulesFile(&g, writeRules(t, tc.body))
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, g)
		})
	}

	err := ApplyRulesFile(&GameConfig{}, filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
