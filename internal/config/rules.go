package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// rulesFile is the on-disk shape of GAME_RULES_FILE:
//
//	min_players   = 5
//	tick_interval = "1s"
//
//	[durations]
//	night   = 45
//	discuss = 60
//	vote    = 30
type rulesFile struct {
	MinPlayers   int    `toml:"min_players"`
	TickInterval string `toml:"tick_interval"`
	Durations    struct {
		Night   int `toml:"night"`
		Discuss int `toml:"discuss"`
		Vote    int `toml:"vote"`
	} `toml:"durations"`
}

// ApplyRulesFile overrides the keys the file defines; everything else keeps
// its env or default value.
func ApplyRulesFile(g *GameConfig, path string) error {
	var raw rulesFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load rules file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("rules file %s: unknown keys %v", path, undecoded)
	}

	if meta.IsDefined("min_players") {
		g.MinPlayers = raw.MinPlayers
	}
	if meta.IsDefined("tick_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TickInterval))
		if err != nil {
			return fmt.Errorf("parse tick_interval: %w", err)
		}
		g.TickInterval = d
	}
	if meta.IsDefined("durations", "night") {
		g.NightSeconds = raw.Durations.Night
	}
	if meta.IsDefined("durations", "discuss") {
		g.DiscussSeconds = raw.Durations.Discuss
	}
	if meta.IsDefined("durations", "vote") {
		g.VoteSeconds = raw.Durations.Vote
	}
	return nil
}
