package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hu-holdem/server/engine"
)

// Config holds every HU_* setting. Defaults match a 25 big blind game at
// 50/100.
type Config struct {
	SmallBlind   int           `envconfig:"small_blind" default:"50"`
	BigBlind     int           `envconfig:"big_blind" default:"100"`
	StartStack   int           `envconfig:"start_stack" default:"2500"`
	PlayerPos    string        `envconfig:"player_pos" default:"SB"`
	OddChip      string        `envconfig:"odd_chip" default:"bb"`
	AgentTimeout time.Duration `envconfig:"agent_timeout" default:"20s"`
	Agent        string        `envconfig:"agent" default:"rules"`
	Model        string        `envconfig:"model"`
	DeckSeed     int64         `envconfig:"deck_seed"`

	Addr       string `envconfig:"addr" default:":8080"`
	LogMode    string `envconfig:"log_mode" default:"debug"`
	PlayerName string `envconfig:"player_name" default:"player"`

	DatabaseURL string `envconfig:"database_url"`
	SQLitePath  string `envconfig:"sqlite_path" default:"data/hands.db"`
}

// Load reads an optional .env file (or the files named in HU_ENV_FILES)
// and then the process environment.
func Load() (Config, error) {
	if files := strings.TrimSpace(os.Getenv("HU_ENV_FILES")); files != "" {
		if err := godotenv.Load(strings.Split(files, ",")...); err != nil {
			return Config{}, err
		}
	} else {
		_ = godotenv.Load()
	}

	var c Config
	if err := envconfig.Process("hu", &c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.SmallBlind <= 0 || c.BigBlind <= 0:
		return fmt.Errorf("blinds must be positive, got %d/%d", c.SmallBlind, c.BigBlind)
	case c.SmallBlind > c.BigBlind:
		return fmt.Errorf("small blind %d above big blind %d", c.SmallBlind, c.BigBlind)
	case c.StartStack <= 0:
		return fmt.Errorf("start stack must be positive, got %d", c.StartStack)
	}
	switch engine.OddChipPolicy(strings.ToLower(c.OddChip)) {
	case engine.OddChipBB, engine.OddChipSB, engine.OddChipDrop:
	default:
		return fmt.Errorf("unknown odd chip policy %q", c.OddChip)
	}
	switch engine.Position(strings.ToUpper(c.PlayerPos)) {
	case engine.SB, engine.BB:
	default:
		return fmt.Errorf("player position must be SB or BB, got %q", c.PlayerPos)
	}
	switch c.Agent {
	case "rules", "llm":
	default:
		return fmt.Errorf("unknown agent %q", c.Agent)
	}
	return nil
}

// Table converts the settings into engine parameters.
func (c Config) Table() engine.Config {
	return engine.Config{
		SB:             c.SmallBlind,
		BB:             c.BigBlind,
		StartStack:     c.StartStack,
		OddChip:        engine.OddChipPolicy(strings.ToLower(c.OddChip)),
		PlayerStartPos: engine.Position(strings.ToUpper(c.PlayerPos)),
	}
}
