package configs

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/rlbot-go/matchserver/internal/utils"
)

// GameMode enumerates the supported match configurations. Only the three
// game modes the arena black-box actually implements are accepted; anything
// else is an explicit "unsupported_game_mode" semantic error (§7).
type GameMode string

const (
	GameModeSoccer     GameMode = "Soccer"
	GameModeHoops      GameMode = "Hoops"
	GameModeDropshot   GameMode = "Dropshot"
	GameModeRumble     GameMode = "Rumble"
	GameModeHeatseeker GameMode = "Heatseeker"
	GameModeHockey     GameMode = "Hockey"
)

// SupportedGameMode reports whether the arena black-box can instantiate mode.
func SupportedGameMode(mode GameMode) bool {
	switch mode {
	case GameModeSoccer, GameModeHoops, GameModeHeatseeker:
		return true
	default:
		return false
	}
}

// PlayerVariety distinguishes Human slots (never given a controllable) from
// the bot varieties that occupy the dense player_index space.
type PlayerVariety string

const (
	PlayerVarietyHuman        PlayerVariety = "Human"
	PlayerVarietyControlled   PlayerVariety = "ControlledBot"
	PlayerVarietyPsyonix      PlayerVariety = "PsyonixBot"
)

// PlayerConfig is a single car's declarative configuration, resolved from a
// [[cars]] table entry plus the bot TOML it points to.
type PlayerConfig struct {
	Team       int           `json:"team"`
	Name       string        `json:"name"`
	AgentID    string        `json:"agent_id"`
	RunCommand string        `json:"run_command"`
	RootDir    string        `json:"root_dir"`
	SpawnID    int32         `json:"spawn_id"`
	Variety    PlayerVariety `json:"variety"`
}

// MatchConfig is the full declarative match spec: either parsed from a TOML
// file (StartCommand) or received serialized over the wire (MatchConfig
// message).
type MatchConfig struct {
	GameMode      GameMode       `json:"game_mode"`
	AutoStartBots bool           `json:"auto_start_bots"`
	InstantStart  bool           `json:"instant_start"`
	PlayerConfigs []PlayerConfig `json:"player_configs"`
}

// botSettings mirrors a bot TOML's [settings] table.
type botSettings struct {
	Settings struct {
		Name            string `toml:"name"`
		RootDir         string `toml:"root_dir"`
		RunCommand      string `toml:"run_command"`
		RunCommandLinux string `toml:"run_command_linux"`
		AgentID         string `toml:"agent_id"`
	} `toml:"settings"`
}

// matchFile mirrors the top-level match-configuration TOML document (§6).
type matchFile struct {
	RLBot struct {
		AutoStartBots bool `toml:"auto_start_bots"`
	} `toml:"rlbot"`
	Match struct {
		GameMode              string `toml:"game_mode"`
		StartWithoutCountdown bool   `toml:"start_without_countdown"`
	} `toml:"match"`
	Cars []struct {
		Team   int    `toml:"team"`
		Config string `toml:"config"`
	} `toml:"cars"`
}

// ParseMatchConfigFile reads a match-configuration TOML file and every bot
// TOML it references, producing a populated MatchConfig. Grounded on
// original_source/exe/src/parse.rs: names are de-duplicated with " (2)",
// " (3)", ... suffixes, and spawn_id is derived from a single accumulating
// hash fed every (possibly suffixed) player name in file order — NOT an
// independent hash per name.
func ParseMatchConfigFile(path string) (*MatchConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading match config %s: %w", path, err)
	}

	var mf matchFile
	if err := toml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parsing match config %s: %w", path, err)
	}

	cfg := &MatchConfig{
		GameMode:      GameMode(mf.Match.GameMode),
		AutoStartBots: mf.RLBot.AutoStartBots,
		InstantStart:  mf.Match.StartWithoutCountdown,
	}

	baseDir := filepath.Dir(path)
	hasher := newSpawnIDHasher()
	seen := map[string]int{}

	for _, car := range mf.Cars {
		if car.Config == "" {
			continue
		}
		botPath := filepath.Join(baseDir, car.Config)
		botRaw, err := os.ReadFile(botPath)
		if err != nil {
			return nil, fmt.Errorf("reading bot config %s: %w", botPath, err)
		}
		var bs botSettings
		if err := toml.Unmarshal(botRaw, &bs); err != nil {
			return nil, fmt.Errorf("parsing bot config %s: %w", botPath, err)
		}

		name := dedupeName(seen, bs.Settings.Name)
		spawnID := hasher.next(name)

		runCmd := bs.Settings.RunCommand
		if runtime.GOOS == "linux" && bs.Settings.RunCommandLinux != "" {
			runCmd = bs.Settings.RunCommandLinux
		}

		cfg.PlayerConfigs = append(cfg.PlayerConfigs, PlayerConfig{
			Team:       car.Team,
			Name:       name,
			AgentID:    bs.Settings.AgentID,
			RunCommand: runCmd,
			RootDir:    filepath.Join(filepath.Dir(botPath), bs.Settings.RootDir),
			SpawnID:    spawnID,
			Variety:    PlayerVarietyControlled,
		})
	}

	utils.LogInfof("Parsed match config %s: mode=%s cars=%d auto_start=%t",
		path, cfg.GameMode, len(cfg.PlayerConfigs), cfg.AutoStartBots)
	return cfg, nil
}

// dedupeName appends " (2)", " (3)", ... to repeated names, in the order
// seen is, not hashed, matching the teacher's own incrementing-map idiom.
func dedupeName(seen map[string]int, name string) string {
	count := seen[name]
	seen[name] = count + 1
	if count == 0 {
		return name
	}
	return fmt.Sprintf("%s (%d)", name, count+1)
}

// spawnIDHasher is the accumulating hasher from parse.rs: every player name
// (in file order) is fed into the SAME running fnv-1a state, and spawn_id is
// that state's value after absorbing the name, wrapped into i32 range. This
// is order-dependent by design — re-parsing the same cars in a different
// order yields different spawn_ids, matching the original.
type spawnIDHasher struct {
	fnv fnvHash
}

type fnvHash = interface {
	Write([]byte) (int, error)
	Sum64() uint64
}

func newSpawnIDHasher() *spawnIDHasher {
	return &spawnIDHasher{fnv: fnv.New64a()}
}

func (s *spawnIDHasher) next(name string) int32 {
	_, _ = s.fnv.Write([]byte(name))
	wrapped := int64(s.fnv.Sum64()) % int64(int32max)
	return int32(wrapped)
}

const int32max = 1<<31 - 1

// BotLauncher is the out-of-scope sub-process-launching boundary (§1):
// the server only needs to start a configured bot's run_command with the
// right working directory and agent-id environment variable (§6).
type BotLauncher interface {
	Launch(ctx context.Context, cfg PlayerConfig) error
}

// ExecLauncher is the one concrete BotLauncher: a plain os/exec invocation
// in a shell, matching the teacher's own preference for stdlib process
// control over a dedicated process-supervision library.
type ExecLauncher struct{}

func (ExecLauncher) Launch(ctx context.Context, cfg PlayerConfig) error {
	if cfg.RunCommand == "" {
		return fmt.Errorf("bot %s: empty run_command", cfg.Name)
	}
	shell := "/bin/sh"
	shellFlag := "-c"
	if runtime.GOOS == "windows" {
		shell = "cmd"
		shellFlag = "/C"
	}
	cmd := exec.CommandContext(ctx, shell, shellFlag, cfg.RunCommand)
	cmd.Dir = cfg.RootDir
	cmd.Env = append(os.Environ(), "RLBOT_AGENT_ID="+cfg.AgentID)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	utils.LogInfof("Launching bot %s (agent_id=%s) in %s: %s", cfg.Name, cfg.AgentID, cfg.RootDir, cfg.RunCommand)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting bot %s: %w", cfg.Name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			utils.LogWarnf("Bot %s exited: %v", cfg.Name, err)
		} else {
			utils.LogInfof("Bot %s exited cleanly.", cfg.Name)
		}
	}()
	return nil
}
