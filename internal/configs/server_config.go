package configs

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rlbot-go/matchserver/internal/utils"
)

// Config holds the match server's operational configuration: the parts that
// govern how the process runs rather than what match is being played (that
// lives in MatchConfig, see match_config.go).
type Config struct {
	Server struct {
		Host          string `json:"host"`
		TCPPort       int    `json:"tcpPort"`
		MetricsPort   int    `json:"metricsPort"`
		LogLevel      string `json:"logLevel"`
	} `json:"server"`
	Visualizer struct {
		Enabled       bool   `json:"enabled"`
		ListenPort    int    `json:"listenPort"`
		RlviserPath   string `json:"rlviserPath"`
		RlviserPort   int    `json:"rlviserPort"`
		RocketSimPort int    `json:"rocketSimPort"`
	} `json:"visualizer"`
}

var (
	once   sync.Once
	config *Config
	err    error
)

// LoadConfig loads the operational configuration from a JSON file. Designed
// to be called once; subsequent calls return the cached result.
func LoadConfig(filePath string) (*Config, error) {
	once.Do(func() {
		utils.LogInfof("Loading server configuration from %s", filePath)
		file, fileErr := os.ReadFile(filePath)
		if fileErr != nil {
			err = fileErr
			utils.LogErrorf("Error reading config file %s: %v", filePath, err)
			return
		}

		cfg := &Config{}
		setDefaultValues(cfg)

		if jsonErr := json.Unmarshal(file, cfg); jsonErr != nil {
			err = jsonErr
			utils.LogErrorf("Error unmarshalling config file %s: %v", filePath, err)
			return
		}
		config = cfg
		utils.LogInfo("Server configuration loaded successfully.")
	})
	return config, err
}

// GetConfig returns the loaded configuration. Exits the process via
// LogFatalf if LoadConfig has not succeeded yet.
func GetConfig() *Config {
	if config == nil || err != nil {
		utils.LogFatalf("Configuration not loaded or loaded with error: %v. Call LoadConfig first.", err)
	}
	return config
}

func setDefaultValues(cfg *Config) {
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.TCPPort = 23234
	cfg.Server.MetricsPort = 9090
	cfg.Server.LogLevel = "INFO"
	cfg.Visualizer.Enabled = false
	cfg.Visualizer.ListenPort = 34254
	cfg.Visualizer.RlviserPath = "rlviser"
	cfg.Visualizer.RlviserPort = 34255
	cfg.Visualizer.RocketSimPort = 34256
}

// CreateExampleConfigFile writes a starter config.json if none exists yet.
func CreateExampleConfigFile(filePath string) {
	if _, statErr := os.Stat(filePath); os.IsNotExist(statErr) {
		utils.LogInfof("Creating example config file at %s", filePath)
		exampleCfg := &Config{}
		setDefaultValues(exampleCfg)

		data, marshalErr := json.MarshalIndent(exampleCfg, "", "  ")
		if marshalErr != nil {
			utils.LogErrorf("Error marshalling example config: %v", marshalErr)
			return
		}
		if writeErr := os.WriteFile(filePath, data, 0644); writeErr != nil {
			utils.LogErrorf("Error writing example config file %s: %v", filePath, writeErr)
		} else {
			utils.LogInfof("Example config file created: %s. Please review and update it.", filePath)
		}
	} else {
		utils.LogInfof("Config file %s already exists. Skipping creation of example.", filePath)
	}
}
