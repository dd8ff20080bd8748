package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the orchestration engine
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug      bool   `mapstructure:"debug"`
	LogLevel   string `mapstructure:"log_level"`
	MaxHistory int    `mapstructure:"max_history"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	PeriodicLogs bool   `mapstructure:"periodic_logs"`
	LogFile      string `mapstructure:"log_file"`
}

// ToolsConfig contains settings for the external collaborator tools
type ToolsConfig struct {
	Packmol  PackmolConfig  `mapstructure:"packmol"`
	Viamd    ViamdConfig    `mapstructure:"viamd"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Slides   SlidesConfig   `mapstructure:"slides"`
}

// PackmolConfig configures the PACKMOL structure packer
type PackmolConfig struct {
	Executable  string        `mapstructure:"executable"`
	SearchPaths []string      `mapstructure:"search_paths"`
	Timeout     time.Duration `mapstructure:"timeout"`
	WorkDir     string        `mapstructure:"work_dir"`
}

// ViamdConfig configures the VIAMD visual validator
type ViamdConfig struct {
	Executable  string   `mapstructure:"executable"`
	SearchPaths []string `mapstructure:"search_paths"`
}

// AnalysisConfig configures trajectory analysis outputs
type AnalysisConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// SlidesConfig configures presentation generation
type SlidesConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// WorkflowConfig contains defaults applied when a request omits parameters
type WorkflowConfig struct {
	DefaultRemoveSpecies string  `mapstructure:"default_remove_species"`
	DefaultAddSpecies    string  `mapstructure:"default_add_species"`
	DefaultCount         int     `mapstructure:"default_count"`
	DefaultDensity       float64 `mapstructure:"default_density"`
}

func (g GeneralConfig) Validate() error {
	if g.MaxHistory <= 0 {
		return fmt.Errorf("general.max_history must be > 0")
	}
	return nil
}

// LoadConfig loads configuration from file and environment. A missing
// config file is fine (defaults apply); a malformed one is fatal.
func LoadConfig(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.max_history", 100)
	v.SetDefault("server.address", ":10011")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.periodic_logs", false)
	v.SetDefault("tools.packmol.executable", "packmol")
	v.SetDefault("tools.packmol.timeout", 5*time.Minute)
	v.SetDefault("tools.packmol.work_dir", ".")
	v.SetDefault("tools.viamd.executable", "viamd")
	v.SetDefault("tools.analysis.output_dir", "analysis")
	v.SetDefault("tools.slides.output_dir", "slides")
	v.SetDefault("workflow.default_remove_species", "O2")
	v.SetDefault("workflow.default_add_species", "O")
	v.SetDefault("workflow.default_count", 100)
	v.SetDefault("workflow.default_density", 0.18)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PROBAAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && path != "" {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if err := config.General.Validate(); err != nil {
		panic(err)
	}

	return &config
}
