package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core/security"
	"github.com/spf13/viper"
)

const (
	ConfigFileName  = "config"
	HistoryFileName = "history.json"
	HistoryDBName   = "history.db"
	ConfigFileType  = "yaml"
	JarvisDirName   = ".jarvis"
	EnvPrefix       = "JARVIS"

	HistoryBackendJSON   = "json"
	HistoryBackendSQLite = "sqlite"
)

// Config holds the application configuration. It is loaded once and passed
// by value to the components that need it.
type Config struct {
	AI         AIConfig              `mapstructure:"ai"`
	Automation AutomationConfig      `mapstructure:"automation"`
	Security   security.PolicyConfig `mapstructure:"security"`
	Server     ServerConfig          `mapstructure:"server"`
	History    HistoryConfig         `mapstructure:"history"`
	Log        LogConfig             `mapstructure:"log"`
}

// AIConfig holds interpretation service settings
type AIConfig struct {
	Provider  string `mapstructure:"provider"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	ChatModel string `mapstructure:"chat_model"`
	BaseURL   string `mapstructure:"base_url"`
	// Timeout in seconds.
	Timeout int `mapstructure:"timeout"`
}

// TimeoutDuration returns Timeout as a duration.
func (c AIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// AutomationConfig holds script generation and launch settings
type AutomationConfig struct {
	OutputDir      string `mapstructure:"output_dir"`
	AHKPath        string `mapstructure:"ahk_path"`
	OsascriptPath  string `mapstructure:"osascript_path"`
	WindowsBrowser string `mapstructure:"windows_browser"`
	MacBrowser     string `mapstructure:"mac_browser"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig holds command journal settings. An empty File means
// ~/.jarvis/history.json, or ~/.jarvis/history.db for the sqlite backend.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"`
	File    string `mapstructure:"file"`
	Limit   int    `mapstructure:"limit"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GetConfigDir returns the jarvis config directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, JarvisDirName), nil
}

// DefaultConfigPath returns ~/.jarvis/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileType), nil
}

// HistoryPath returns the configured journal file or the default one.
func HistoryPath(cfg *Config) (string, error) {
	if cfg.History.File != "" {
		return cfg.History.File, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if cfg.History.Backend == HistoryBackendSQLite {
		return filepath.Join(dir, HistoryDBName), nil
	}
	return filepath.Join(dir, HistoryFileName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-pro")
	v.SetDefault("ai.chat_model", "gemini-1.5-flash")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.timeout", 20)

	v.SetDefault("automation.output_dir", filepath.Join("automation", "generated"))
	v.SetDefault("automation.ahk_path", `D:\AutoHotkey\v2\AutoHotkey64.exe`)
	v.SetDefault("automation.osascript_path", "osascript")
	v.SetDefault("automation.windows_browser", "chrome.exe")
	v.SetDefault("automation.mac_browser", "Google Chrome")

	v.SetDefault("security.keywords", security.DefaultKeywords())
	v.SetDefault("security.keywords_file", "")
	v.SetDefault("security.policy_script", "")

	v.SetDefault("server.addr", ":8000")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.backend", HistoryBackendJSON)
	v.SetDefault("history.file", "")
	v.SetDefault("history.limit", 200)

	v.SetDefault("log.level", "info")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(ConfigFileType)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The bare provider variables are honoured too.
	_ = v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY")

	return v
}

// DefaultConfig returns the built-in configuration, without reading files or
// the environment.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// LoadConfig reads the configuration. An empty path means ~/.jarvis/config.yaml,
// which may be missing; an explicit path must exist. Environment variables
// override file values.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg as YAML. An empty path means ~/.jarvis/config.yaml.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(ConfigFileType)

	v.Set("ai.provider", cfg.AI.Provider)
	v.Set("ai.api_key", cfg.AI.APIKey)
	v.Set("ai.model", cfg.AI.Model)
	v.Set("ai.chat_model", cfg.AI.ChatModel)
	v.Set("ai.base_url", cfg.AI.BaseURL)
	v.Set("ai.timeout", cfg.AI.Timeout)

	v.Set("automation.output_dir", cfg.Automation.OutputDir)
	v.Set("automation.ahk_path", cfg.Automation.AHKPath)
	v.Set("automation.osascript_path", cfg.Automation.OsascriptPath)
	v.Set("automation.windows_browser", cfg.Automation.WindowsBrowser)
	v.Set("automation.mac_browser", cfg.Automation.MacBrowser)

	v.Set("security.keywords", cfg.Security.Keywords)
	v.Set("security.keywords_file", cfg.Security.KeywordsFile)
	v.Set("security.policy_script", cfg.Security.PolicyScript)

	v.Set("server.addr", cfg.Server.Addr)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.backend", cfg.History.Backend)
	v.Set("history.file", cfg.History.File)
	v.Set("history.limit", cfg.History.Limit)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// EnsureOutputDir creates the generated-script directory.
func EnsureOutputDir(cfg *Config) error {
	if cfg.Automation.OutputDir == "" {
		return errors.New("automation.output_dir is empty")
	}
	if err := os.MkdirAll(cfg.Automation.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
