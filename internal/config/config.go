// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Assembly strategy identifiers. The strategy is consumed by the backend
// document composer, not computed here.
const (
	AssemblyLanguageMajor = "language-major"
	AssemblyBookMajor     = "book-major"
)

// Content chunking identifiers.
const (
	ChunkChapter = "chapter"
	ChunkVerse   = "verse"
)

// Config holds all configuration values for docweaver.
// Values are read once at session start and treated as immutable afterwards.
type Config struct {
	APIRoot            string `mapstructure:"api_root" yaml:"api_root"`
	FileServerRoot     string `mapstructure:"file_server_root" yaml:"file_server_root"`
	AssemblyStrategy   string `mapstructure:"assembly_strategy" yaml:"assembly_strategy"`
	ChunkSize          string `mapstructure:"chunk_size" yaml:"chunk_size"`
	ShowTopNav         bool   `mapstructure:"show_top_nav" yaml:"show_top_nav"`
	ShowResourceCounts bool   `mapstructure:"show_resource_counts" yaml:"show_resource_counts"`
	NotifyEmail        string `mapstructure:"notify_email" yaml:"notify_email"`
	DataDir            string `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel           string `mapstructure:"log_level" yaml:"log_level"`
	LogFile            string `mapstructure:"log_file" yaml:"log_file"`
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("docweaver")

	// Set defaults (api_root has no default - it's required)
	v.SetDefault("file_server_root", "")
	v.SetDefault("assembly_strategy", AssemblyBookMajor)
	v.SetDefault("chunk_size", ChunkChapter)
	v.SetDefault("show_top_nav", true)
	v.SetDefault("show_resource_counts", false)
	v.SetDefault("notify_email", "")
	v.SetDefault("data_dir", ".docweaver")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Setup ENV binding with DOCWEAVER_ prefix
	v.SetEnvPrefix("DOCWEAVER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool parsing
	// Note: BindEnv errors are very rare (only invalid key names), but we check them anyway
	bindings := []string{
		"api_root", "file_server_root", "assembly_strategy", "chunk_size",
		"show_top_nav", "show_resource_counts", "notify_email",
		"data_dir", "log_level", "log_file",
	}
	for _, key := range bindings {
		env := "DOCWEAVER_" + strings.ToUpper(key)
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		// Need to set config file explicitly for merge
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the config is usable for a wizard session.
func (c *Config) Validate() error {
	if c.APIRoot == "" {
		return fmt.Errorf("api_root is required (set it in docweaver.yml or DOCWEAVER_API_ROOT)")
	}
	switch c.AssemblyStrategy {
	case AssemblyLanguageMajor, AssemblyBookMajor:
	default:
		return fmt.Errorf("invalid assembly_strategy: %s (must be %s or %s)",
			c.AssemblyStrategy, AssemblyLanguageMajor, AssemblyBookMajor)
	}
	switch c.ChunkSize {
	case ChunkChapter, ChunkVerse:
	default:
		return fmt.Errorf("invalid chunk_size: %s (must be %s or %s)", c.ChunkSize, ChunkChapter, ChunkVerse)
	}
	return nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/docweaver/docweaver.yml or $XDG_CONFIG_HOME/docweaver/docweaver.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docweaver", "docweaver.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "docweaver", "docweaver.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./docweaver.yml in the current working directory.
func ProjectPath() string {
	return "docweaver.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return writeConfig(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return writeConfig(ProjectPath(), cfg)
}

func writeConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
