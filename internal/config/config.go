package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverAzTables = "aztables"
)

// Event drivers
const (
	EventsSocket = "socket"
	EventsRedis  = "redis"
	EventsNone   = "none"
)

// Config represents the application configuration
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Board  BoardConfig  `yaml:"board"`
	Events EventsConfig `yaml:"events"`
	Log    LogConfig    `yaml:"log"`
	Theme  Theme        `yaml:"theme"`
}

// StoreConfig selects where board documents live
type StoreConfig struct {
	Driver           string `yaml:"driver"`
	Path             string `yaml:"path"`              // sqlite
	ConnectionString string `yaml:"connection_string"` // aztables
	TasksTable       string `yaml:"tasks_table"`
	SectionsTable    string `yaml:"sections_table"`
}

// BoardConfig selects the board and how it behaves
type BoardConfig struct {
	ID              string   `yaml:"id"`
	OrphanPolicy    string   `yaml:"orphan_policy"`
	DefaultSections []string `yaml:"default_sections"`
}

// EventsConfig selects the collaborator change feed
type EventsConfig struct {
	Driver        string `yaml:"driver"`
	SocketPath    string `yaml:"socket_path"`
	RedisAddr     string `yaml:"redis_addr"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// LogConfig controls the log file
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// loadThemeFile merges the theme from PIZARRA_THEME_FILE when set
func loadThemeFile(config *Config) {
	themeFile := os.Getenv("PIZARRA_THEME_FILE")
	if themeFile == "" {
		return
	}

	themeData, err := os.ReadFile(themeFile)
	if err != nil {
		return
	}

	var themeConfig struct {
		Theme Theme `yaml:"theme"`
	}

	if yaml.Unmarshal(themeData, &themeConfig) == nil {
		config.Theme.MergeFrom(themeConfig.Theme)
	}
}

// Load loads config from the user's config directory.
// Returns default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		// Return default config if we can't determine config path
		config := &Config{}
		loadThemeFile(config)
		config.applyEnv()
		config.applyDefaults()
		return config, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads config from path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	loadThemeFile(&config)
	config.applyEnv()

	// Fill in any missing values with defaults
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o600)
}

// Validate rejects unknown drivers
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverAzTables:
		if c.Store.ConnectionString == "" {
			return fmt.Errorf("store driver %s needs a connection_string or PIZARRA_AZURE_CONNECTION_STRING", DriverAzTables)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Events.Driver {
	case EventsSocket, EventsRedis, EventsNone:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	return nil
}

// Path returns the path to the config file. PIZARRA_CONFIG overrides it.
func Path() (string, error) {
	if p := os.Getenv("PIZARRA_CONFIG"); p != "" {
		return p, nil
	}

	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "pizarra", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "pizarra", "config.yaml"), nil
}

// DataDir is the directory holding the database, logs and daemon socket
func DataDir() string {
	if dir := os.Getenv("PIZARRA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pizarra"
	}
	return filepath.Join(home, ".pizarra")
}

// applyEnv lets the environment override the file
func (c *Config) applyEnv() {
	if v := os.Getenv("PIZARRA_AZURE_CONNECTION_STRING"); v != "" {
		c.Store.ConnectionString = v
	}
	if v := os.Getenv("PIZARRA_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("PIZARRA_BOARD"); v != "" {
		c.Board.ID = v
	}
	if v := os.Getenv("PIZARRA_REDIS_ADDR"); v != "" {
		c.Events.RedisAddr = v
	}
	if v := os.Getenv("PIZARRA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	dataDir := DataDir()

	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(dataDir, "pizarra.db")
	}
	if c.Store.TasksTable == "" {
		c.Store.TasksTable = "PizarraTasks"
	}
	if c.Store.SectionsTable == "" {
		c.Store.SectionsTable = "PizarraSections"
	}

	if c.Board.ID == "" {
		c.Board.ID = "default"
	}
	if c.Board.OrphanPolicy == "" {
		c.Board.OrphanPolicy = "reject"
	}
	if c.Board.DefaultSections == nil {
		c.Board.DefaultSections = []string{"Todo", "In Progress", "Done"}
	}

	c.Events.Driver = strings.ToLower(c.Events.Driver)
	if c.Events.Driver == "" {
		c.Events.Driver = EventsSocket
	}
	if c.Events.SocketPath == "" {
		c.Events.SocketPath = filepath.Join(dataDir, "pizarra.sock")
	}
	if c.Events.RedisAddr == "" {
		c.Events.RedisAddr = "localhost:6379"
	}
	if c.Events.ChannelPrefix == "" {
		c.Events.ChannelPrefix = "pizarra:board"
	}

	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dataDir, "logs", "pizarra.log")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.Theme.ApplyDefaults()
}
