package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/pathresource/pathfs"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	PathFS PathFSConfig `mapstructure:"pathfs"`
}

// PathFSConfig stores settings shared by every resource a factory creates.
type PathFSConfig struct {
	TempDir    string        `mapstructure:"tempDir"`
	TempPrefix string        `mapstructure:"tempPrefix"`
	DirPerm    uint32        `mapstructure:"dirPerm"`
	FilePerm   uint32        `mapstructure:"filePerm"`
	LogLevel   string        `mapstructure:"logLevel"`
	IgnoreFile string        `mapstructure:"ignoreFile"`
	Listing    ListingConfig `mapstructure:"listing"`
	Monitor    MonitorConfig `mapstructure:"monitor"`
}

// ListingConfig stores directory listing settings.
type ListingConfig struct {
	// Parallelism bounds the goroutines used to wrap directory entries. Zero means GOMAXPROCS.
	Parallelism int `mapstructure:"parallelism"`
}

// MonitorConfig stores file-change monitoring settings.
type MonitorConfig struct {
	DebounceMillis    int `mapstructure:"debounceMillis"`
	MaxDebounceMillis int `mapstructure:"maxDebounceMillis"`
	QueueCapacity     int `mapstructure:"queueCapacity"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Set default values
	v.SetDefault("pathfs.tempDir", "")
	v.SetDefault("pathfs.tempPrefix", internal.DefaultTempPrefix)
	v.SetDefault("pathfs.dirPerm", uint32(internal.DefaultDirPerm))
	v.SetDefault("pathfs.filePerm", uint32(internal.DefaultFilePerm))
	v.SetDefault("pathfs.logLevel", internal.DefaultLogLevel)
	v.SetDefault("pathfs.ignoreFile", internal.DefaultIgnoreFile)
	v.SetDefault("pathfs.listing.parallelism", 0)
	v.SetDefault("pathfs.monitor.debounceMillis", 100)
	v.SetDefault("pathfs.monitor.maxDebounceMillis", 2000)
	v.SetDefault("pathfs.monitor.queueCapacity", 1000)

	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // pathfs.monitor.queueCapacity becomes PATHFS_MONITOR_QUEUECAPACITY

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate rejects settings no resource could work with.
func (c *Config) Validate() error {
	p := c.PathFS
	if p.DirPerm == 0 || p.DirPerm > 0o7777 {
		return fmt.Errorf("invalid pathfs.dirPerm %#o", p.DirPerm)
	}
	if p.FilePerm == 0 || p.FilePerm > 0o7777 {
		return fmt.Errorf("invalid pathfs.filePerm %#o", p.FilePerm)
	}
	if p.Listing.Parallelism < 0 {
		return fmt.Errorf("pathfs.listing.parallelism cannot be negative")
	}
	if p.Monitor.DebounceMillis < 0 || p.Monitor.MaxDebounceMillis < 0 {
		return fmt.Errorf("pathfs.monitor debounce values cannot be negative")
	}
	if p.Monitor.QueueCapacity < 0 {
		return fmt.Errorf("pathfs.monitor.queueCapacity cannot be negative")
	}
	return nil
}
