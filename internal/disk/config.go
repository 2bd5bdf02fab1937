package disk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-fsrip/internal/unallocated"
)

// Walker kinds accepted by the walker setting
const (
	WalkerAuto       = "auto"
	WalkerDescriptor = "descriptor"
	WalkerDiskfs     = "diskfs"
)

// Config holds the run settings shared by every command
type Config struct {
	Unallocated             string `mapstructure:"unallocated"`
	MaxUnallocatedBlockSize uint64 `mapstructure:"max_unallocated_block_size"`
	Walker                  string `mapstructure:"walker"`
	LogLevel                string `mapstructure:"log_level"`
	LogFormat               string `mapstructure:"log_format"`
	LogFile                 string `mapstructure:"log_file"`
	DiskMapFile             string `mapstructure:"disk_map_file"`
	InodeMapFile            string `mapstructure:"inode_map_file"`
	OverviewFile            string `mapstructure:"overview_file"`
}

// NewViper returns a viper instance with the search paths, environment
// binding and defaults used by LoadConfig
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("fsrip-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.fsrip")
	v.AddConfigPath("/etc/fsrip")

	v.SetDefault("unallocated", "none")
	v.SetDefault("max_unallocated_block_size", 0) // unbounded
	v.SetDefault("walker", WalkerAuto)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_file", "")
	v.SetDefault("disk_map_file", "")
	v.SetDefault("inode_map_file", "")
	v.SetDefault("overview_file", "")

	v.SetEnvPrefix("FSRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the config file if one exists and decodes the settings.
// A missing config file is not an error.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = NewViper()
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the enumerated settings
func (c *Config) Validate() error {
	if _, err := unallocated.ParseMode(c.Unallocated); err != nil {
		return err
	}
	switch strings.ToLower(c.Walker) {
	case "", WalkerAuto, WalkerDescriptor, WalkerDiskfs:
	default:
		return fmt.Errorf("unknown walker %q: valid walkers are %s, %s, %s", c.Walker, WalkerAuto, WalkerDescriptor, WalkerDiskfs)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q: valid formats are console, json", c.LogFormat)
	}
	return nil
}
