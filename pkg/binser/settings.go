package binser

import (
	"fmt"

	"github.com/spf13/viper"
)

// Settings carries the context-wide serialization defaults.
type Settings struct {
	DefaultEndian   Endian
	DefaultEncoding TextEncoding

	// Log enables the field-level serializer trace.
	Log bool

	// BackupFiles copies originals to a .bak sibling before the first write.
	BackupFiles bool

	// IgnoreCacheOnRead is the default cache behavior for new files.
	IgnoreCacheOnRead bool
}

// DefaultSettings returns the stock configuration: little-endian, UTF-8,
// trace off, backups on.
func DefaultSettings() Settings {
	return Settings{
		DefaultEndian:   LittleEndian,
		DefaultEncoding: UTF8,
		BackupFiles:     true,
	}
}

// settingsConfig is the on-disk shape of Settings.
type settingsConfig struct {
	DefaultEndianness string `mapstructure:"default_endianness"`
	DefaultEncoding   string `mapstructure:"default_encoding"`
	Log               bool   `mapstructure:"log"`
	BackupFiles       bool   `mapstructure:"backup_files"`
	IgnoreCacheOnRead bool   `mapstructure:"ignore_cache_on_read"`
}

// LoadSettings loads Settings using Viper, falling back to defaults when no
// config file is present.
func LoadSettings() (Settings, error) {
	v := viper.New()
	v.SetConfigName("binser-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.binser")

	v.SetDefault("default_endianness", "little")
	v.SetDefault("default_encoding", "utf-8")
	v.SetDefault("log", false)
	v.SetDefault("backup_files", true)
	v.SetDefault("ignore_cache_on_read", false)

	v.SetEnvPrefix("BINSER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults.
	}

	var cfg settingsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return Settings{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	endian, err := ParseEndian(cfg.DefaultEndianness)
	if err != nil {
		return Settings{}, err
	}
	enc, err := EncodingByName(cfg.DefaultEncoding)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		DefaultEndian:     endian,
		DefaultEncoding:   enc,
		Log:               cfg.Log,
		BackupFiles:       cfg.BackupFiles,
		IgnoreCacheOnRead: cfg.IgnoreCacheOnRead,
	}, nil
}
