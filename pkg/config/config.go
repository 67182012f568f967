package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

// Config represents the complete snapsplice configuration
type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Template TemplateConfig `mapstructure:"template"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AWSConfig contains AWS client configuration
type AWSConfig struct {
	Region     string        `mapstructure:"region"`
	Profile    string        `mapstructure:"profile"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RunTimeout time.Duration `mapstructure:"run_timeout" validate:"gte=0"`
}

// SnapshotConfig selects which cluster snapshots are considered
type SnapshotConfig struct {
	ClusterIdentifier string `mapstructure:"cluster_identifier" validate:"notblank"`
	MaxRecords        int32  `mapstructure:"max_records" validate:"gt=0"`
	Type              string `mapstructure:"type"`
}

// TemplateConfig locates the template in S3 and the property to rewrite
type TemplateConfig struct {
	SourceBucket string `mapstructure:"source_bucket" validate:"notblank"`
	SourceKey    string `mapstructure:"source_key" validate:"notblank"`
	DestBucket   string `mapstructure:"dest_bucket" validate:"notblank"`
	DestKey      string `mapstructure:"dest_key" validate:"notblank"`
	Resource     string `mapstructure:"resource" validate:"notblank"`
	Validate     bool   `mapstructure:"validate"`
	WorkDir      string `mapstructure:"work_dir"`
}

// OutputConfig contains output formatting configuration
type OutputConfig struct {
	Format  string `mapstructure:"format" validate:"oneof=text json yaml"`
	NoColor bool   `mapstructure:"no_color"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the global viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads configuration from defaults, an optional config file,
// SNAPSPLICE_* environment variables and any flags bound to v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	registerDefaults(v)

	// SetConfigName clears an explicit --config file, so only search when none was given.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".snapsplice"))
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SNAPSPLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("aws.region", "SNAPSPLICE_AWS_REGION", "AWS_REGION")
	v.BindEnv("aws.profile", "SNAPSPLICE_AWS_PROFILE", "AWS_PROFILE")
	v.BindEnv("logging.level", "SNAPSPLICE_LOGGING_LEVEL", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, spliceerrors.Wrap(spliceerrors.ErrorTypeConfiguration, "failed to read config file", err)
		}
		// Config file not found is not an error - we'll use defaults
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, spliceerrors.Wrap(spliceerrors.ErrorTypeConfiguration, "failed to unmarshal config", err)
	}

	if config.Template.DestBucket == "" {
		config.Template.DestBucket = config.Template.SourceBucket
	}

	return config, nil
}

// ExpandPaths expands home directory paths
func (c *Config) ExpandPaths() error {
	var err error
	c.Template.WorkDir, err = expandPath(c.Template.WorkDir)
	if err != nil {
		return spliceerrors.FileSystemError("failed to expand template work dir", err)
	}
	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path, err
	}

	if len(path) == 1 {
		return home, nil
	}

	return filepath.Join(home, path[1:]), nil
}
