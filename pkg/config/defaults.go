package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultClusterIdentifier = "database-1"
	DefaultMaxRecords        = 20
	DefaultBucket            = "activestatebucket"
	DefaultSourceKey         = "ephemeralenv.yml"
	DefaultDestKey           = "final.yaml"
	DefaultResource          = "RDSCluster"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AWS: AWSConfig{
			Timeout:    30 * time.Second,
			RunTimeout: 2 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			ClusterIdentifier: DefaultClusterIdentifier,
			MaxRecords:        DefaultMaxRecords,
		},
		Template: TemplateConfig{
			SourceBucket: DefaultBucket,
			SourceKey:    DefaultSourceKey,
			DestKey:      DefaultDestKey,
			Resource:     DefaultResource,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// registerDefaults makes every key known to v, so AutomaticEnv can
// override keys that appear in no config file.
func registerDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.profile", d.AWS.Profile)
	v.SetDefault("aws.max_retries", d.AWS.MaxRetries)
	v.SetDefault("aws.timeout", d.AWS.Timeout)
	v.SetDefault("aws.run_timeout", d.AWS.RunTimeout)

	v.SetDefault("snapshot.cluster_identifier", d.Snapshot.ClusterIdentifier)
	v.SetDefault("snapshot.max_records", d.Snapshot.MaxRecords)
	v.SetDefault("snapshot.type", d.Snapshot.Type)

	v.SetDefault("template.source_bucket", d.Template.SourceBucket)
	v.SetDefault("template.source_key", d.Template.SourceKey)
	v.SetDefault("template.dest_bucket", d.Template.DestBucket)
	v.SetDefault("template.dest_key", d.Template.DestKey)
	v.SetDefault("template.resource", d.Template.Resource)
	v.SetDefault("template.validate", d.Template.Validate)
	v.SetDefault("template.work_dir", d.Template.WorkDir)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.no_color", d.Output.NoColor)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
