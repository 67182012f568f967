package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "database-1", cfg.Snapshot.ClusterIdentifier)
	assert.Equal(t, int32(20), cfg.Snapshot.MaxRecords)
	assert.Equal(t, "activestatebucket", cfg.Template.SourceBucket)
	assert.Equal(t, "activestatebucket", cfg.Template.DestBucket, "dest bucket falls back to source bucket")
	assert.Equal(t, "ephemeralenv.yml", cfg.Template.SourceKey)
	assert.Equal(t, "final.yaml", cfg.Template.DestKey)
	assert.Equal(t, "RDSCluster", cfg.Template.Resource)
	assert.Equal(t, 30*time.Second, cfg.AWS.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.AWS.RunTimeout)
	assert.False(t, cfg.Template.Validate)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SNAPSPLICE_SNAPSHOT_CLUSTER_IDENTIFIER", "database-2")
	t.Setenv("SNAPSPLICE_SNAPSHOT_MAX_RECORDS", "50")
	t.Setenv("SNAPSPLICE_TEMPLATE_DEST_BUCKET", "deploy-bucket")
	t.Setenv("SNAPSPLICE_AWS_TIMEOUT", "5s")
	t.Setenv("SNAPSPLICE_TEMPLATE_VALIDATE", "true")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "database-2", cfg.Snapshot.ClusterIdentifier)
	assert.Equal(t, int32(50), cfg.Snapshot.MaxRecords)
	assert.Equal(t, "activestatebucket", cfg.Template.SourceBucket)
	assert.Equal(t, "deploy-bucket", cfg.Template.DestBucket)
	assert.Equal(t, 5*time.Second, cfg.AWS.Timeout)
	assert.True(t, cfg.Template.Validate)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "snapsplice.yaml")
	content := `snapshot:
  cluster_identifier: aurora-prod
  type: manual
template:
  source_bucket: templates
  source_key: env/ephemeral.yml
  resource: AuroraCluster
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "aurora-prod", cfg.Snapshot.ClusterIdentifier)
	assert.Equal(t, "manual", cfg.Snapshot.Type)
	assert.Equal(t, int32(20), cfg.Snapshot.MaxRecords)
	assert.Equal(t, "templates", cfg.Template.SourceBucket)
	assert.Equal(t, "templates", cfg.Template.DestBucket)
	assert.Equal(t, "env/ephemeral.yml", cfg.Template.SourceKey)
	assert.Equal(t, "AuroraCluster", cfg.Template.Resource)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadBrokenConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot: [unclosed"), 0o600))

	v := viper.New()
	v.SetConfigFile(path)

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Equal(t, 78, spliceerrors.GetExitCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"empty cluster", func(c *Config) { c.Snapshot.ClusterIdentifier = "" }, "snapshot.cluster_identifier is required"},
		{"blank bucket", func(c *Config) { c.Template.SourceBucket = "  " }, "template.source_bucket is required"},
		{"empty dest key", func(c *Config) { c.Template.DestKey = "" }, "template.dest_key is required"},
		{"zero records", func(c *Config) { c.Snapshot.MaxRecords = 0 }, "snapshot.max_records must be positive"},
		{"negative timeout", func(c *Config) { c.AWS.Timeout = -time.Second }, "aws.timeout must not be negative"},
		{"negative run timeout", func(c *Config) { c.AWS.RunTimeout = -time.Second }, "aws.run_timeout must not be negative"},
		{"negative retries", func(c *Config) { c.AWS.MaxRetries = -1 }, "aws.max_retries must not be negative"},
		{"blank resource", func(c *Config) { c.Template.Resource = "\t" }, "template.resource is required"},
		{"bad output", func(c *Config) { c.Output.Format = "table" }, "output.format must be text, json or yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Template.DestBucket = cfg.Template.SourceBucket
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, 78, spliceerrors.GetExitCode(err))
		})
	}
}

func TestExpandPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Template.WorkDir = "~/work"
	require.NoError(t, cfg.ExpandPaths())
	assert.Equal(t, filepath.Join(home, "work"), cfg.Template.WorkDir)
}
