package commands

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
	"github.com/yairfalse/snapsplice/internal/splice"
	"github.com/yairfalse/snapsplice/pkg/config"
)

// connect builds the pipeline for a command. Tests replace it to run
// against mocked AWS clients.
var connect = splice.FromConfig

// app is the state shared by every subcommand of one root command
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     logger.Logger
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand(viper.GetViper())

// Execute runs the root command and exits with a code matching the error type.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		spliceerrors.DisplayError(err)
		os.Exit(spliceerrors.GetExitCode(err))
	}
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	cmd := &cobra.Command{
		Use:   "snapsplice",
		Short: "Point a CloudFormation template at the latest RDS cluster snapshot",
		Long: `snapsplice finds the most recent snapshot of an RDS cluster and writes its ARN
into Resources.<resource>.Properties.SnapshotIdentifier of a CloudFormation
template stored in S3, then uploads the patched template.

  snapsplice run                   # locate, patch and upload
  snapsplice run --dry-run         # print the patched template instead
  snapsplice locate                # print the latest snapshot ARN
  snapsplice patch --arn <arn>     # patch with a known ARN
  snapsplice show                  # print the ARN the template points at`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.snapsplice/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("output", "o", "text", "output format (text, json, yaml)")
	flags.String("region", "", "AWS region (defaults to AWS_REGION or the profile's region)")
	flags.String("profile", "", "AWS shared config profile")

	flags.String("cluster", config.DefaultClusterIdentifier, "RDS cluster identifier")
	flags.Int32("max-records", config.DefaultMaxRecords, "maximum snapshots fetched in the single describe call")
	flags.String("snapshot-type", "", "only consider snapshots of this type (manual, automated, ...)")

	flags.String("bucket", config.DefaultBucket, "bucket holding the source template")
	flags.String("source-key", config.DefaultSourceKey, "object key of the source template")
	flags.String("dest-bucket", "", "bucket for the patched template (defaults to --bucket)")
	flags.String("dest-key", config.DefaultDestKey, "object key of the patched template")
	flags.String("resource", config.DefaultResource, "logical ID of the cluster resource in the template")

	bindings := map[string]string{
		"logging.level":               "log-level",
		"logging.format":              "log-format",
		"output.no_color":             "no-color",
		"output.format":               "output",
		"aws.region":                  "region",
		"aws.profile":                 "profile",
		"snapshot.cluster_identifier": "cluster",
		"snapshot.max_records":        "max-records",
		"snapshot.type":               "snapshot-type",
		"template.source_bucket":      "bucket",
		"template.source_key":         "source-key",
		"template.dest_bucket":        "dest-bucket",
		"template.dest_key":           "dest-key",
		"template.resource":           "resource",
	}
	for key, name := range bindings {
		v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newLocateCommand(a))
	cmd.AddCommand(newPatchCommand(a))
	cmd.AddCommand(newShowCommand(a))
	cmd.AddCommand(newAuthCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// load reads configuration and builds the logger for the command about to run
func (a *app) load(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}

	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return err
	}
	if err := cfg.ExpandPaths(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Output.NoColor {
		color.NoColor = true
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		NoColor: cfg.Output.NoColor,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return spliceerrors.ConfigurationError(err.Error())
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// components connects to AWS. dryRun, when not nil, receives the patched
// template instead of S3.
func (a *app) components(ctx context.Context, dryRun io.Writer) (*splice.Components, error) {
	return connect(ctx, a.cfg, a.log, dryRun)
}
