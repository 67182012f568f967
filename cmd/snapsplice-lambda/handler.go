package main

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
	"github.com/yairfalse/snapsplice/internal/splice"
	"github.com/yairfalse/snapsplice/pkg/config"
)

// Event overrides configuration for one invocation. Empty fields keep the
// values from the environment.
type Event struct {
	Cluster      string `json:"cluster"`
	MaxRecords   int32  `json:"maxRecords"`
	SnapshotType string `json:"snapshotType"`
	SourceBucket string `json:"sourceBucket"`
	SourceKey    string `json:"sourceKey"`
	DestBucket   string `json:"destBucket"`
	DestKey      string `json:"destKey"`
	Resource     string `json:"resource"`
	Validate     *bool  `json:"validate"`
	DryRun       bool   `json:"dryRun"`
}

type Response struct {
	SnapshotARN string `json:"snapshotArn"`
	Previous    string `json:"previous"`
	Destination string `json:"destination"`
	Bytes       int64  `json:"bytes"`
	DryRun      bool   `json:"dryRun,omitempty"`
	Template    string `json:"template,omitempty"`
}

var connect = splice.FromConfig

func Handler(ctx context.Context, event Event) (Response, error) {
	var response Response

	cfg, err := config.LoadFrom(viper.New())
	if err != nil {
		return response, err
	}
	applyEvent(cfg, event)
	if err := cfg.Validate(); err != nil {
		return response, err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		NoColor: true,
	})
	if err != nil {
		return response, spliceerrors.ConfigurationError(err.Error())
	}

	var rendered bytes.Buffer
	var dryRun io.Writer
	if event.DryRun {
		dryRun = &rendered
	}

	c, err := connect(ctx, cfg, log, dryRun)
	if err != nil {
		return response, err
	}

	result, err := c.Runner.Run(ctx)
	if err != nil {
		logFailure(log, err, map[string]string{
			"cluster": cfg.Snapshot.ClusterIdentifier,
			"source":  fmt.Sprintf("s3://%s/%s", cfg.Template.SourceBucket, cfg.Template.SourceKey),
		})
		return response, err
	}

	response.SnapshotARN = result.Snapshot.ARN
	response.Previous = result.Patch.Previous
	response.Destination = fmt.Sprintf("s3://%s/%s", result.Patch.DestBucket, result.Patch.DestKey)
	response.Bytes = result.Patch.Bytes
	response.DryRun = result.Patch.DryRun
	if event.DryRun {
		response.Template = rendered.String()
	}

	return response, nil
}

// logFailure logs a failed run with its guidance. Failures the operator has to
// fix are warnings; anything a retry may clear is an error.
func logFailure(log logger.Logger, err error, fields map[string]string) {
	entry := log.WithField("detail", spliceerrors.FormatErrorWithContext(err, fields))
	if spliceerrors.IsUserError(err) {
		entry.Warn("Snapshot splice needs operator action: " + err.Error())
		return
	}
	entry.Error("Snapshot splice failed", err)
}

// applyEvent copies the non-empty event fields over cfg
func applyEvent(cfg *config.Config, event Event) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&cfg.Snapshot.ClusterIdentifier, event.Cluster)
	set(&cfg.Snapshot.Type, event.SnapshotType)
	if event.MaxRecords > 0 {
		cfg.Snapshot.MaxRecords = event.MaxRecords
	}

	// An overridden source bucket also moves the destination unless the
	// event names one.
	if event.SourceBucket != "" && event.DestBucket == "" && cfg.Template.DestBucket == cfg.Template.SourceBucket {
		cfg.Template.DestBucket = event.SourceBucket
	}
	set(&cfg.Template.SourceBucket, event.SourceBucket)
	set(&cfg.Template.SourceKey, event.SourceKey)
	set(&cfg.Template.DestBucket, event.DestBucket)
	set(&cfg.Template.DestKey, event.DestKey)
	set(&cfg.Template.Resource, event.Resource)
	if event.Validate != nil {
		cfg.Template.Validate = *event.Validate
	}
}
