// Package splice runs the snapshot-to-template pipeline: locate the newest
// cluster snapshot, then write its ARN into the template stored in S3.
package splice

import (
	"context"
	"io"

	"github.com/yairfalse/snapsplice/internal/clients"
	"github.com/yairfalse/snapsplice/internal/logger"
	"github.com/yairfalse/snapsplice/internal/snapshot"
	"github.com/yairfalse/snapsplice/internal/storage"
	"github.com/yairfalse/snapsplice/pkg/config"
)

// SnapshotLocator finds the newest snapshot of a cluster
type SnapshotLocator interface {
	Locate(ctx context.Context, clusterID string, maxRecords int32) (snapshot.Snapshot, error)
}

var _ SnapshotLocator = (*snapshot.Locator)(nil)

// Result is the outcome of one run
type Result struct {
	Snapshot snapshot.Snapshot `json:"snapshot" yaml:"snapshot"`
	Patch    *PatchResult      `json:"patch" yaml:"patch"`
}

// Runner executes one pipeline run
type Runner struct {
	cfg     *config.Config
	locator SnapshotLocator
	patcher *Patcher
	logger  logger.Logger
}

// NewRunner creates a Runner from already built components
func NewRunner(cfg *config.Config, locator SnapshotLocator, patcher *Patcher, log logger.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		locator: locator,
		patcher: patcher,
		logger:  log,
	}
}

// Components are the pieces FromConfig builds, exposed for commands that
// need only part of the pipeline.
type Components struct {
	Clients *clients.AWSClients
	Locator *snapshot.Locator
	Patcher *Patcher
	Runner  *Runner
}

// FromConfig connects to AWS and wires a Runner from cfg. When dryRun is not
// nil the patched template is written there instead of uploaded.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, dryRun io.Writer) (*Components, error) {
	awsClients, err := clients.NewAWSClients(ctx, clients.ClientConfig{
		Region:     cfg.AWS.Region,
		Profile:    cfg.AWS.Profile,
		MaxRetries: cfg.AWS.MaxRetries,
		Timeout:    cfg.AWS.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return Wire(cfg, awsClients, log, dryRun), nil
}

// Wire builds the pipeline on top of existing clients
func Wire(cfg *config.Config, awsClients *clients.AWSClients, log logger.Logger, dryRun io.Writer) *Components {
	locator := snapshot.NewLocator(awsClients.RDS, log, snapshot.WithSnapshotType(cfg.Snapshot.Type))

	opts := []PatcherOption{WithWorkDir(cfg.Template.WorkDir)}
	if cfg.Template.Validate {
		opts = append(opts, WithValidator(NewValidator(awsClients.CloudFormation, log)))
	}
	if dryRun != nil {
		opts = append(opts, WithDryRun(dryRun))
	}
	patcher := NewPatcher(storage.NewObjectStore(awsClients.S3, log), log, opts...)

	return &Components{
		Clients: awsClients,
		Locator: locator,
		Patcher: patcher,
		Runner:  NewRunner(cfg, locator, patcher, log),
	}
}

// Run locates the newest snapshot and patches the template with its ARN.
// Any failure aborts the run; no partial upload happens.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.AWS.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.AWS.RunTimeout)
		defer cancel()
	}

	log := r.logger.WithField("cluster", r.cfg.Snapshot.ClusterIdentifier)
	log.Info("Starting snapshot splice")

	latest, err := r.locator.Locate(ctx, r.cfg.Snapshot.ClusterIdentifier, r.cfg.Snapshot.MaxRecords)
	if err != nil {
		log.Error("Snapshot lookup failed", err)
		return nil, err
	}

	patch, err := r.patcher.Patch(ctx, PatchRequest{
		SourceBucket: r.cfg.Template.SourceBucket,
		SourceKey:    r.cfg.Template.SourceKey,
		DestBucket:   r.cfg.Template.DestBucket,
		DestKey:      r.cfg.Template.DestKey,
		Resource:     r.cfg.Template.Resource,
		SnapshotARN:  latest.ARN,
	})
	if err != nil {
		log.Error("Template patch failed", err)
		return nil, err
	}

	return &Result{Snapshot: latest, Patch: patch}, nil
}
