package snapshot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/yairfalse/snapsplice/internal/clients"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
)

// Locator queries RDS for a cluster's snapshots and picks the newest.
type Locator struct {
	client       clients.RDSAPI
	logger       logger.Logger
	snapshotType string
}

// Option configures a Locator
type Option func(*Locator)

// WithSnapshotType restricts the query to one snapshot type
// (manual, automated, shared, public, awsbackup). Empty means all types.
func WithSnapshotType(snapshotType string) Option {
	return func(l *Locator) { l.snapshotType = snapshotType }
}

// NewLocator creates a new Locator
func NewLocator(client clients.RDSAPI, log logger.Logger, opts ...Option) *Locator {
	l := &Locator{
		client: client,
		logger: log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate fetches at most maxRecords snapshots of clusterID in a single call
// and returns the newest one. Later pages are not requested.
func (l *Locator) Locate(ctx context.Context, clusterID string, maxRecords int32) (Snapshot, error) {
	log := l.logger.WithFields(map[string]interface{}{
		"cluster":     clusterID,
		"max_records": maxRecords,
	})

	snapshots, err := l.List(ctx, clusterID, maxRecords)
	if err != nil {
		return Snapshot{}, err
	}

	if len(snapshots) == 0 {
		return Snapshot{}, spliceerrors.NoSnapshotsFoundError(clusterID)
	}

	latest, err := SelectLatest(snapshots)
	if err != nil {
		return Snapshot{}, err
	}

	log.WithFields(map[string]interface{}{
		"snapshot_arn": latest.ARN,
		"created_at":   latest.CreatedAt.Format(time.RFC3339),
		"candidates":   len(snapshots),
	}).Info("Located latest cluster snapshot")

	return latest, nil
}

// List returns the usable snapshots from one DescribeDBClusterSnapshots call,
// in API order.
func (l *Locator) List(ctx context.Context, clusterID string, maxRecords int32) ([]Snapshot, error) {
	input := &rds.DescribeDBClusterSnapshotsInput{
		DBClusterIdentifier: aws.String(clusterID),
		MaxRecords:          aws.Int32(maxRecords),
	}
	if l.snapshotType != "" {
		input.SnapshotType = aws.String(l.snapshotType)
	}

	l.logger.WithField("cluster", clusterID).Debug("Describing cluster snapshots")

	result, err := l.client.DescribeDBClusterSnapshots(ctx, input)
	if err != nil {
		return nil, spliceerrors.ProviderError("failed to describe cluster snapshots", err)
	}

	snapshots := make([]Snapshot, 0, len(result.DBClusterSnapshots))
	for _, raw := range result.DBClusterSnapshots {
		s, ok := FromRDS(raw)
		if !ok {
			l.logger.WithField("snapshot", aws.ToString(raw.DBClusterSnapshotIdentifier)).
				Debug("Skipping snapshot without ARN or create time")
			continue
		}
		snapshots = append(snapshots, s)
	}

	if result.Marker != nil {
		l.logger.WithField("cluster", clusterID).
			Debug("More snapshots available beyond max_records; only the first page is considered")
	}

	return snapshots, nil
}
