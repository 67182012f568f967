// Package snapshot finds the most recent RDS cluster snapshot.
package snapshot

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

// Snapshot is the subset of an RDS cluster snapshot the pipeline reads.
type Snapshot struct {
	ARN        string    `json:"arn" yaml:"arn"`
	Identifier string    `json:"identifier" yaml:"identifier"`
	Cluster    string    `json:"cluster" yaml:"cluster"`
	Type       string    `json:"type,omitempty" yaml:"type,omitempty"`
	Status     string    `json:"status,omitempty" yaml:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// FromRDS converts an SDK snapshot. It reports false when the snapshot has no
// ARN or no create time yet, which happens while it is still being created.
func FromRDS(s rdstypes.DBClusterSnapshot) (Snapshot, bool) {
	if s.DBClusterSnapshotArn == nil || s.SnapshotCreateTime == nil {
		return Snapshot{}, false
	}

	return Snapshot{
		ARN:        aws.ToString(s.DBClusterSnapshotArn),
		Identifier: aws.ToString(s.DBClusterSnapshotIdentifier),
		Cluster:    aws.ToString(s.DBClusterIdentifier),
		Type:       aws.ToString(s.SnapshotType),
		Status:     aws.ToString(s.Status),
		CreatedAt:  aws.ToTime(s.SnapshotCreateTime),
	}, true
}

// SelectLatest returns the snapshot with the greatest CreatedAt. On equal
// timestamps the one that comes first in snapshots wins.
func SelectLatest(snapshots []Snapshot) (Snapshot, error) {
	if len(snapshots) == 0 {
		return Snapshot{}, spliceerrors.NoSnapshotsFoundError("")
	}

	latest := snapshots[0]
	for _, s := range snapshots[1:] {
		if s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}

	return latest, nil
}
