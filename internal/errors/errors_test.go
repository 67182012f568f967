package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"no snapshots", NoSnapshotsFoundError("database-1"), ErrNoSnapshotsFound},
		{"path not found", PathNotFoundError([]string{"Resources"}, 0), ErrPathNotFound},
		{"transfer", TransferError(DirectionUpload, "b", "k", fmt.Errorf("reset")), ErrTransfer},
		{"parse", ParseError("k", fmt.Errorf("bad indent")), ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)

			for _, other := range []error{ErrNoSnapshotsFound, ErrPathNotFound, ErrTransfer, ErrParse} {
				if other != tt.sentinel {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestUnwrapKeepsAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}
	err := TransferError(DirectionUpload, "activestatebucket", "final.yaml", apiErr)

	var got smithy.APIError
	require.True(t, stderrors.As(err, &got))
	assert.Equal(t, "AccessDenied", got.ErrorCode())
	assert.Equal(t, "AccessDenied: Access Denied", err.Cause)
	assert.Contains(t, err.Solutions[0], "arn:aws:s3:::activestatebucket/*")
}

func TestErrorString(t *testing.T) {
	err := PathNotFoundError([]string{"Resources", "RDSCluster", "Properties", "SnapshotIdentifier"}, 2)

	assert.Equal(t,
		`Template has no Resources.RDSCluster.Properties.SnapshotIdentifier: key "Properties" not found under Resources.RDSCluster`,
		err.Error())
	assert.Contains(t, fmt.Sprintf("%+v", err), "[PathNotFound]")
	assert.Contains(t, fmt.Sprintf("%+v", err), "Solutions:")
}

func TestProviderErrorCodes(t *testing.T) {
	err := ProviderError("failed to describe cluster snapshots",
		&smithy.GenericAPIError{Code: "DBClusterNotFoundFault", Message: "DBCluster database-2 not found."})

	assert.Equal(t, ErrorTypeProvider, err.Type)
	assert.Equal(t, "DBClusterNotFoundFault: DBCluster database-2 not found.", err.Cause)
	assert.Equal(t, "aws rds describe-db-clusters", err.Verify)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"authentication", AWSCredentialsError(nil), 77},
		{"configuration", ConfigurationError("bad"), 78},
		{"no snapshots", NoSnapshotsFoundError(""), 66},
		{"path not found", PathNotFoundError([]string{"Resources"}, 0), 65},
		{"parse", ParseError("", fmt.Errorf("x")), 65},
		{"transfer", TransferError(DirectionDownload, "b", "k", fmt.Errorf("x")), 69},
		{"wrapped", fmt.Errorf("run: %w", TransferError(DirectionDownload, "b", "k", nil)), 69},
		{"file system", FileSystemError("disk full", nil), 74},
		{"generic", fmt.Errorf("some generic error"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetExitCode(tt.err))
		})
	}
}

func TestIsUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"configuration", ConfigurationError("bad"), true},
		{"no snapshots", NoSnapshotsFoundError("aurora-prod"), true},
		{"path not found", fmt.Errorf("run: %w", PathNotFoundError([]string{"Resources"}, 0)), true},
		{"authentication", AWSCredentialsError(nil), true},
		{"transfer", TransferError(DirectionUpload, "b", "k", fmt.Errorf("x")), false},
		{"file system", FileSystemError("disk full", nil), false},
		{"generic", fmt.Errorf("some generic error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUserError(tt.err))
		})
	}
}

func TestDetectEnvironmentLambda(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "GetRdsSnapshot")

	err := AWSCredentialsError(nil)

	assert.Equal(t, "AWS Lambda detected", err.Environment)
	assert.Contains(t, err.Solutions[0], "execution role")
}
