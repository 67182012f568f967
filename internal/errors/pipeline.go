package errors

import (
	"fmt"
	"strings"
)

// Direction of an object transfer.
type Direction string

const (
	DirectionDownload Direction = "download"
	DirectionUpload   Direction = "upload"
)

// NoSnapshotsFoundError reports an empty snapshot collection for a cluster
func NoSnapshotsFoundError(cluster string) *SpliceError {
	msg := "No cluster snapshots found"
	if cluster != "" {
		msg = fmt.Sprintf("No snapshots found for cluster %q", cluster)
	}
	err := New(ErrorTypeNoSnapshots, msg)
	err.Err = ErrNoSnapshotsFound

	err.WithSolutions(
		"Take a manual snapshot of the cluster",
		"Check --snapshot-type does not filter out every snapshot",
	)
	if cluster != "" {
		err.WithVerify("aws rds describe-db-cluster-snapshots --db-cluster-identifier " + cluster)
	}

	return err
}

// PathNotFoundError reports that path is missing from a template.
// missing is the index of the first absent segment.
func PathNotFoundError(path []string, missing int) *SpliceError {
	full := strings.Join(path, ".")
	err := New(ErrorTypePathNotFound, fmt.Sprintf("Template has no %s", full))
	err.Err = ErrPathNotFound

	if missing >= 0 && missing < len(path) {
		parent := "document root"
		if missing > 0 {
			parent = strings.Join(path[:missing], ".")
		}
		err.WithCause(fmt.Sprintf("key %q not found under %s", path[missing], parent))
	}

	err.WithSolutions(
		"Check the resource name (--resource) matches the template",
		"Add a SnapshotIdentifier property to the cluster resource",
	)

	return err
}

// TransferError reports a failed S3 download or upload
func TransferError(direction Direction, bucket, key string, originalErr error) *SpliceError {
	err := Wrap(ErrorTypeTransfer,
		fmt.Sprintf("Failed to %s s3://%s/%s", direction, bucket, key), originalErr)

	if code, msg, ok := apiError(originalErr); ok {
		err.WithCause(code + ": " + msg)
		switch code {
		case "NoSuchKey", "NotFound":
			err.WithSolutions("Check the object key exists in the bucket")
			err.WithVerify(fmt.Sprintf("aws s3 ls s3://%s/%s", bucket, key))
		case "NoSuchBucket":
			err.WithSolutions("Check the bucket name and region")
			err.WithVerify("aws s3 ls")
		case "AccessDenied":
			err.WithSolutions(fmt.Sprintf("Grant s3:GetObject and s3:PutObject on arn:aws:s3:::%s/*", bucket))
			err.WithVerify("aws sts get-caller-identity")
		}
	}

	return err
}

// ParseError reports a template that is not valid YAML
func ParseError(source string, originalErr error) *SpliceError {
	msg := "Template is not valid YAML"
	if source != "" {
		msg = fmt.Sprintf("Template %s is not valid YAML", source)
	}
	err := Wrap(ErrorTypeParse, msg, originalErr)
	err.WithSolutions("Validate the template locally: cfn-lint <file>")
	return err
}

// ConfigurationError reports an invalid setting
func ConfigurationError(message string) *SpliceError {
	err := New(ErrorTypeConfiguration, message)
	err.WithSolutions(
		"Set the value in ~/.snapsplice/config.yaml",
		"Set the matching SNAPSPLICE_ environment variable",
		"Pass the matching command line flag",
	)
	err.WithHelp("snapsplice --help")
	return err
}

// FileSystemError reports a local file failure
func FileSystemError(message string, originalErr error) *SpliceError {
	return Wrap(ErrorTypeFileSystem, message, originalErr)
}

// ValidationError reports a template rejected by CloudFormation
func ValidationError(originalErr error) *SpliceError {
	err := Wrap(ErrorTypeValidation, "CloudFormation rejected the patched template", originalErr)
	if code, msg, ok := apiError(originalErr); ok {
		err.WithCause(code + ": " + msg)
	}
	err.WithSolutions("Disable validation with --validate=false to upload anyway")
	return err
}
