package errors

import (
	stderrors "errors"
	"strings"

	"github.com/aws/smithy-go"
)

// AWSCredentialsError creates an AWS credentials error with guidance
func AWSCredentialsError(originalErr error) *SpliceError {
	err := Wrap(ErrorTypeAuthentication, "AWS credentials not found", originalErr)
	if originalErr == nil {
		err.WithCause("No valid credential source detected")
	}

	switch {
	case originalErr != nil && strings.Contains(originalErr.Error(), "ExpiredToken"):
		err.Message = "AWS credentials expired"
		err.WithSolutions(
			"Refresh AWS credentials",
			"aws sso login (if using SSO)",
			"Get new temporary credentials",
		)
	case err.Environment == "AWS Lambda detected":
		err.WithSolutions(
			"Check the execution role attached to the function",
			"Grant rds:DescribeDBClusterSnapshots, s3:GetObject and s3:PutObject to the role",
		)
	case err.Environment == "CI/CD detected":
		err.WithSolutions(
			`Configure AWS IAM role for CI/CD`,
			`export AWS_ACCESS_KEY_ID=your-key AWS_SECRET_ACCESS_KEY=your-secret`,
		)
	default:
		err.WithSolutions(
			`aws configure`,
			`export AWS_PROFILE=your-profile`,
			`aws sso login (if using AWS SSO)`,
		)
	}

	err.WithVerify("aws sts get-caller-identity")
	err.WithHelp("snapsplice auth")

	return err
}

// AWSRegionError creates an AWS region configuration error
func AWSRegionError() *SpliceError {
	err := New(ErrorTypeConfiguration, "AWS region not specified")

	err.WithSolutions(
		`export AWS_REGION=us-east-1`,
		`aws configure set region us-east-1`,
		`Add --region flag to your command`,
	)

	err.WithVerify("aws configure get region")

	return err
}

// ProviderError wraps a failed AWS API call. The smithy error code, when
// present, is surfaced as the cause.
func ProviderError(message string, originalErr error) *SpliceError {
	err := Wrap(ErrorTypeProvider, message, originalErr)
	if code, msg, ok := apiError(originalErr); ok {
		err.WithCause(code + ": " + msg)
		switch code {
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			err.WithSolutions("Check IAM policies attached to the caller")
			err.WithVerify("aws sts get-caller-identity")
		case "DBClusterNotFoundFault":
			err.WithSolutions(
				"Check the cluster identifier (--cluster)",
				"Check the region the cluster lives in (--region)",
			)
			err.WithVerify("aws rds describe-db-clusters")
		}
	}
	return err
}

// apiError extracts the service error code from an SDK error chain
func apiError(err error) (code, message string, ok bool) {
	if err == nil {
		return "", "", false
	}
	var ae smithy.APIError
	if stderrors.As(err, &ae) {
		return ae.ErrorCode(), ae.ErrorMessage(), true
	}
	return "", "", false
}
