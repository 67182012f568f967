package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

// RDSAPI defines the RDS client methods we use
type RDSAPI interface {
	DescribeDBClusterSnapshots(ctx context.Context, params *rds.DescribeDBClusterSnapshotsInput, optFns ...func(*rds.Options)) (*rds.DescribeDBClusterSnapshotsOutput, error)
}

// S3API defines the S3 client methods we use
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CloudFormationAPI defines the CloudFormation client methods we use
type CloudFormationAPI interface {
	ValidateTemplate(ctx context.Context, params *cloudformation.ValidateTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error)
}

// STSAPI defines the STS client methods we use
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var (
	_ RDSAPI            = (*rds.Client)(nil)
	_ S3API             = (*s3.Client)(nil)
	_ CloudFormationAPI = (*cloudformation.Client)(nil)
	_ STSAPI            = (*sts.Client)(nil)
)

// AWSClients holds the AWS service clients
type AWSClients struct {
	RDS            RDSAPI
	S3             S3API
	CloudFormation CloudFormationAPI
	STS            STSAPI
	Config         aws.Config
}

// ClientConfig holds configuration for AWS client creation
type ClientConfig struct {
	Region  string
	Profile string
	// MaxRetries overrides the SDK's standard retryer attempts; zero keeps the SDK default.
	MaxRetries int
	Timeout    time.Duration
}

// Identity is the caller identity returned by STS
type Identity struct {
	Account string
	Arn     string
	UserID  string
}

// NewAWSClients creates and configures AWS service clients
func NewAWSClients(ctx context.Context, clientConfig ClientConfig) (*AWSClients, error) {
	var opts []func(*config.LoadOptions) error

	if clientConfig.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(clientConfig.Profile))
	}

	if clientConfig.Region != "" {
		opts = append(opts, config.WithRegion(clientConfig.Region))
	}

	if clientConfig.MaxRetries > 0 {
		opts = append(opts, config.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), clientConfig.MaxRetries)
		}))
	}

	opts = append(opts, config.WithHTTPClient(NewHTTPClient(clientConfig.Timeout)))

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, spliceerrors.Wrap(spliceerrors.ErrorTypeConfiguration, "failed to load AWS config", err)
	}

	if cfg.Region == "" {
		return nil, spliceerrors.AWSRegionError()
	}

	if err := validateAWSCredentials(ctx, cfg); err != nil {
		return nil, err
	}

	return NewFromConfig(cfg), nil
}

// NewFromConfig builds service clients from an already loaded aws.Config
func NewFromConfig(cfg aws.Config) *AWSClients {
	return &AWSClients{
		RDS:            rds.NewFromConfig(cfg),
		S3:             s3.NewFromConfig(cfg),
		CloudFormation: cloudformation.NewFromConfig(cfg),
		STS:            sts.NewFromConfig(cfg),
		Config:         cfg,
	}
}

// GetRegion returns the configured region
func (c *AWSClients) GetRegion() string {
	return c.Config.Region
}

// CallerIdentity tests AWS credentials by making a simple API call
func (c *AWSClients) CallerIdentity(ctx context.Context) (*Identity, error) {
	result, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, spliceerrors.AWSCredentialsError(err)
	}

	if result.Account == nil || result.Arn == nil {
		return nil, spliceerrors.AWSCredentialsError(fmt.Errorf("received invalid identity information from AWS"))
	}

	return &Identity{
		Account: aws.ToString(result.Account),
		Arn:     aws.ToString(result.Arn),
		UserID:  aws.ToString(result.UserId),
	}, nil
}

// validateAWSCredentials checks that a credential source resolves before any API call
func validateAWSCredentials(ctx context.Context, cfg aws.Config) error {
	if cfg.Credentials == nil {
		return spliceerrors.AWSCredentialsError(nil)
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return spliceerrors.AWSCredentialsError(err)
	}

	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return spliceerrors.AWSCredentialsError(fmt.Errorf("credential source %q returned empty keys", creds.Source))
	}

	if creds.CanExpire && time.Now().After(creds.Expires) {
		return spliceerrors.AWSCredentialsError(fmt.Errorf("ExpiredToken: credentials expired at %v", creds.Expires))
	}

	return nil
}
