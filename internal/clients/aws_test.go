package clients

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

func TestGetRegion(t *testing.T) {
	clients := &AWSClients{
		Config: aws.Config{Region: "us-east-1"},
	}

	assert.Equal(t, "us-east-1", clients.GetRegion())
}

func TestNewFromConfig(t *testing.T) {
	clients := NewFromConfig(aws.Config{Region: "eu-west-1"})

	assert.NotNil(t, clients.RDS)
	assert.NotNil(t, clients.S3)
	assert.NotNil(t, clients.CloudFormation)
	assert.NotNil(t, clients.STS)
	assert.Equal(t, "eu-west-1", clients.GetRegion())
}

func TestCallerIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockSTS := new(MockSTSClient)
		mockSTS.On("GetCallerIdentity", ctx, mock.Anything).Return(&sts.GetCallerIdentityOutput{
			Account: aws.String("123456789012"),
			Arn:     aws.String("arn:aws:sts::123456789012:assumed-role/GetRdsSnapshot/session"),
			UserId:  aws.String("AROAEXAMPLE:session"),
		}, nil)

		id, err := (&AWSClients{STS: mockSTS}).CallerIdentity(ctx)
		require.NoError(t, err)
		assert.Equal(t, "123456789012", id.Account)
		assert.Equal(t, "AROAEXAMPLE:session", id.UserID)
		mockSTS.AssertExpectations(t)
	})

	t.Run("api error", func(t *testing.T) {
		mockSTS := new(MockSTSClient)
		mockSTS.On("GetCallerIdentity", ctx, mock.Anything).Return(nil, errors.New("ExpiredToken: token expired"))

		_, err := (&AWSClients{STS: mockSTS}).CallerIdentity(ctx)
		require.Error(t, err)
		assert.Equal(t, 77, spliceerrors.GetExitCode(err))
		assert.Contains(t, err.Error(), "AWS credentials expired")
	})

	t.Run("incomplete identity", func(t *testing.T) {
		mockSTS := new(MockSTSClient)
		mockSTS.On("GetCallerIdentity", ctx, mock.Anything).Return(&sts.GetCallerIdentityOutput{}, nil)

		_, err := (&AWSClients{STS: mockSTS}).CallerIdentity(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid identity")
	})
}

type staticProvider struct {
	creds aws.Credentials
	err   error
}

func (p staticProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	return p.creds, p.err
}

func TestValidateAWSCredentials(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		provider aws.CredentialsProvider
		wantErr  bool
	}{
		{"nil provider", nil, true},
		{"retrieve fails", staticProvider{err: errors.New("no EC2 IMDS role found")}, true},
		{"empty keys", staticProvider{creds: aws.Credentials{Source: "test"}}, true},
		{
			"expired",
			staticProvider{creds: aws.Credentials{
				AccessKeyID: "AKID", SecretAccessKey: "SECRET",
				CanExpire: true, Expires: time.Now().Add(-time.Hour),
			}},
			true,
		},
		{"valid", staticProvider{creds: aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAWSCredentials(ctx, aws.Config{Credentials: tt.provider})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 77, spliceerrors.GetExitCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	assert.Equal(t, defaultTimeout, NewHTTPClient(0).Timeout)
	assert.Equal(t, 5*time.Second, NewHTTPClient(5*time.Second).Timeout)
}
