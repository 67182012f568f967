package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/yairfalse/snapsplice/internal/clients"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
)

const templateContentType = "application/x-yaml"

// ObjectStore moves objects between S3 and local files
type ObjectStore struct {
	client clients.S3API
	logger logger.Logger
}

// NewObjectStore creates a new ObjectStore
func NewObjectStore(client clients.S3API, log logger.Logger) *ObjectStore {
	return &ObjectStore{
		client: client,
		logger: log,
	}
}

// Download copies s3://bucket/key to the local file at path and returns the
// number of bytes written.
func (s *ObjectStore) Download(ctx context.Context, bucket, key, path string) (int64, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, spliceerrors.TransferError(spliceerrors.DirectionDownload, bucket, key, err)
	}
	defer result.Body.Close()

	f, err := createAtomic(path, 0o600)
	if err != nil {
		return 0, spliceerrors.FileSystemError(fmt.Sprintf("failed to create %s", path), err)
	}

	n, err := io.Copy(f, result.Body)
	if err != nil {
		f.Abort()
		return n, spliceerrors.TransferError(spliceerrors.DirectionDownload, bucket, key, err)
	}

	if err := f.Commit(); err != nil {
		return n, spliceerrors.FileSystemError(fmt.Sprintf("failed to write %s", path), err)
	}

	s.logger.WithFields(map[string]interface{}{
		"bucket": bucket,
		"key":    key,
		"bytes":  n,
	}).Debug("Downloaded object")

	return n, nil
}

// Upload copies the local file at path to s3://bucket/key and returns the
// number of bytes sent.
func (s *ObjectStore) Upload(ctx context.Context, bucket, key, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, spliceerrors.FileSystemError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, spliceerrors.FileSystemError(fmt.Sprintf("failed to stat %s", path), err)
	}

	checksum, err := checksumSHA256(f)
	if err != nil {
		return 0, spliceerrors.FileSystemError(fmt.Sprintf("failed to read %s", path), err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           f,
		ContentLength:  aws.Int64(info.Size()),
		ContentType:    aws.String(templateContentType),
		ChecksumSHA256: aws.String(checksum),
	})
	if err != nil {
		return 0, spliceerrors.TransferError(spliceerrors.DirectionUpload, bucket, key, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"bucket": bucket,
		"key":    key,
		"bytes":  info.Size(),
	}).Debug("Uploaded object")

	return info.Size(), nil
}
