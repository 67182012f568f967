package splice

import (
	"context"
	"fmt"
	"io"
	"path"

	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
	"github.com/yairfalse/snapsplice/internal/storage"
	"github.com/yairfalse/snapsplice/internal/template"
)

// ObjectStore moves objects between S3 and local files
type ObjectStore interface {
	Download(ctx context.Context, bucket, key, path string) (int64, error)
	Upload(ctx context.Context, bucket, key, path string) (int64, error)
}

var _ ObjectStore = (*storage.ObjectStore)(nil)

// PatchRequest describes one template rewrite
type PatchRequest struct {
	SourceBucket string
	SourceKey    string
	DestBucket   string
	DestKey      string
	Resource     string
	SnapshotARN  string
}

// PatchResult reports what a rewrite changed
type PatchResult struct {
	Previous   string `json:"previous" yaml:"previous"`
	Current    string `json:"current" yaml:"current"`
	DestBucket string `json:"dest_bucket" yaml:"dest_bucket"`
	DestKey    string `json:"dest_key" yaml:"dest_key"`
	Bytes      int64  `json:"bytes" yaml:"bytes"`
	DryRun     bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// Patcher downloads a template, rewrites its snapshot identifier and uploads it
type Patcher struct {
	store     ObjectStore
	validator *Validator
	logger    logger.Logger
	workDir   string
	dryRun    io.Writer
}

// PatcherOption configures a Patcher
type PatcherOption func(*Patcher)

// WithValidator validates the patched template before upload
func WithValidator(v *Validator) PatcherOption {
	return func(p *Patcher) { p.validator = v }
}

// WithWorkDir sets the parent directory for per-run workspaces
func WithWorkDir(dir string) PatcherOption {
	return func(p *Patcher) { p.workDir = dir }
}

// WithDryRun writes the patched template to w instead of uploading it
func WithDryRun(w io.Writer) PatcherOption {
	return func(p *Patcher) { p.dryRun = w }
}

// NewPatcher creates a new Patcher
func NewPatcher(store ObjectStore, log logger.Logger, opts ...PatcherOption) *Patcher {
	p := &Patcher{
		store:  store,
		logger: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Patch rewrites Resources.<Resource>.Properties.SnapshotIdentifier of the
// source template and uploads the result to the destination. Nothing is
// uploaded if the template cannot be parsed or lacks the property.
func (p *Patcher) Patch(ctx context.Context, req PatchRequest) (*PatchResult, error) {
	if req.Resource == "" {
		req.Resource = "RDSCluster"
	}

	log := p.logger.WithFields(map[string]interface{}{
		"source":       fmt.Sprintf("s3://%s/%s", req.SourceBucket, req.SourceKey),
		"snapshot_arn": req.SnapshotARN,
	})

	ws, err := storage.NewWorkspace(p.workDir)
	if err != nil {
		return nil, err
	}
	defer closeWorkspace(ws, log)

	data, err := p.fetch(ctx, ws, req.SourceBucket, req.SourceKey)
	if err != nil {
		return nil, err
	}

	out, previous, err := template.Splice(data, template.SnapshotPath(req.Resource), req.SnapshotARN)
	if err != nil {
		return nil, withSource(err, req.SourceBucket, req.SourceKey)
	}

	log.WithField("previous", previous).Debug("Patched snapshot identifier")

	if p.validator != nil {
		if err := p.validator.Validate(ctx, out); err != nil {
			return nil, err
		}
	}

	result := &PatchResult{
		Previous:   previous,
		Current:    req.SnapshotARN,
		DestBucket: req.DestBucket,
		DestKey:    req.DestKey,
		Bytes:      int64(len(out)),
	}

	if p.dryRun != nil {
		if _, err := p.dryRun.Write(out); err != nil {
			return nil, spliceerrors.FileSystemError("failed to write patched template", err)
		}
		result.DryRun = true
		log.Info("Dry run, patched template not uploaded")
		return result, nil
	}

	patched, err := ws.WriteFile("patched-"+path.Base(req.DestKey), out)
	if err != nil {
		return nil, err
	}

	if _, err := p.store.Upload(ctx, req.DestBucket, req.DestKey, patched); err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"destination": fmt.Sprintf("s3://%s/%s", req.DestBucket, req.DestKey),
		"bytes":       result.Bytes,
	}).Info("Uploaded patched template")

	return result, nil
}

// Inspect returns the snapshot identifier currently set in a template
func (p *Patcher) Inspect(ctx context.Context, bucket, key, resource string) (string, error) {
	if resource == "" {
		resource = "RDSCluster"
	}

	ws, err := storage.NewWorkspace(p.workDir)
	if err != nil {
		return "", err
	}
	defer closeWorkspace(ws, p.logger.WithField("source", fmt.Sprintf("s3://%s/%s", bucket, key)))

	data, err := p.fetch(ctx, ws, bucket, key)
	if err != nil {
		return "", err
	}

	doc, err := template.Parse(data)
	if err != nil {
		return "", withSource(err, bucket, key)
	}

	return doc.Get(template.SnapshotPath(resource))
}

func (p *Patcher) fetch(ctx context.Context, ws *storage.Workspace, bucket, key string) ([]byte, error) {
	name := "source-" + path.Base(key)
	if _, err := p.store.Download(ctx, bucket, key, ws.Path(name)); err != nil {
		return nil, err
	}
	return ws.ReadFile(name)
}

// withSource names the S3 object in template errors
func withSource(err error, bucket, key string) error {
	if spliceErr, ok := spliceerrors.As(err); ok {
		spliceErr.Message = fmt.Sprintf("%s (s3://%s/%s)", spliceErr.Message, bucket, key)
	}
	return err
}

// closeWorkspace removes ws. A cleanup failure is logged, not returned.
func closeWorkspace(ws io.Closer, log logger.Logger) {
	if err := ws.Close(); err != nil {
		log.Warn(err.Error())
	}
}
