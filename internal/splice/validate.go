package splice

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/yairfalse/snapsplice/internal/clients"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
	"github.com/yairfalse/snapsplice/internal/logger"
)

// maxTemplateBody is the largest TemplateBody ValidateTemplate accepts.
const maxTemplateBody = 51200

// Validator checks patched templates with CloudFormation ValidateTemplate
type Validator struct {
	client clients.CloudFormationAPI
	logger logger.Logger
}

// NewValidator creates a new Validator
func NewValidator(client clients.CloudFormationAPI, log logger.Logger) *Validator {
	return &Validator{client: client, logger: log}
}

// Validate sends body to CloudFormation. Bodies over the inline size limit
// are skipped with a warning.
func (v *Validator) Validate(ctx context.Context, body []byte) error {
	if len(body) > maxTemplateBody {
		v.logger.WithField("bytes", len(body)).Warn("Template too large for inline validation, skipping")
		return nil
	}

	result, err := v.client.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: aws.String(string(body)),
	})
	if err != nil {
		return spliceerrors.ValidationError(err)
	}

	v.logger.WithFields(map[string]interface{}{
		"parameters":   len(result.Parameters),
		"capabilities": len(result.Capabilities),
	}).Debug("Template validated")

	return nil
}
