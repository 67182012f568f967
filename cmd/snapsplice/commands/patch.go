package commands

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/yairfalse/snapsplice/internal/splice"
)

func newPatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Patch the template with a given snapshot ARN",
		Long: `Patch writes --arn into the template's SnapshotIdentifier and uploads the
result without looking up snapshots. Use it to pin a template to an older
snapshot.`,
		Example: `  snapsplice patch --arn arn:aws:rds:us-east-1:123456789012:cluster-snapshot:manual-2024`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(cmd, a)
		},
	}

	cmd.Flags().String("arn", "", "snapshot ARN to write into the template")
	cmd.Flags().Bool("dry-run", false, "print the patched template instead of uploading it")
	cmd.Flags().Bool("validate", false, "validate the patched template with CloudFormation before upload")
	cmd.MarkFlagRequired("arn")

	return cmd
}

func runPatch(cmd *cobra.Command, a *app) error {
	arn, _ := cmd.Flags().GetString("arn")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if cmd.Flags().Changed("validate") {
		a.cfg.Template.Validate, _ = cmd.Flags().GetBool("validate")
	}

	var sink io.Writer
	if dryRun {
		sink = cmd.OutOrStdout()
	}

	c, err := a.components(cmd.Context(), sink)
	if err != nil {
		return err
	}

	t := a.cfg.Template
	result, err := c.Patcher.Patch(cmd.Context(), splice.PatchRequest{
		SourceBucket: t.SourceBucket,
		SourceKey:    t.SourceKey,
		DestBucket:   t.DestBucket,
		DestKey:      t.DestKey,
		Resource:     t.Resource,
		SnapshotARN:  arn,
	})
	if err != nil {
		return err
	}

	if dryRun {
		return nil
	}

	return render(cmd.OutOrStdout(), a.cfg.Output.Format, result, func(w io.Writer) error {
		return printPatch(w, result)
	})
}
