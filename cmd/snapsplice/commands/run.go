package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yairfalse/snapsplice/internal/splice"
)

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Patch the template with the latest cluster snapshot and upload it",
		Long: `Run finds the newest snapshot of the cluster, writes its ARN into the
template's SnapshotIdentifier and uploads the result. Nothing is uploaded
if any step fails.`,
		Example: `  # Default cluster and bucket
  snapsplice run

  # Another cluster, validating the template before upload
  snapsplice run --cluster aurora-prod --validate

  # Print the patched template without uploading
  snapsplice run --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, a)
		},
	}

	cmd.Flags().Bool("dry-run", false, "print the patched template instead of uploading it")
	cmd.Flags().Bool("validate", false, "validate the patched template with CloudFormation before upload")

	return cmd
}

func runRun(cmd *cobra.Command, a *app) error {
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

	result, err := c.Runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	if dryRun {
		return nil
	}

	return render(cmd.OutOrStdout(), a.cfg.Output.Format, result, func(w io.Writer) error {
		return printPatch(w, result.Patch)
	})
}

func printPatch(w io.Writer, p *splice.PatchResult) error {
	_, err := fmt.Fprintf(w, "s3://%s/%s SnapshotIdentifier: %s -> %s\n",
		p.DestBucket, p.DestKey, displayValue(p.Previous), p.Current)
	return err
}

func displayValue(s string) string {
	if s == "" {
		return `""`
	}
	return s
}
