package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type shownIdentifier struct {
	Bucket             string `json:"bucket" yaml:"bucket"`
	Key                string `json:"key" yaml:"key"`
	Resource           string `json:"resource" yaml:"resource"`
	SnapshotIdentifier string `json:"snapshot_identifier" yaml:"snapshot_identifier"`
}

func newShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the snapshot identifier a template currently points at",
		Example: `  # The patched template
  snapsplice show

  # The source template
  snapsplice show --source`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, a)
		},
	}

	cmd.Flags().Bool("source", false, "read the source template instead of the patched one")

	return cmd
}

func runShow(cmd *cobra.Command, a *app) error {
	source, _ := cmd.Flags().GetBool("source")

	t := a.cfg.Template
	shown := shownIdentifier{Bucket: t.DestBucket, Key: t.DestKey, Resource: t.Resource}
	if source {
		shown.Bucket, shown.Key = t.SourceBucket, t.SourceKey
	}

	c, err := a.components(cmd.Context(), nil)
	if err != nil {
		return err
	}

	shown.SnapshotIdentifier, err = c.Patcher.Inspect(cmd.Context(), shown.Bucket, shown.Key, shown.Resource)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), a.cfg.Output.Format, shown, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, shown.SnapshotIdentifier)
		return err
	})
}
