package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yairfalse/snapsplice/internal/snapshot"
)

func newLocateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the ARN of the latest cluster snapshot",
		Example: `  snapsplice locate --cluster database-1
  snapsplice locate --all -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, a)
		},
	}

	cmd.Flags().Bool("all", false, "list every snapshot returned instead of only the latest")

	return cmd
}

func runLocate(cmd *cobra.Command, a *app) error {
	all, _ := cmd.Flags().GetBool("all")

	c, err := a.components(cmd.Context(), nil)
	if err != nil {
		return err
	}

	cluster := a.cfg.Snapshot.ClusterIdentifier
	maxRecords := a.cfg.Snapshot.MaxRecords

	if all {
		snapshots, err := c.Locator.List(cmd.Context(), cluster, maxRecords)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), a.cfg.Output.Format, snapshots, func(w io.Writer) error {
			return printSnapshots(w, snapshots)
		})
	}

	latest, err := c.Locator.Locate(cmd.Context(), cluster, maxRecords)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), a.cfg.Output.Format, latest, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, latest.ARN)
		return err
	})
}

func printSnapshots(w io.Writer, snapshots []snapshot.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tTYPE\tSTATUS\tARN")
	for _, s := range snapshots {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.CreatedAt.UTC().Format(time.RFC3339), s.Type, s.Status, s.ARN)
	}
	return tw.Flush()
}
