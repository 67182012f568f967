package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	spliceerrors "github.com/yairfalse/snapsplice/internal/errors"
)

type authStatus struct {
	Account string `json:"account" yaml:"account"`
	Arn     string `json:"arn" yaml:"arn"`
	UserID  string `json:"user_id" yaml:"user_id"`
	Region  string `json:"region" yaml:"region"`
}

func newAuthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Check AWS credentials and show the caller identity",
		Long: `Auth resolves AWS credentials the same way run does and calls
sts:GetCallerIdentity, so permission problems show up before a run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, a)
		},
	}
}

func runAuth(cmd *cobra.Command, a *app) error {
	c, err := a.components(cmd.Context(), nil)
	if err != nil {
		return err
	}

	identity, err := c.Clients.CallerIdentity(cmd.Context())
	if err != nil {
		return err
	}

	status := authStatus{
		Account: identity.Account,
		Arn:     identity.Arn,
		UserID:  identity.UserID,
		Region:  c.Clients.GetRegion(),
	}

	err = render(cmd.OutOrStdout(), a.cfg.Output.Format, status, func(w io.Writer) error {
		fmt.Fprintf(w, "Account: %s\n", status.Account)
		fmt.Fprintf(w, "Arn:     %s\n", status.Arn)
		_, err := fmt.Fprintf(w, "Region:  %s\n", status.Region)
		return err
	})
	if err != nil {
		return err
	}

	spliceerrors.DisplaySuccess(cmd.ErrOrStderr(), "AWS credentials are valid")
	return nil
}
