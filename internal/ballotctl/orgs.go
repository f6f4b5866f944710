package ballotctl

import (
	"github.com/dmitrijs2005/orgvote/internal/common"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
	"github.com/spf13/cobra"
)

const passphraseSize = 16

func (r *runner) orgsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "orgs", Short: "Manage organizations"}

	var (
		name          string
		newPassphrase bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := r.app.CreateOrg(cmd.Context(), &models.Org{Name: name})
			if err != nil {
				return err
			}
			if !newPassphrase {
				return printJSON(cmd.OutOrStdout(), org)
			}
			pass, err := common.NewPassphrase(passphraseSize)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				*models.Org
				Passphrase string `json:"passphrase"`
			}{org, pass})
		},
	}
	create.Flags().StringVar(&name, "name", "", "organization name")
	create.Flags().BoolVar(&newPassphrase, "new-passphrase", false, "also print a random passphrase for sealing the org's ballot text")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func (r *runner) membersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "members", Short: "Manage org members"}

	var orgID, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := r.app.AddMember(cmd.Context(), &models.User{OrgID: orgID, UserName: name})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	add.Flags().StringVar(&orgID, "org", "", "org id (empty for none)")
	add.Flags().StringVar(&name, "name", "", "unique user name")
	_ = add.MarkFlagRequired("name")

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Look a member up by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := r.app.Member(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}

	cmd.AddCommand(add, show)
	return cmd
}
