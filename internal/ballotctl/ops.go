package ballotctl

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (r *runner) officesCommand() *cobra.Command {
	var orgID, kind string

	cmd := &cobra.Command{
		Use:   "offices",
		Short: "Show which offices are open for a new election",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := r.app.Offices.Availability(cmd.Context(), orgID, now(), kind)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "org id")
	cmd.Flags().StringVar(&kind, "office", "", "limit the answer to one office kind")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func (r *runner) votesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "votes", Short: "Cast and inspect votes"}

	var userID string
	var candidateIDs []string
	cast := &cobra.Command{
		Use:   "cast <ballot-id>",
		Short: "Cast or replace a member's vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.app.Votes.Cast(cmd.Context(), args[0], userID, candidateIDs, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cast.Flags().StringVar(&userID, "user", "", "voter's user id")
	cast.Flags().StringSliceVar(&candidateIDs, "candidate", nil, "chosen candidate id (repeatable)")
	_ = cast.MarkFlagRequired("user")

	var voter string
	show := &cobra.Command{
		Use:   "show <ballot-id>",
		Short: "Show a member's current vote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := r.app.Votes.Get(cmd.Context(), args[0], voter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	show.Flags().StringVar(&voter, "user", "", "voter's user id")
	_ = show.MarkFlagRequired("user")

	cmd.AddCommand(cast, show)
	return cmd
}

func (r *runner) resultsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "results", Short: "Tally and archive results"}

	var winners bool
	show := &cobra.Command{
		Use:   "show <ballot-id>",
		Short: "Print the current tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := r.app.Votes.Results
			if winners {
				results = r.app.Votes.Winners
			}
			out, err := results(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	show.Flags().BoolVar(&winners, "winners", false, "only the candidates that win a seat")

	archive := &cobra.Command{
		Use:   "archive <ballot-id>",
		Short: "Publish the final tally of a closed ballot to the result bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := r.app.Results.Archive(cmd.Context(), args[0], now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.AddCommand(show, archive)
	return cmd
}

func (r *runner) termsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "terms", Short: "Accept and remove terms of office"}

	var userID string
	accept := &cobra.Command{
		Use:   "accept <ballot-id>",
		Short: "Accept the term won in an election",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.app.Terms.Accept(cmd.Context(), args[0], userID, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	accept.Flags().StringVar(&userID, "user", "", "winner's user id")
	_ = accept.MarkFlagRequired("user")

	del := &cobra.Command{
		Use:   "delete <term-id>",
		Short: "Remove a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Terms.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(accept, del)
	return cmd
}
