package ballotctl

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/ballot"
	"github.com/dmitrijs2005/orgvote/internal/office"
	"github.com/dmitrijs2005/orgvote/internal/server/models"
	"github.com/dmitrijs2005/orgvote/internal/server/services"
	"github.com/spf13/cobra"
)

type ballotView struct {
	ID                     string             `json:"id"`
	OrgID                  string             `json:"org_id"`
	UserID                 string             `json:"user_id"`
	Category               ballot.Category    `json:"category"`
	Question               string             `json:"question,omitempty"`
	Office                 *office.Office     `json:"office,omitempty"`
	MaxCandidateIDsPerVote int                `json:"max_candidate_ids_per_vote"`
	CreatedAt              time.Time          `json:"created_at"`
	NominationsEndAt       *time.Time         `json:"nominations_end_at,omitempty"`
	VotingEndsAt           time.Time          `json:"voting_ends_at"`
	TermStartsAt           *time.Time         `json:"term_starts_at,omitempty"`
	TermEndsAt             *time.Time         `json:"term_ends_at,omitempty"`
	Stage                  ballot.Stage       `json:"stage"`
	Candidates             []models.Candidate `json:"candidates"`
}

func newBallotView(b *ballot.Ballot, at time.Time) ballotView {
	return ballotView{
		ID:                     b.ID,
		OrgID:                  b.OrgID,
		UserID:                 b.UserID,
		Category:               b.Category,
		Office:                 b.Office,
		MaxCandidateIDsPerVote: b.MaxCandidateIDsPerVote,
		CreatedAt:              b.CreatedAt,
		NominationsEndAt:       b.NominationsEndAt,
		VotingEndsAt:           b.VotingEndsAt,
		TermStartsAt:           b.TermStartsAt,
		TermEndsAt:             b.TermEndsAt,
		Stage:                  b.Stage(at),
	}
}

type scheduleFlags struct {
	nominationsEnd string
	votingEnd      string
	termStart      string
	termEnd        string
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nominationsEnd, "nominations-end", "", "end of nominations (RFC 3339, elections)")
	cmd.Flags().StringVar(&f.votingEnd, "voting-end", "", "end of voting (RFC 3339)")
	cmd.Flags().StringVar(&f.termStart, "term-start", "", "start of the term (RFC 3339, elections)")
	cmd.Flags().StringVar(&f.termEnd, "term-end", "", "end of the term (RFC 3339, elections)")
}

func (f *scheduleFlags) schedule() (ballot.Schedule, error) {
	var (
		s   ballot.Schedule
		err error
	)
	if s.VotingEndsAt, err = parseTime("voting-end", f.votingEnd); err != nil {
		return s, err
	}
	if s.NominationsEndAt, err = optionalTime("nominations-end", f.nominationsEnd); err != nil {
		return s, err
	}
	if s.TermStartsAt, err = optionalTime("term-start", f.termStart); err != nil {
		return s, err
	}
	if s.TermEndsAt, err = optionalTime("term-end", f.termEnd); err != nil {
		return s, err
	}
	return s, nil
}

func (r *runner) ballotsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "ballots", Short: "Create, list and manage ballots"}
	cmd.AddCommand(
		r.ballotsCreateCommand(),
		r.ballotsListCommand(),
		r.ballotsShowCommand(),
		r.ballotsNominateCommand(),
		r.ballotsRescheduleCommand(),
		r.ballotsDeleteCommand(),
	)
	return cmd
}

func (r *runner) ballotsCreateCommand() *cobra.Command {
	var (
		orgID, userID, category, questionText, officeKind string
		maxChoices                                         float64
		options                                            []string
		sched                                              scheduleFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a ballot; the question is sealed with the org passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sched.schedule()
			if err != nil {
				return err
			}
			q, err := sealText(cmd.ErrOrStderr(), orgID, questionText)
			if err != nil {
				return err
			}

			p := services.CreateBallotParams{
				OrgID:            orgID,
				UserID:           userID,
				Category:         ballot.Category(category),
				Question:         q,
				Office:           officeKind,
				NominationsEndAt: s.NominationsEndAt,
				VotingEndsAt:     s.VotingEndsAt,
				TermStartsAt:     s.TermStartsAt,
				TermEndsAt:       s.TermEndsAt,
				Candidates:       options,
			}
			if cmd.Flags().Changed("max-choices") {
				p.MaxCandidateIDsPerVote = &maxChoices
			}

			id, err := r.app.Ballots.Create(cmd.Context(), p, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&orgID, "org", "", "org id")
	fs.StringVar(&userID, "user", "", "creator's user id")
	fs.StringVar(&category, "category", string(ballot.YesNo), "yes_no, multiple_choice or election")
	fs.StringVar(&questionText, "question", "", "question text")
	fs.StringVar(&officeKind, "office", "", "office kind (elections)")
	fs.Float64Var(&maxChoices, "max-choices", 1, "candidates a voter may choose")
	fs.StringSliceVar(&options, "option", nil, "option title (multiple_choice, repeatable)")
	sched.register(cmd)
	for _, name := range []string{"org", "user", "question", "voting-end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (r *runner) ballotsListCommand() *cobra.Command {
	var orgID, sortName, createdBefore, activeAt, inactiveAt string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ballot ids in active or inactive order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := listQuery(sortName, createdBefore, activeAt, inactiveAt)
			if err != nil {
				return err
			}
			ids, err := r.app.Ballots.List(cmd.Context(), orgID, q, now())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&orgID, "org", "", "org id")
	fs.StringVar(&sortName, "sort", "", "active or inactive; unset orders by active without filtering")
	fs.StringVar(&createdBefore, "created-before", "", "only ballots created at or before (RFC 3339)")
	fs.StringVar(&activeAt, "active-at", "", "only ballots still voting at (RFC 3339)")
	fs.StringVar(&inactiveAt, "inactive-at", "", "only ballots done voting at (RFC 3339)")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func listQuery(sortName, createdBefore, activeAt, inactiveAt string) (ballot.ListQuery, error) {
	var (
		q   ballot.ListQuery
		err error
	)
	if q.Sort, err = ballot.ParseSort(sortName); err != nil {
		return q, err
	}
	if q.CreatedAtOrBefore, err = optionalTime("created-before", createdBefore); err != nil {
		return q, err
	}
	if q.ActiveAt, err = optionalTime("active-at", activeAt); err != nil {
		return q, err
	}
	if q.InactiveAt, err = optionalTime("inactive-at", inactiveAt); err != nil {
		return q, err
	}
	return q, nil
}

func (r *runner) ballotsShowCommand() *cobra.Command {
	var decrypt bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a ballot, its stage and its candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := r.app.Ballots.Get(ctx, args[0])
			if err != nil {
				return err
			}
			v := newBallotView(b, now())
			if v.Candidates, err = r.app.Ballots.Candidates(ctx, b.ID); err != nil {
				return err
			}
			if decrypt {
				if v.Question, err = openText(cmd.ErrOrStderr(), b.OrgID, b.Question); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().BoolVar(&decrypt, "decrypt", false, "prompt for the org passphrase and show the question")
	return cmd
}

func (r *runner) ballotsNominateCommand() *cobra.Command {
	var userID, title string

	cmd := &cobra.Command{
		Use:   "nominate <ballot-id>",
		Short: "Nominate a member while an election accepts nominations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := r.app.Ballots.Nominate(cmd.Context(), args[0], userID, title, now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "nominee's user id")
	cmd.Flags().StringVar(&title, "title", "", "candidate title")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (r *runner) ballotsRescheduleCommand() *cobra.Command {
	var sched scheduleFlags

	cmd := &cobra.Command{
		Use:   "reschedule <id>",
		Short: "Replace a ballot's deadlines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sched.schedule()
			if err != nil {
				return err
			}
			return r.app.Ballots.Reschedule(cmd.Context(), args[0], s, now())
		},
	}
	sched.register(cmd)
	_ = cmd.MarkFlagRequired("voting-end")
	return cmd
}

func (r *runner) ballotsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a ballot with its candidates and votes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Ballots.Delete(cmd.Context(), args[0])
		},
	}
}
