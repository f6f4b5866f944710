package ballotctl

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/orgvote/internal/logging"
	"github.com/dmitrijs2005/orgvote/internal/server"
	"github.com/dmitrijs2005/orgvote/internal/server/config"
	"github.com/spf13/cobra"
)

const programName = "ballotctl"

// newApp is a seam for tests.
var newApp = server.NewApp

// now is the clock every command evaluates its rules against.
var now = func() time.Time { return time.Now().UTC() }

type globalFlags struct {
	configFile string
	envFile    string
	dsn        string
	logLevel   string
	logFile    string
}

type runner struct {
	flags globalFlags
	cfg   *config.Config
	app   *server.App
}

// loadConfig layers the global flags over config.Load.
func (r *runner) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: r.flags.configFile, EnvFile: r.flags.envFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("dsn") {
		cfg.DatabaseDSN = r.flags.dsn
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = r.flags.logLevel
	}
	if fs.Changed("log-file") {
		cfg.LogFile = r.flags.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// needsApp is false for the commands cobra adds itself.
func needsApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func (r *runner) open(cmd *cobra.Command, _ []string) error {
	if !needsApp(cmd) {
		return nil
	}
	cmd.SetContext(logging.WithFields(cmd.Context(), "command", cmd.CommandPath()))
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	r.cfg, r.app = cfg, app
	return nil
}

func (r *runner) close(cmd *cobra.Command, _ []string) error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// NewRootCommand builds the ballotctl command tree.
func NewRootCommand() *cobra.Command {
	r := &runner{}

	root := &cobra.Command{
		Use:                programName,
		Short:              "Operate orgvote ballots, elections and terms",
		SilenceUsage:       true,
		PersistentPreRunE:  r.open,
		PersistentPostRunE: r.close,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.configFile, "config", "", "path to a JSON or YAML config file")
	pf.StringVar(&r.flags.envFile, "env-file", "", "path to a dotenv file (default .env when present)")
	pf.StringVar(&r.flags.dsn, "dsn", "", "PostgreSQL connection string")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&r.flags.logFile, "log-file", "", "write logs to this rotated file instead of stdout")

	root.AddCommand(
		r.migrateCommand(),
		r.orgsCommand(),
		r.membersCommand(),
		r.ballotsCommand(),
		r.officesCommand(),
		r.votesCommand(),
		r.resultsCommand(),
		r.termsCommand(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (r *runner) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
