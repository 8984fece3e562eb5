package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasks/internal/config"
	"github.com/eleven-am/tasks/internal/logger"
	"github.com/eleven-am/tasks/pkg/version"
)

// rootOptions holds the persistent flags and the configuration they resolve to
type rootOptions struct {
	configFile  string
	databaseURL string
	debug       bool
	verbose     bool

	cfg *config.Config
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Tasks - user and task management API",
		Long: `Tasks serves a small JSON API for users and the tasks they own,
backed by PostgreSQL.

The connection string is read from DATABASE_URL, the database.url key of
tasks.yaml, or the --url flag, in increasing order of precedence.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: tasks.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newSchemaCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// load resolves the configuration and configures logging. Flags win over
// the environment, which wins over the file.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}

	if o.databaseURL != "" {
		cfg.Database.URL = o.databaseURL
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	switch {
	case o.debug:
		level = logger.LevelDebug
	case o.verbose && (level == logger.LevelWarn || level == logger.LevelError || level == logger.LevelSilent):
		level = logger.LevelInfo
	}
	cfg.Logging.Level = string(level)

	logger.Configure(logger.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})

	o.cfg = cfg
	return nil
}
