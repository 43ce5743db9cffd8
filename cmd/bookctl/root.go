package main

import (
	"encoding/json"
	"io"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/di"
	"github.com/bookster/catalog-server/internal/logger"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
	dataPath   string
	offline    bool
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "Catalog maintenance tool",
		Long: `bookctl searches, inspects and reindexes a catalog data directory,
and mints access tokens for local development.

Configuration is read the same way as the server: flags, environment,
.env file, then the YAML file named by --config or CONFIG_FILE.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Path to .env file")
	flags.StringVar(&opts.dataPath, "data-path", "", "Base path for catalog data")
	flags.BoolVar(&opts.offline, "offline", false, "Disable OpenLibrary lookups")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newSearchCmd(opts),
		newGetCmd(opts),
		newReindexCmd(opts),
		newTokenCmd(opts),
	)

	return cmd
}

// configArgs translates the persistent flags into config.Load arguments.
func (o *rootOptions) configArgs() []string {
	args := []string{"-env-file", o.envFile, "-log-level", o.logLevel}
	if o.configFile != "" {
		args = append(args, "-config", o.configFile)
	}
	if o.dataPath != "" {
		args = append(args, "-data-path", o.dataPath)
	}
	if o.offline {
		args = append(args, "-openlibrary-enabled", "false")
	}
	return args
}

// newInjector loads the config and builds a container that logs to stderr.
// The HTTP server provider is registered but never invoked.
func (o *rootOptions) newInjector(cmd *cobra.Command) (*do.RootScope, error) {
	cfg, err := config.Load(o.configArgs())
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		Environment: cfg.App.Environment,
	})

	return di.NewContainerWithConfig(cfg, log), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
