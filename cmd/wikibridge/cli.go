package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/celements/wikibridge/xwiki/config"
)

// CLI is the wikibridge command tree. Settings come from flags, WIKIBRIDGE_*
// environment variables and the configuration file, in that order.
type CLI struct {
	rootCmd *cobra.Command
	v       *viper.Viper
	logger  *slog.Logger
	closers []func() error
}

func NewCLI() *CLI {
	cli := &CLI{v: viper.New(), logger: slog.Default()}
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

// Execute runs the command line args.
func (cli *CLI) Execute(args []string) error {
	defer cli.close()
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.ExecuteContext(context.Background())
}

func (cli *CLI) close() {
	for i := len(cli.closers) - 1; i >= 0; i-- {
		_ = cli.closers[i]()
	}
	cli.closers = nil
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "wikibridge",
		Short: "Wiki references, document ids and a document store",
		Long: `wikibridge resolves and serializes wiki entity references, computes the
stable document ids used to persist them and manages a document store.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (WIKIBRIDGE_*, e.g. WIKIBRIDGE_DB, WIKIBRIDGE_MODEL_WIKI_DEFAULT)
3. Configuration file (--config, WIKIBRIDGE_CONFIG, ./wikibridge.yaml,
   ~/.wikibridge/wikibridge.yaml or /etc/wikibridge/wikibridge.yaml)

Examples:
  wikibridge resolve "Blog.Post" --type document
  wikibridge id xwiki:Main.WebHome --lang de
  wikibridge --db wiki.db doc save xwiki:Main.WebHome --title Home`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd)
		},
	}

	cli.rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
	flags := cli.rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file")
	flags.StringP("db", "d", "wikibridge.json", "Store path")
	flags.StringP("backend", "b", "", "Store backend (json|sqlite), guessed from the store path when empty")
	flags.StringP("format", "f", "table", "Output format (table|json|yaml)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.BoolP("verbose", "v", false, "Also log to stderr")
}

// normalizeFlagName accepts underscores in flag names, e.g. --log_level.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// setup reads the configuration and initializes logging once flags are parsed.
func (cli *CLI) setup(cmd *cobra.Command) error {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(configFile)
	if err != nil {
		return NewConfigError("read configuration", err.Error(),
			"Check the file passed with --config or WIKIBRIDGE_CONFIG")
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	cli.v = v

	switch format := v.GetString("format"); format {
	case "table", "json", "yaml":
	default:
		return NewConfigError("render output", fmt.Sprintf("unknown format %q", format),
			"Use --format table, json or yaml")
	}

	logger, closeLog, err := initLogging(v.GetString("log-level"), v.GetBool("verbose"))
	if err != nil {
		return err
	}
	cli.logger = logger.With("logger", "cli")
	cli.closers = append(cli.closers, closeLog)
	return nil
}

// model returns the model context of the loaded configuration.
func (cli *CLI) model() *config.ModelContext {
	return config.NewModelContext(config.NewViperSource(cli.v))
}

// app opens the store and wires the services around it.
func (cli *CLI) app() (*app, error) {
	a, err := newApp(cli.v, cli.logger)
	if err != nil {
		return nil, err
	}
	cli.closers = append(cli.closers, a.Close)
	return a, nil
}

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.detectCommand(),
		cli.resolveCommand(),
		cli.idCommand(),
		cli.docCommand(),
		cli.wikiCommand(),
		cli.migrateCommand(),
		cli.validateCommand(),
		cli.relayCommand(),
	)
}
