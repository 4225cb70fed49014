package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/joacominatel/queryreport/internal/app"
	"github.com/joacominatel/queryreport/internal/catalog"
	"github.com/joacominatel/queryreport/internal/config"
	"github.com/joacominatel/queryreport/internal/theme"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalOptions struct {
	configPath string
	logLevel   string
}

type runOptions struct {
	dsn        string
	connection string
	catalog    string
	save       bool
}

func (o *runOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dsn, "dsn", "", "connection URL (e.g. mysql://root@127.0.0.1:3306/adilet_ds)")
	cmd.Flags().StringVarP(&o.connection, "connection", "c", "", "name of a saved connection profile")
	cmd.Flags().StringVar(&o.catalog, "catalog", "", "catalog YAML file (default: built-in catalog)")
	cmd.Flags().BoolVar(&o.save, "save", false, "save the --dsn connection as a profile and its password in the keyring")
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	ro := &runOptions{}

	root := &cobra.Command{
		Use:           "queryreport",
		Short:         "Run a catalog of SQL queries and print the results as text tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, g, ro)
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: ~/.queryreport/config.yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	ro.register(root)

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newCatalogCmd(g))
	root.AddCommand(newLoginCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd(g *globalOptions) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect and run every catalog query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, g, ro)
		},
	}
	ro.register(cmd)
	return cmd
}

func newCatalogCmd(g *globalOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the catalog entries without connecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Report.Catalog
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return &app.ErrConfig{Cause: err}
			}
			printCatalog(cmd.OutOrStdout(), cat)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "catalog YAML file (default: built-in catalog)")
	return cmd
}

func newLoginCmd(g *globalOptions) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "login <connection>",
		Short: "Store the password of a saved connection in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			conn, ok := cfg.Lookup(args[0])
			if !ok {
				return &app.ErrConfig{Cause: fmt.Errorf("%w: no profile named %q", config.ErrNoConnection, args[0])}
			}

			if remove {
				if err := config.DeletePassword(*conn); err != nil {
					return err
				}
				cmd.Printf("Removed stored password for %s\n", conn.Name)
				return nil
			}

			prompt := terminalPrompt()
			if prompt == nil {
				return errors.New("login needs an interactive terminal")
			}
			password, err := prompt(fmt.Sprintf("Password for %s: ", conn.DisplayString()))
			if err != nil {
				return err
			}
			if err := config.StorePassword(*conn, password); err != nil {
				return err
			}
			cmd.Printf("Stored password for %s\n", conn.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "delete", false, "remove the stored password instead")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}

func runReport(cmd *cobra.Command, g *globalOptions, ro *runOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	theme.Apply(cfg.Preferences.Theme)

	logger, err := newLogger(cmd.ErrOrStderr(), g.logLevel, cfg.Preferences.LogLevel)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	catPath := ro.catalog
	if catPath == "" {
		catPath = cfg.Report.Catalog
	}
	cat, err := catalog.Load(catPath)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	conn, err := config.Select(cfg, ro.dsn, ro.connection)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	driver, err := app.NewDriver(conn.Driver)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	if conn.Password == "" {
		password, err := config.ResolvePassword(conn, terminalPrompt())
		if err != nil {
			return &app.ErrConnection{Cause: err}
		}
		conn.Password = password
	}

	service := app.NewService(driver)
	logger.Debug("connecting", "connection", conn.Name, "driver", conn.Driver, "target", conn.DisplayString())
	if err := service.Connect(ctx, conn.DSN()); err != nil {
		return err
	}
	defer func() {
		if err := service.Disconnect(); err != nil {
			logger.Warn("disconnect failed", "err", err)
		}
	}()

	fmt.Fprintln(out, theme.StyleSuccess.Render(fmt.Sprintf("Connected to database '%s'", service.DatabaseName())))

	if ro.save && ro.dsn != "" {
		saveConnection(logger, g, cfg, conn)
	}

	reporter := app.NewReporter(service, out, logger, app.WithPreviewLength(cfg.Report.PreviewLength))
	sum := reporter.Run(ctx, cat)
	if err := ctx.Err(); err != nil {
		return err
	}
	if sum.Failed > 0 || sum.Skipped > 0 {
		return errReportFailed
	}
	return nil
}

func saveConnection(logger *log.Logger, g *globalOptions, cfg *config.Config, conn config.Connection) {
	password := conn.Password
	conn.Password = ""

	cfg.AddConnection(conn)
	if cfg.Preferences.DefaultConnection == "" {
		cfg.Preferences.DefaultConnection = conn.Name
	}
	if err := config.Save(cfg, g.configPath); err != nil {
		logger.Warn("could not save connection", "err", err)
		return
	}
	if err := config.StorePassword(conn, password); err != nil {
		logger.Warn("could not store password", "err", err)
	}
	logger.Info("connection saved", "name", conn.Name)
}

func loadConfig(g *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, &app.ErrConfig{Cause: err}
	}
	return cfg, nil
}

// newLogger builds the stderr logger. The flag level wins over the config.
func newLogger(w io.Writer, flagLevel, cfgLevel string) (*log.Logger, error) {
	level := flagLevel
	if level == "" {
		level = cfgLevel
	}
	if level == "" {
		level = "info"
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	return log.NewWithOptions(w, log.Options{
		Prefix:          "queryreport",
		ReportTimestamp: true,
		Level:           lvl,
	}), nil
}

// terminalPrompt returns a readline-backed password prompt, or nil when
// stdin is not a terminal.
func terminalPrompt() config.PasswordPrompt {
	if !readline.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return func(prompt string) (string, error) {
		rl, err := readline.NewEx(&readline.Config{
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return "", err
		}
		defer rl.Close()

		b, err := rl.ReadPassword(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	fmt.Fprintln(w, theme.StyleTitle.Render(cat.Title))
	if cat.Description != "" {
		fmt.Fprintln(w, theme.StyleMuted.Render(cat.Description))
	}
	for _, s := range cat.Sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, theme.StyleSection.Render(s.Title))
		for _, e := range s.Entries {
			fmt.Fprintf(w, "  %s (limit: %s)\n", e.Name, e.DisplayLimit())
		}
	}
	fmt.Fprintf(w, "\n%d queries\n", cat.Len())
}
