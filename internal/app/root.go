// Package app wires the command line interface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/credentials"
	"github.com/tartampluch/chronos-ics/internal/engine"
	"github.com/tartampluch/chronos-ics/internal/i18n"
)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	flags Options // bound to cobra flags
	opts  Options // resolved in PersistentPreRunE

	log       *slog.Logger
	logPath   string
	logCloser io.Closer
	tr        *i18n.Translator

	getenv     func(string) string
	lookupPass func(user string) string
	savePass   func(user, password string) error
	deletePass func(user string) error
	fetcher    engine.TextFetcher
	clock      engine.Clock
	newRunID   func() string
}

func newCLI() *cli {
	return &cli{
		getenv:     os.Getenv,
		lookupPass: credentials.Lookup,
		savePass:   credentials.Save,
		deletePass: credentials.Delete,
		clock:      engine.RealClock{},
	}
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	c := newCLI()
	cmd := c.rootCommand()
	err := cmd.Execute()
	if err != nil {
		c.renderTopLevelError(cmd, err)
	}
	c.closeLog()
	return ExitCode(err)
}

// NewRootCommand returns the root command with production dependencies.
func NewRootCommand() *cobra.Command {
	return newCLI().rootCommand()
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppCommand,
		Short: "Convert a plain-text appointment list into an iCalendar file",
		Long: "Reads one appointment per line, formatted as\n" +
			"  <summary>, <Month> <Day>[st|nd|rd|th], <Year>, <H:MM AM|PM> - <H:MM AM|PM>\n" +
			"and writes a standard .ics calendar. Running without a subcommand converts.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           config.Version,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.setup,
		RunE:              c.runConvert,
	}
	root.SetVersionTemplate(config.AppCommand + " {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return Wrap(config.ExitCodeUsage, err)
	})

	pf := root.PersistentFlags()
	pf.BoolVar(&c.flags.Debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&c.flags.ConfigPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.StringVar(&c.flags.LogFile, config.FlagLogFile, "", config.FlagDescLogFile)
	pf.StringVar(&c.flags.Lang, config.FlagLang, config.DefaultLanguage, config.FlagDescLang)
	pf.StringVar(&c.flags.Timezone, config.FlagTimezone, config.DefaultTimezone, config.FlagDescTimezone)
	pf.StringVarP(&c.flags.Input, config.FlagInput, "i", config.DefaultInputFile, config.FlagDescInput)
	pf.StringVarP(&c.flags.Output, config.FlagOutput, "o", config.DefaultOutputFile, config.FlagDescOutput)
	pf.StringVar(&c.flags.ProdID, config.FlagProdID, config.ICalProdid, config.FlagDescProdID)
	pf.StringVar(&c.flags.UIDDomain, config.FlagDomain, config.DefaultUIDDomain, config.FlagDescDomain)
	pf.StringVar(&c.flags.Inverted, config.FlagInverted, config.InvertedPass, config.FlagDescInverted)
	pf.StringVar(&c.flags.WebUser, config.FlagWebUser, "", config.FlagDescWebUser)
	pf.BoolVarP(&c.flags.Print, config.FlagPrint, "p", false, config.FlagDescPrint)

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.credentialsCommand())
	root.AddCommand(versionCommand())

	return root
}

// setup resolves the options and starts logging before any command body runs.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	opts, err := resolveOptions(cmd, &c.flags, c.getenv)
	if err != nil {
		return Wrap(config.ExitCodeUsage, err)
	}
	c.opts = opts

	c.logPath = opts.LogFile
	if !flagValueChanged(cmd, config.FlagLogFile) {
		if p, err := defaultLogPath(); err == nil {
			c.logPath = p
		} else {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), config.MsgLogWarning, config.ErrLogFile, config.LogFileName, err)
		}
	}

	c.log, c.logCloser = setupLogging(opts.Debug, c.logPath, cmd.ErrOrStderr())
	c.tr = i18n.New(opts.Lang)
	if c.fetcher == nil {
		c.fetcher = engine.NewHTTPFetcher(c.log)
	}

	logStartupInfo(c.log, opts)
	if opts.ConfigPath != "" {
		c.log.Info(config.MsgConfigLoaded,
			config.LogKeyComponent, config.CompConfig,
			config.LogKeyPath, opts.ConfigPath,
		)
	}
	return nil
}

// logger is the run's logger; before setup (usage errors) it is the default.
func (c *cli) logger() *slog.Logger {
	if c.log == nil {
		return slog.Default()
	}
	return c.log
}

func (c *cli) closeLog() {
	if c.logCloser != nil {
		_ = c.logCloser.Close() // Best effort close
		c.logCloser = nil
	}
}

// logDisplayPath is the log location quoted in user messages.
func (c *cli) logDisplayPath() string {
	if c.logPath == "" {
		return config.LogFileName
	}
	return c.logPath
}

// signalContext cancels on SIGINT (Ctrl+C) or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// The root pre-run would open the log file; version needs none of it.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), config.MsgVersionOutput,
				config.AppName,
				config.Version,
				config.Commit,
				config.Date,
				runtime.GOOS,
				runtime.GOARCH,
			)
			return err
		},
	}
}

func (c *cli) renderTopLevelError(cmd *cobra.Command, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	c.logger().Error(config.ErrAppFailed,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyError, err,
	)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}
