package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
)

func (c *cli) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Convert the appointment list once and write the calendar",
		Args:  cobra.NoArgs,
		RunE:  c.runConvert,
	}
}

// messageWriter is where user-facing lines go. Stdout carries the calendar
// itself when the output is "-", so messages move to stderr.
func (c *cli) messageWriter(cmd *cobra.Command) io.Writer {
	if c.opts.Output == config.StdStream {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func (c *cli) newConverter(cmd *cobra.Command) *engine.Converter {
	return &engine.Converter{
		Clock:    c.clock,
		Fetcher:  c.fetcher,
		Stdin:    cmd.InOrStdin(),
		Logger:   c.log,
		NewRunID: c.newRunID,
		Options:  c.opts.engineOptions(),
	}
}

func (c *cli) source() engine.SourceConfig {
	src := engine.SourceConfig{
		Input:   c.opts.Input,
		WebUser: c.opts.WebUser,
	}
	if c.lookupPass != nil {
		src.WebPass = c.lookupPass(c.opts.WebUser)
	}
	return src
}

func (c *cli) runConvert(cmd *cobra.Command, _ []string) error {
	opts := c.opts
	if opts.Print && opts.Output == config.StdStream {
		return Wrap(config.ExitCodeUsage, errors.New(config.ErrPrintToStdout))
	}

	msg := c.messageWriter(cmd)
	logData := map[string]any{"LogPath": c.logDisplayPath()}

	res, err := c.newConverter(cmd).Convert(cmd.Context(), c.source())
	if err != nil {
		code := conversionExitCode(err)
		switch code {
		case config.ExitCodeUsage:
			return Wrap(code, err)
		case config.ExitCodeInputAbsent:
			// Nothing was attempted, so there is no run to summarize.
			_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyInputMissing, map[string]any{
				"Path": engine.RedactSource(opts.Input),
			}))
			return WrapPrinted(code, err)
		case config.ExitCodeNoEvents:
			_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyNoEvents, logData))
		default:
			_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyConvertFailed, logData))
		}
		_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyRunCompleted, logData))
		return WrapPrinted(code, err)
	}

	if err := c.emit(cmd, msg, res); err != nil {
		_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyWriteFailed, map[string]any{"Error": err}))
		_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyRunCompleted, logData))
		return WrapPrinted(config.ExitCodeOutputWrite, err)
	}

	_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyRunCompleted, logData))
	return nil
}

// emit writes the calendar to its destination and reports it.
func (c *cli) emit(cmd *cobra.Command, msg io.Writer, res *engine.Result) error {
	opts := c.opts

	if opts.Output == config.StdStream {
		if _, err := cmd.OutOrStdout().Write(res.ICS); err != nil {
			return fmt.Errorf("%w: %w", engine.ErrOutputWrite, err)
		}
		return nil
	}

	if err := engine.WriteCalendar(opts.Output, res.ICS); err != nil {
		c.log.Error(config.MsgWriteFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyFile, opts.Output,
			config.LogKeyError, err,
		)
		return err
	}

	c.log.Info(config.MsgFileWritten,
		config.LogKeyComponent, config.CompMain,
		config.LogKeyFile, opts.Output,
		config.LogKeyEvents, len(res.Events),
		config.LogKeySizeBytes, len(res.ICS),
		config.LogKeyRunID, res.RunID,
	)
	_, _ = fmt.Fprintln(msg, c.tr.T(config.TKeyFileCreated, map[string]any{
		"Path":  opts.Output,
		"Count": len(res.Events),
		"Size":  humanize.Bytes(uint64(len(res.ICS))),
	}))

	if opts.Print {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, c.tr.T(config.TKeyPrintHeader, nil))
		_, _ = out.Write(res.ICS)
		_, _ = fmt.Fprintln(out, c.tr.T(config.TKeyPrintFooter, nil))
	}
	return nil
}
