package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
	"github.com/tartampluch/chronos-ics/internal/server"
	"github.com/tartampluch/chronos-ics/internal/worker"
)

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar over HTTP and regenerate it on a schedule",
		Long: "Regenerates the calendar immediately and then on every tick of --refresh,\n" +
			"serving the last good document on http://127.0.0.1:<port>/.\n" +
			"A failed regeneration keeps the previous calendar online.",
		Args: cobra.NoArgs,
		RunE: c.runServe,
	}
	cmd.Flags().StringVar(&c.flags.Port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	cmd.Flags().StringVar(&c.flags.Refresh, config.FlagRefresh, config.DefaultRefresh, config.FlagDescRefresh)
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	opts := c.opts

	if err := worker.ValidateSchedule(opts.Refresh); err != nil {
		return Wrap(config.ExitCodeUsage, err)
	}
	if err := engine.ValidatePolicy(opts.Inverted); err != nil {
		return Wrap(config.ExitCodeUsage, err)
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return Wrap(config.ExitCodeUsage, fmt.Errorf("%w: %q: %w", engine.ErrUnknownTimezone, opts.Timezone, err))
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	srv := server.NewCalendarServer(opts.Port, c.log)
	refresher := &worker.Refresher{
		Generator: c.newConverter(cmd),
		Publisher: srv,
		Source:    c.source(),
		Schedule:  opts.Refresh,
		Location:  loc,
		Clock:     c.clock,
		Output:    opts.Output,
		Logger:    c.log,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverDone := make(chan error, config.ChannelBufferSize)
	workerDone := make(chan error, config.ChannelBufferSize)

	go func() { serverDone <- srv.Start(runCtx) }()
	go func() { workerDone <- refresher.Run(runCtx) }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), c.tr.T(config.TKeyServeStarted, map[string]any{
		"URL":      "http://" + srv.Addr() + config.RouteRoot,
		"Schedule": opts.Refresh,
	}))

	// Whichever side stops first takes the other one down.
	var serverErr, workerErr error
	select {
	case serverErr = <-serverDone:
		cancel()
		workerErr = <-workerDone
	case workerErr = <-workerDone:
		cancel()
		serverErr = <-serverDone
	}

	c.log.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)

	if serverErr != nil {
		return Wrap(config.ExitCodeError, serverErr)
	}
	return Wrap(config.ExitCodeError, workerErr)
}
