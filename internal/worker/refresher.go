// Package worker regenerates the served calendar on a cron schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
)

// Generator produces a calendar from a source. *engine.Converter satisfies it.
type Generator interface {
	Convert(ctx context.Context, src engine.SourceConfig) (*engine.Result, error)
}

// Publisher receives every successfully generated calendar. *server.CalendarServer satisfies it.
type Publisher interface {
	Update(data []byte, events int, generatedAt time.Time)
}

// Refresher runs the Generator on Schedule and hands results to the Publisher.
// A failed run publishes nothing, so the previous calendar stays live.
type Refresher struct {
	Generator Generator
	Publisher Publisher
	Source    engine.SourceConfig
	Schedule  string
	Location  *time.Location
	Clock     engine.Clock

	// Output, when set to a path, also receives each generated calendar.
	Output string

	Logger *slog.Logger // slog.Default() when nil

	mu sync.Mutex
}

// ValidateSchedule checks a standard 5-field cron spec or descriptor (@hourly, @every 5m).
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%s: %q: %w", config.ErrRefreshSchedule, spec, err)
	}
	return nil
}

// RefreshOnce runs one regeneration. Concurrent calls are serialized.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	log := r.log()

	res, err := r.Generator.Convert(ctx, r.Source)
	if err != nil {
		log.Warn(config.MsgRefreshFailed, config.LogKeyError, err)
		return err
	}

	if r.Output != "" && r.Output != config.StdStream {
		if err := engine.WriteCalendar(r.Output, res.ICS); err != nil {
			log.Error(config.MsgWriteFailed,
				config.LogKeyPath, r.Output,
				config.LogKeyError, err,
			)
			// The generated calendar is still valid; publish it anyway.
		}
	}

	r.Publisher.Update(res.ICS, len(res.Events), r.now())

	log.Info(config.MsgRefreshDone,
		config.LogKeyEvents, len(res.Events),
		config.LogKeyRunID, res.RunID,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return nil
}

// Run refreshes immediately, then on every tick of Schedule, until ctx is cancelled.
// Ticks that fire while a refresh is still running are skipped.
func (r *Refresher) Run(ctx context.Context) error {
	if r.Generator == nil || r.Publisher == nil {
		return errors.New(config.ErrWorkerIncomplete)
	}
	if err := ValidateSchedule(r.Schedule); err != nil {
		return err
	}

	loc := r.Location
	if loc == nil {
		loc = time.Local
	}

	log := r.log()
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(r.Schedule, func() { _ = r.RefreshOnce(ctx) }); err != nil {
		return fmt.Errorf("%s: %w", config.ErrRefreshSchedule, err)
	}

	// A failed first run leaves the server answering 503 until the next tick.
	_ = r.RefreshOnce(ctx)

	c.Start()
	log.Info(config.MsgWorkerStart, config.LogKeySchedule, r.Schedule)

	<-ctx.Done()
	log.Info(config.MsgWorkerStop)

	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

func (r *Refresher) log() *slog.Logger {
	l := r.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With(config.LogKeyComponent, config.CompWorker)
}

func (r *Refresher) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock.Now()
}
