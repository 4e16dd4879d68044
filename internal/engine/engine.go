package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/chronos-ics/internal/config"
)

// maxLineSize bounds a single appointment line.
const maxLineSize = 1024 * 1024

// Options are the per-run conversion settings.
type Options struct {
	Timezone  string // IANA zone applied to every appointment
	ProdID    string
	UIDDomain string
	Inverted  string // config.InvertedPass, config.InvertedReject or config.InvertedSwap
}

// SourceConfig describes where the appointment list comes from.
type SourceConfig struct {
	Input   string // local path, config.StdStream, or http(s) URL
	WebUser string // HTTP Basic Auth Username
	WebPass string // HTTP Basic Auth Password
}

// Result is the outcome of a successful conversion.
type Result struct {
	ICS    []byte
	Events []CalendarEvent
	Stats  Stats
	RunID  string
}

// Converter is the calendar builder: it reads appointment lines, runs them
// through the Parser, Normalizer and Assembler, and serializes the result.
type Converter struct {
	Clock   Clock       // Interface for time mocking.
	Fetcher TextFetcher // Interface for network abstraction.
	Stdin   io.Reader   // Used when Input is config.StdStream; os.Stdin when nil.
	Logger  *slog.Logger

	// NewRunID returns the per-run nonce embedded in every UID.
	NewRunID func() string

	Options Options
}

// Convert acquires the input, builds the document and encodes it.
//
// ErrInputNotFound / ErrInputRead abort the run; ErrNoEvents means every line
// was dropped. In every error case no calendar bytes are returned.
func (c *Converter) Convert(ctx context.Context, src SourceConfig) (*Result, error) {
	start := time.Now()
	log := logger(c.Logger).With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeySource, RedactSource(src.Input),
	)

	// Configuration errors surface before the input is touched.
	if err := ValidatePolicy(c.Options.Inverted); err != nil {
		return nil, err
	}
	if _, err := NewNormalizer(c.Options.Timezone, c.Logger); err != nil {
		return nil, err
	}

	log.InfoContext(ctx, config.MsgReadingInput)

	reader, err := c.acquireStream(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrInputNotFound) {
			log.Error(config.MsgInputMissing, config.LogKeyError, err)
		} else {
			log.Error(config.MsgInputFailed, config.LogKeyError, err)
		}
		return nil, err
	}
	// Best effort close. Errors in Close() for read-only handles are rarely actionable here.
	defer func() { _ = reader.Close() }()

	doc, stats, runID, err := c.build(ctx, reader)
	if err != nil {
		return nil, err
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	log.Debug(config.MsgGenSuccess,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
		config.LogKeySizeBytes, len(data),
	)
	return &Result{ICS: data, Events: doc.Events, Stats: stats, RunID: runID}, nil
}

// Build runs the pipeline over r and returns the populated document.
// It returns ErrNoEvents (and a nil document) when no line survived.
func (c *Converter) Build(ctx context.Context, r io.Reader) (*Document, Stats, error) {
	if err := ValidatePolicy(c.Options.Inverted); err != nil {
		return nil, Stats{}, err
	}
	doc, stats, _, err := c.build(ctx, r)
	return doc, stats, err
}

func (c *Converter) build(ctx context.Context, r io.Reader) (*Document, Stats, string, error) {
	var stats Stats
	if err := ctx.Err(); err != nil {
		return nil, stats, "", err
	}

	normalizer, err := NewNormalizer(c.Options.Timezone, c.Logger)
	if err != nil {
		return nil, stats, "", err
	}

	runID := c.runID()
	log := logger(c.Logger).With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyRunID, runID,
	)

	parser := NewParser(c.Logger)
	assembler := &Assembler{
		Clock:  c.clock(),
		RunID:  runID,
		Domain: c.Options.UIDDomain,
		Policy: c.Options.Inverted,
		Logger: c.Logger,
	}
	doc := NewDocument(c.Options.ProdID)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, stats, runID, err
		}

		stats.Lines++
		line := scanner.Text()
		log.Debug(config.MsgProcessingLine,
			config.LogKeyLineNum, stats.Lines,
			config.LogKeyLine, strings.TrimSpace(line),
		)

		if strings.TrimSpace(strings.TrimPrefix(line, "\ufeff")) == "" {
			stats.Blank++
			log.Debug(config.MsgSkippedBlank, config.LogKeyLineNum, stats.Lines)
			continue
		}

		appt, err := parser.Parse(line)
		if err != nil {
			stats.SkippedParse++
			continue
		}
		stats.Parsed++

		// Both bounds share the appointment date; ranges never cross midnight.
		startAt, startErr := normalizer.Normalize(appt.DateText, appt.StartText)
		endAt, endErr := normalizer.Normalize(appt.DateText, appt.EndText)
		if startErr != nil || endErr != nil {
			stats.SkippedDateTime++
			log.Warn(config.MsgSkippedEvent,
				config.LogKeyLineNum, stats.Lines,
				config.LogKeySummary, appt.Summary,
				config.LogKeyDate, appt.DateText,
				config.LogKeyStart, appt.StartText,
				config.LogKeyEnd, appt.EndText,
			)
			continue
		}

		if endAt.Before(startAt) {
			stats.Inverted++
		}

		ev, err := assembler.Assemble(appt, startAt, endAt)
		if err != nil {
			stats.Rejected++
			continue
		}
		doc.Append(ev)
	}

	if err := scanner.Err(); err != nil {
		log.Error(config.MsgInputFailed, config.LogKeyError, err)
		return nil, stats, runID, fmt.Errorf("%w: %w", ErrInputRead, err)
	}

	stats.Events = assembler.Count()
	c.logStats(log, stats)

	if stats.Events == 0 {
		log.Warn(config.MsgNoEvents)
		return nil, stats, runID, ErrNoEvents
	}
	return doc, stats, runID, nil
}

// acquireStream opens the appropriate data source based on the input string.
func (c *Converter) acquireStream(ctx context.Context, src SourceConfig) (io.ReadCloser, error) {
	input := strings.TrimSpace(src.Input)

	switch {
	case input == config.StdStream:
		if c.Stdin != nil {
			return io.NopCloser(c.Stdin), nil
		}
		return io.NopCloser(os.Stdin), nil

	case isRemote(input):
		if c.Fetcher == nil {
			return nil, fmt.Errorf("%w: %s", ErrInputRead, config.ErrFetcherMissing)
		}
		rc, err := c.Fetcher.Fetch(ctx, input, src.WebUser, src.WebPass)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInputRead, err)
		}
		return rc, nil

	default:
		f, err := os.Open(input)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %q: %w", ErrInputNotFound, input, err)
			}
			return nil, fmt.Errorf("%w: %q: %w", ErrInputRead, input, err)
		}
		return f, nil
	}
}

// logStats logs the final statistics of the generation process.
func (c *Converter) logStats(log *slog.Logger, stats Stats) {
	log.Info(config.MsgGenSuccess,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyLines, stats.Lines),
			slog.Int(config.LogKeyBlank, stats.Blank),
			slog.Int(config.LogKeyParsed, stats.Parsed),
			slog.Int(config.LogKeyBadLines, stats.SkippedParse),
			slog.Int(config.LogKeyBadTimes, stats.SkippedDateTime),
			slog.Int(config.LogKeyInverted, stats.Inverted),
			slog.Int(config.LogKeyRejected, stats.Rejected),
			slog.Int(config.LogKeyEvents, stats.Events),
		),
	)
}

func (c *Converter) clock() Clock {
	if c.Clock == nil {
		return RealClock{}
	}
	return c.Clock
}

func (c *Converter) runID() string {
	if c.NewRunID != nil {
		return c.NewRunID()
	}
	return uuid.NewString()
}

// isRemote reports whether input names an http(s) resource.
func isRemote(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return u.Scheme == config.SchemeHTTP || u.Scheme == config.SchemeHTTPS
}

// RedactSource strips query strings and credentials from URLs before they are logged.
func RedactSource(input string) string {
	if !isRemote(input) {
		return input
	}
	u, _ := url.Parse(input)
	return u.Scheme + "://" + u.Host + u.Path
}
