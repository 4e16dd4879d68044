package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tartampluch/chronos-ics/internal/config"
)

// setupLogging builds the run's logger and also installs it as the slog
// default for packages without an injection point (i18n, credentials).
//
// Records go to the log file, truncated on every start. Stderr mirrors them
// in debug mode, or when the file cannot be opened. An empty logPath disables
// the file. The returned Closer is nil when no file was opened.
func setupLogging(debugMode bool, logPath string, stderr io.Writer) (*slog.Logger, io.Closer) {
	var writers []io.Writer
	var logFile *os.File

	if logPath != "" {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			_, _ = fmt.Fprintf(stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	if debugMode || logFile == nil {
		writers = append(writers, stderr)
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return logger, nil
	}
	return logger, logFile
}

// defaultLogPath determines the platform-specific cache directory for logs.
func defaultLogPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)

	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo(log *slog.Logger, opts Options) {
	log.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
	log.Debug(config.MsgEffectiveConf,
		config.LogKeyComponent, config.CompConfig,
		slog.Attr{Key: config.LogKeyConfig, Value: opts.logValue()},
	)
}
