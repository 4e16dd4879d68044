package app

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tartampluch/chronos-ics/internal/config"
	"github.com/tartampluch/chronos-ics/internal/engine"
)

// Options is the fully resolved configuration of one invocation.
type Options struct {
	Debug      bool
	ConfigPath string
	LogFile    string

	Lang      string
	Timezone  string
	Input     string
	Output    string
	ProdID    string
	UIDDomain string
	Inverted  string
	Print     bool
	WebUser   string

	Port    string
	Refresh string
}

// defaultOptions mirrors config.DefaultFileConfig.
func defaultOptions() Options {
	var o Options
	applyFileConfig(&o, config.DefaultFileConfig())
	return o
}

// resolveOptions layers defaults, then the config file, then CHRONOS_* variables,
// then explicitly set flags.
func resolveOptions(cmd *cobra.Command, fromFlags *Options, getenv func(string) string) (Options, error) {
	resolved := defaultOptions()
	resolved.Debug = fromFlags.Debug
	resolved.LogFile = fromFlags.LogFile

	if flagValueChanged(cmd, config.FlagConfig) && fromFlags.ConfigPath != "" {
		fc, err := config.LoadFile(fromFlags.ConfigPath)
		if err != nil {
			return resolved, err
		}
		applyFileConfig(&resolved, fc)
		resolved.ConfigPath = fromFlags.ConfigPath
	}

	applyEnv(&resolved, getenv)
	applyFlags(cmd, &resolved, fromFlags)

	resolved.Inverted = strings.ToLower(strings.TrimSpace(resolved.Inverted))
	return resolved, nil
}

func applyFileConfig(dst *Options, fc *config.FileConfig) {
	dst.Timezone = fc.Timezone
	dst.Input = fc.Input
	dst.Output = fc.Output
	dst.ProdID = fc.ProdID
	dst.UIDDomain = fc.UIDDomain
	dst.Inverted = fc.Inverted
	dst.Lang = fc.Lang
	dst.Print = fc.Print
	dst.WebUser = fc.WebUser
	dst.Port = fc.Serve.Port
	dst.Refresh = fc.Serve.Refresh
}

func applyEnv(dst *Options, getenv func(string) string) {
	if v := getenv(config.EnvTimezone); v != "" {
		dst.Timezone = v
	}
	if v := getenv(config.EnvInput); v != "" {
		dst.Input = v
	}
	if v := getenv(config.EnvOutput); v != "" {
		dst.Output = v
	}
	if v := getenv(config.EnvLang); v != "" {
		dst.Lang = v
	}
	if v := getenv(config.EnvWebUser); v != "" {
		dst.WebUser = v
	}
	if v := getenv(config.EnvInverted); v != "" {
		dst.Inverted = v
	}
	if v := getenv(config.EnvPrint); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dst.Print = b
		}
	}
}

func applyFlags(cmd *cobra.Command, dst, fromFlags *Options) {
	copyIfChanged(cmd, config.FlagLang, func() { dst.Lang = fromFlags.Lang })
	copyIfChanged(cmd, config.FlagTimezone, func() { dst.Timezone = fromFlags.Timezone })
	copyIfChanged(cmd, config.FlagInput, func() { dst.Input = fromFlags.Input })
	copyIfChanged(cmd, config.FlagOutput, func() { dst.Output = fromFlags.Output })
	copyIfChanged(cmd, config.FlagProdID, func() { dst.ProdID = fromFlags.ProdID })
	copyIfChanged(cmd, config.FlagDomain, func() { dst.UIDDomain = fromFlags.UIDDomain })
	copyIfChanged(cmd, config.FlagInverted, func() { dst.Inverted = fromFlags.Inverted })
	copyIfChanged(cmd, config.FlagPrint, func() { dst.Print = fromFlags.Print })
	copyIfChanged(cmd, config.FlagWebUser, func() { dst.WebUser = fromFlags.WebUser })
	copyIfChanged(cmd, config.FlagPort, func() { dst.Port = fromFlags.Port })
	copyIfChanged(cmd, config.FlagRefresh, func() { dst.Refresh = fromFlags.Refresh })
}

func copyIfChanged(cmd *cobra.Command, name string, fn func()) {
	if flagValueChanged(cmd, name) {
		fn()
	}
}

func flagValueChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// engineOptions extracts the converter settings.
func (o Options) engineOptions() engine.Options {
	return engine.Options{
		Timezone:  o.Timezone,
		ProdID:    o.ProdID,
		UIDDomain: o.UIDDomain,
		Inverted:  o.Inverted,
	}
}

// logValue renders the effective configuration for the startup log. The
// password never appears here.
func (o Options) logValue() slog.Value {
	return slog.GroupValue(
		slog.String(config.FlagTimezone, o.Timezone),
		slog.String(config.FlagInput, engine.RedactSource(o.Input)),
		slog.String(config.FlagOutput, o.Output),
		slog.String(config.FlagInverted, o.Inverted),
		slog.String(config.FlagLang, o.Lang),
		slog.Bool(config.FlagPrint, o.Print),
		slog.String(config.FlagConfig, o.ConfigPath),
	)
}
