package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ServeConfig holds the settings of the serve command.
type ServeConfig struct {
	// Port is the local HTTP port the calendar is served on.
	Port string `yaml:"port" toml:"port"`
	// Refresh is a cron-style schedule (e.g. "*/15 * * * *") used to regenerate the calendar.
	Refresh string `yaml:"refresh" toml:"refresh"`
}

// FileConfig is the on-disk configuration model. Every field is optional;
// Normalize fills in what the file leaves out.
type FileConfig struct {
	// Timezone is the IANA zone applied uniformly to every appointment.
	Timezone string `yaml:"timezone" toml:"timezone"`
	// Input is a local path, "-" for stdin, or an http(s) URL.
	Input string `yaml:"input" toml:"input"`
	// Output is the calendar path, "-" for stdout.
	Output    string `yaml:"output" toml:"output"`
	ProdID    string `yaml:"prodid" toml:"prodid"`
	UIDDomain string `yaml:"uid_domain" toml:"uid_domain"`
	// Inverted is the policy for appointments ending before they start.
	Inverted string `yaml:"inverted" toml:"inverted"`
	Lang     string `yaml:"lang" toml:"lang"`
	Print    bool   `yaml:"print" toml:"print"`
	WebUser  string `yaml:"web_user" toml:"web_user"`

	Serve ServeConfig `yaml:"serve" toml:"serve"`
}

// DefaultFileConfig returns the configuration used when no file is given.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Timezone:  DefaultTimezone,
		Input:     DefaultInputFile,
		Output:    DefaultOutputFile,
		ProdID:    ICalProdid,
		UIDDomain: DefaultUIDDomain,
		Inverted:  InvertedPass,
		Lang:      DefaultLanguage,
		Serve: ServeConfig{
			Port:    DefaultPort,
			Refresh: DefaultRefresh,
		},
	}
}

// Normalize fills in missing values with defaults so that partial files still behave.
func (c *FileConfig) Normalize() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Input == "" {
		c.Input = DefaultInputFile
	}
	if c.Output == "" {
		c.Output = DefaultOutputFile
	}
	if c.ProdID == "" {
		c.ProdID = ICalProdid
	}
	if c.UIDDomain == "" {
		c.UIDDomain = DefaultUIDDomain
	}
	// Unknown names are kept so the converter reports them as usage errors.
	c.Inverted = strings.ToLower(strings.TrimSpace(c.Inverted))
	if c.Inverted == "" {
		c.Inverted = InvertedPass
	}
	if c.Lang == "" {
		c.Lang = DefaultLanguage
	}
	if c.Serve.Port == "" {
		c.Serve.Port = DefaultPort
	}
	if c.Serve.Refresh == "" {
		c.Serve.Refresh = DefaultRefresh
	}
}

// LoadFile reads a YAML (.yaml, .yml) or TOML (.toml) configuration file.
//
// Unlike the calendar output, a missing config file is an error: the caller
// only invokes LoadFile when a path was explicitly requested.
func LoadFile(path string) (*FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(ErrConfigPathEmpty)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigRead, err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("%s: %q", ErrConfigFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConfigDecode, err)
	}

	cfg.Normalize()
	return &cfg, nil
}
