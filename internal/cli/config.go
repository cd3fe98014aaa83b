package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	apperrors "github.com/matzehuels/stackscope/pkg/errors"
	"github.com/matzehuels/stackscope/pkg/pipeline"
)

// defaultCacheTTL is how long a resolved module directory is remembered.
const defaultCacheTTL = 30 * 24 * time.Hour

// Config is the optional TOML config file. Values only apply where the
// matching flag was not given on the command line.
//
//	[analyze]
//	min_count = 5
//	calls = 2
//	filter = true
//	extra_prefixes = ["github.com/acme/"]
//	extra_noise = ["core/node/rpc.(*Service).idle"]
//
//	[licenses]
//	show_path = true
//	cache_ttl = "72h"
type Config struct {
	Analyze  AnalyzeConfig  `toml:"analyze"`
	Licenses LicensesConfig `toml:"licenses"`

	path string
	meta toml.MetaData
}

// AnalyzeConfig holds defaults for analyze and graph.
type AnalyzeConfig struct {
	MinCount      int      `toml:"min_count"`
	Calls         int      `toml:"calls"`
	Filter        bool     `toml:"filter"`
	ExtraPrefixes []string `toml:"extra_prefixes"`
	ExtraNoise    []string `toml:"extra_noise"`
}

// LicensesConfig holds defaults for licenses.
type LicensesConfig struct {
	ShowPath bool          `toml:"show_path"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file yields an empty config; a missing explicit file is
// an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		def, err := configFile()
		if err != nil {
			return &Config{}, nil
		}
		path = def
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(path, string(data))
}

func parseConfig(path, data string) (*Config, error) {
	cfg := &Config{path: path}
	meta, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "%s: unknown key %q", path, keys[0].String())
	}
	if cfg.Analyze.MinCount < 0 || cfg.Analyze.Calls < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig, "%s: min_count and calls must not be negative", path)
	}
	cfg.meta = meta
	return cfg, nil
}

// set reports whether the file defined key.
func (c *Config) set(key ...string) bool {
	return c.path != "" && c.meta.IsDefined(key...)
}

// applyAnalyze copies file values into opts for flags left at their
// defaults. Extra prefixes and noise from the file are appended to those
// given as flags.
func (c *Config) applyAnalyze(flags *pflag.FlagSet, opts *pipeline.Options) {
	if c.set("analyze", "min_count") && !changed(flags, "min") {
		opts.MinCount = c.Analyze.MinCount
	}
	if c.set("analyze", "calls") && !changed(flags, "calls") {
		opts.Calls = c.Analyze.Calls
	}
	if c.set("analyze", "filter") && !changed(flags, "filter") {
		opts.Filter = c.Analyze.Filter
	}
	opts.Prefixes = append(opts.Prefixes, c.Analyze.ExtraPrefixes...)
	opts.Noise = append(opts.Noise, c.Analyze.ExtraNoise...)
}

func (c *Config) showPath(flags *pflag.FlagSet, flagValue bool) bool {
	if c.set("licenses", "show_path") && !changed(flags, "show-path") {
		return c.Licenses.ShowPath
	}
	return flagValue
}

func (c *Config) cacheTTL() time.Duration {
	if c.set("licenses", "cache_ttl") {
		return c.Licenses.CacheTTL
	}
	return defaultCacheTTL
}

func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFile()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(c.Out, path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config
			source := cfg.path
			if source == "" {
				source = "(defaults)"
			}
			printKeyValue(c.Out, "config", source)

			opts := pipeline.DefaultOptions()
			cfg.applyAnalyze(cmd.Flags(), &opts)
			printKeyValue(c.Out, "min_count", fmt.Sprint(opts.MinCount))
			printKeyValue(c.Out, "calls", fmt.Sprint(opts.Calls))
			printKeyValue(c.Out, "filter", fmt.Sprint(opts.Filter))
			printKeyValue(c.Out, "prefixes", fmt.Sprint(opts.Prefixes))
			printKeyValue(c.Out, "noise", fmt.Sprint(opts.Noise))
			printKeyValue(c.Out, "show_path", fmt.Sprint(cfg.showPath(cmd.Flags(), false)))
			printKeyValue(c.Out, "cache_ttl", cfg.cacheTTL().String())
			return nil
		},
	})

	return cmd
}
