// Package cli implements the stackscope command-line interface.
//
// Reports go to the CLI's output writer. Logs, status lines and the spinner
// go to its error writer, so a report can be piped into another tool while
// progress stays on the terminal.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscope/pkg/buildinfo"
	"github.com/matzehuels/stackscope/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "stackscope"

// CLI holds shared state for all commands.
type CLI struct {
	Out io.Writer // reports
	Err io.Writer // logs and status lines
	In  io.Reader // dumps read from standard input

	verbose    bool
	configPath string
	config     *Config
}

// New creates a CLI writing reports to out and diagnostics to errOut.
func New(out, errOut io.Writer, in io.Reader) *CLI {
	return &CLI{Out: out, Err: errOut, In: in, config: &Config{}}
}

// Execute builds the command tree and runs it with args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "stackscope summarizes goroutine dumps",
		Long: `stackscope reads goroutine dumps (runtime.Stack output, SIGQUIT crashes,
/debug/pprof/goroutine?debug=2 captures, legacy HTML captures and binary pprof
goroutine profiles) and groups goroutines blocked in the same place.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if c.verbose {
				level = log.DebugLevel
			}
			logger := newLogger(c.Err, level)

			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			if cfg.path != "" {
				logger.Debug("Loaded config", "path", cfg.path)
			}
			c.config = cfg

			cmd.SetContext(withLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.SetOut(c.Out)
	root.SetErr(c.Err)
	root.SetIn(c.In)
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stackscope/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.licensesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/stackscope/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configFile returns the default config path (~/.config/stackscope/config.toml).
func configFile() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
