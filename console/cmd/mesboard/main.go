// Command mesboard is the shop-floor console for the MES backend.
//
// Usage:
//
//	mesboard [--config path] [--log-level lvl] [--log-format console|json] <command> [flags]
//
// Commands: watch, inspect, stats, lots, snapshot. Run a command with
// --help for its flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/logging"
)

const defaultConfigPath = "mesboard.yaml"

// command runs one subcommand with its own arguments. Results go to out;
// logs go to stderr.
type command func(ctx context.Context, g *globals, args []string, out io.Writer) error

var commands = map[string]command{
	"watch":    runWatch,
	"inspect":  runInspect,
	"stats":    runStats,
	"lots":     runLots,
	"snapshot": runSnapshot,
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("mesboard: failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	g := &globals{}
	fs := pflag.NewFlagSet("mesboard", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.StringVar(&g.configPath, "config", defaultConfigPath, "path to config file")
	fs.StringVar(&g.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	fs.StringVar(&g.logFormat, "log-format", "", "log format override (console|json)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mesboard [global flags] <command> [flags]\n\nCommands:\n")
		for _, name := range commandNames() {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		fmt.Fprintf(os.Stderr, "\nGlobal flags:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	g.configSet = fs.Changed("config")

	// Until the config is read, log with the flag values or defaults.
	if err := logging.Init(g.logLevel, g.logFormat); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("mesboard: no command given")
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("mesboard: unknown command %q", name)
	}
	return cmd(ctx, g, fs.Args()[1:], out)
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// globals are the flags shared by every command.
type globals struct {
	configPath string
	configSet  bool
	logLevel   string
	logFormat  string
}

// loadConfig reads the config file and re-initialises logging from it.
// A missing file is an error only when --config was given explicitly;
// otherwise defaults apply.
func (g *globals) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if g.configSet || fileExists(g.configPath) {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	log.Debug().Str("config", g.configPath).Str("api", cfg.API.BaseURL).Msg("mesboard: config loaded")
	return cfg, nil
}

// watchable reports whether the config file exists for hot reload.
func (g *globals) watchable() bool { return fileExists(g.configPath) }

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// newFlagSet returns a subcommand flag set with a usage line.
func newFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mesboard %s %s\n\n%s", name, synopsis, fs.FlagUsages())
	}
	return fs
}
