package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errReported marks a failure already shown to the user
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// rootConfig holds the flags shared by every command
type rootConfig struct {
	stdout   io.Writer
	stderr   io.Writer
	printer  *printer
	logLevel string
	logJSON  bool
	flags    *ff.FlagSet
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// Check for version flag before parsing other flags
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Fprintln(stdout, version)
			return 0
		}
	}

	root := &rootConfig{
		stdout:  stdout,
		stderr:  stderr,
		printer: newPrinter(stdout),
	}
	cmd := newRootCommand(root)

	args = withDefaultCommand(cmd, args, "convert")
	err := cmd.ParseAndRun(ctx, args,
		ff.WithEnvVarPrefix("IMAGE2CSV"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ff.ErrHelp):
		selected := cmd.GetSelected()
		if selected == nil {
			selected = cmd
		}
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected))
		return 0
	case errors.Is(err, errReported):
		return 1
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

// newRootCommand builds the command tree around the shared flags
func newRootCommand(root *rootConfig) *ff.Command {
	root.flags = ff.NewFlagSet("image2csv")
	root.flags.StringVar(&root.logLevel, 0, "log-level", "warn", "log level: debug, info, warn or error")
	root.flags.BoolVar(&root.logJSON, 0, "log-json", "log as JSON")
	root.flags.StringLong("config", "", "config file with one flag per line")

	cmd := &ff.Command{
		Name:      "image2csv",
		Usage:     "image2csv [convert] [FLAGS] <image or directory>...",
		ShortHelp: "convert statement screenshots into CSV",
		Flags:     root.flags,
		Subcommands: []*ff.Command{
			newConvertCommand(root),
			newParsersCommand(root),
			newSummaryCommand(root),
			newCheckCommand(root),
			newServeCommand(root),
			newVersionCommand(root),
		},
	}
	cmd.Exec = func(ctx context.Context, args []string) error {
		fmt.Fprintf(root.stderr, "%s\n", ffhelp.Command(cmd))
		return nil
	}
	return cmd
}

// withDefaultCommand runs def when the first argument is not a subcommand,
// so "image2csv -p flash_benefits shots/" means "image2csv convert ...".
// Shared flags such as --log-level go after the command name.
func withDefaultCommand(cmd *ff.Command, args []string, def string) []string {
	if len(args) > 0 {
		first := args[0]
		if first == "-h" || first == "--help" || first == "help" {
			return args
		}
		if slices.ContainsFunc(cmd.Subcommands, func(c *ff.Command) bool { return c.Name == first }) {
			return args
		}
	}
	return append([]string{def}, args...)
}

// setupLogging configures the default logger from the root flags
func (r *rootConfig) setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(r.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", r.logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(r.stderr, opts)
	if r.logJSON {
		handler = slog.NewJSONHandler(r.stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
