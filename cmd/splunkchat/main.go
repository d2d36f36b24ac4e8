// splunkchat serves GET /chat, answering natural-language questions about Splunk
// through a tool-calling model backed by an MCP tool server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/matiasleandrokruk/splunkchat/internal/infra/config"
	"github.com/matiasleandrokruk/splunkchat/internal/infra/logging"
	"github.com/matiasleandrokruk/splunkchat/internal/version"
)

const (
	cmdServe   = "serve"
	cmdVersion = "version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := pflag.NewFlagSet("splunkchat", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.StringP("config", "c", "", "Path to a YAML config file (default $SPLUNKCHAT_CONFIG)")
	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.BoolP("help", "h", false, "Show help")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(out, "error: %v\n", err) //nolint:errcheck
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}
	if *showHelp {
		printHelp(out, fs)
		return 0
	}

	command := cmdServe
	if rest := fs.Args(); len(rest) > 0 {
		command = rest[0]
	}

	switch command {
	case cmdVersion:
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	case cmdServe:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, *configPath, out)
	default:
		fmt.Fprintf(out, "error: unknown command %q\n", command) //nolint:errcheck
		return 2
	}
}

func runServe(ctx context.Context, configPath string, out io.Writer) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err) //nolint:errcheck
		if errors.Is(err, config.ErrInvalidConfig) {
			return 2
		}
		return 1
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, out)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err) //nolint:errcheck
		return 2
	}

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("splunkchat.exit", "err", err)
		return 1
	}
	return 0
}

func printHelp(out io.Writer, fs *pflag.FlagSet) {
	helpText := `splunkchat - chat with your Splunk data

Usage:
  splunkchat [options] [command]

Commands:
  serve        Start the chat server (default)
  version      Show version information

Options:
`
	fmt.Fprint(out, helpText)                //nolint:errcheck
	fmt.Fprint(out, fs.FlagUsagesWrapped(0)) //nolint:errcheck
	fmt.Fprintln(out, "\nEnvironment variables override file settings, e.g. LLM_PROVIDER, MCP_ENDPOINT, CHAT_MODE.") //nolint:errcheck
}
