package main

import (
	"fmt"
	"io"
	"os"

	"ledger/internal/cli"
	"ledger/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without the process exit, so tests can drive it.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Load .env file for local development (ignore errors if absent)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	if len(args) == 0 || isHelp(args[0]) {
		printUsage(stdout)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	ctx, stop := cli.GracefulShutdown(logger, nil)
	defer stop()

	ledger, err := cli.OpenLedger(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: open ledger: %v\n", err)
		return exitFailure
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
		logger.Debug("ledger closed", log.FieldOperation, log.OpShutdown)
	}()
	logger.Debug("ledger opened",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.Backend,
		log.FieldState, ledger.Report.Result.State.String(),
		log.FieldCount, ledger.Store.Len())

	if msg := cli.DescribeLoad(ledger.Report); msg != "" {
		fmt.Fprintln(stderr, "warning:", msg)
	}

	a := newApp(cfg, ledger.Store, logger, stdout, stderr)
	defer a.close()
	return a.dispatch(ctx, args, stdin)
}

func isHelp(s string) bool {
	return s == "help" || s == "-h" || s == "-help" || s == "--help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: ledger <command> [flags] [args]

commands:
  add     -type income|expense -amount N [-date YYYY-MM-DD] [-category C] [-note N]
  edit    <id> [-type T] [-amount N] [-date D] [-category C] [-note N]
  rm      <id>...
  list    [-type T] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  summary
  monthly [-type T] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
  export  [-dir DIR] [-sheets | -sheets-only]
  import  <file>
  clear   -yes
  shell
`)
}
