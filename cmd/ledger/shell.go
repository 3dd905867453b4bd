package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const shellPrompt = "ledger> "

// cmdShell reads commands line by line and runs them against the same store,
// session and view caches until EOF, "quit" or cancellation.
func (a *app) cmdShell(ctx context.Context, in io.Reader) error {
	a.caches.StartCleanup(a.cfg.ViewCacheTTL)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, shellPrompt)
		if !sc.Scan() {
			fmt.Fprintln(a.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		args, err := splitArgs(sc.Text())
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit":
			return nil
		case "help":
			printUsage(a.out)
			continue
		case "shell":
			fmt.Fprintln(a.errOut, "already in the shell")
			continue
		}
		a.dispatch(ctx, args, nil)
	}
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a shell line on spaces, honoring single and double quotes
// so notes can contain spaces.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		inArg bool
		quote rune
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, errUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
