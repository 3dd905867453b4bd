package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ledger/internal/cache"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/report"
	"ledger/internal/services"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/transfer"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

type app struct {
	cfg      *config.Config
	logger   *log.Logger
	store    *services.Store
	session  *services.Session
	views    *services.Views
	caches   *cache.Manager
	importer *services.Importer

	// newSink builds the Sheets sink on first use, so commands that never
	// push do not need credentials.
	newSink func(ctx context.Context) (sheets.TabularSink, error)

	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *config.Config, store *services.Store, logger *log.Logger, out, errOut io.Writer) *app {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		session:  services.NewSession(store, logger),
		views:    services.NewViews(store, cfg.ViewCacheSize, cfg.ViewCacheTTL),
		caches:   cache.NewManager(logger),
		importer: services.NewImporter(store, logger),
		out:      out,
		errOut:   errOut,
	}
	a.views.Register(a.caches)
	a.newSink = a.googleSink
	return a
}

func (a *app) close() {
	a.caches.Stop()
}

func (a *app) googleSink(ctx context.Context) (sheets.TabularSink, error) {
	if !a.cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID: a.cfg.GoogleSpreadsheetID,
		SheetName:     a.cfg.GoogleSheetName,
		Attempts:      uint(a.cfg.SheetsPushAttempts),
	}, a.logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// dispatch runs one command and maps its error to an exit code.
func (a *app) dispatch(ctx context.Context, args []string, stdin io.Reader) int {
	name, rest := args[0], args[1:]

	var err error
	switch name {
	case "add":
		err = a.cmdAdd(ctx, rest)
	case "edit":
		err = a.cmdEdit(ctx, rest)
	case "rm":
		err = a.cmdRemove(ctx, rest)
	case "list":
		err = a.cmdList(rest)
	case "summary":
		err = a.cmdSummary(rest)
	case "monthly":
		err = a.cmdMonthly(rest)
	case "export":
		err = a.cmdExport(ctx, rest)
	case "import":
		err = a.cmdImport(ctx, rest)
	case "clear":
		err = a.cmdClear(ctx, rest)
	case "shell":
		err = a.cmdShell(ctx, stdin)
	default:
		fmt.Fprintf(a.errOut, "unknown command %q\n", name)
		printUsage(a.errOut)
		return exitUsage
	}
	return a.exitCode(err)
}

func (a *app) exitCode(err error) int {
	var importErr *transfer.ImportError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitUsage
	case errors.Is(err, errUsage):
		fmt.Fprintln(a.errOut, err)
		return exitUsage
	case services.IsPersistError(err):
		fmt.Fprintf(a.errOut, "warning: the change was applied but could not be saved (%v).\n", err)
		fmt.Fprintln(a.errOut, "Export a backup with `ledger export` before quitting.")
		return exitFailure
	case errors.As(err, &importErr):
		fmt.Fprintln(a.errOut, "import failed:", importErr.Message())
		return exitFailure
	default:
		fmt.Fprintln(a.errOut, "error:", err)
		return exitFailure
	}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// formFlags binds the add/edit form fields to fs.
func formFlags(fs *flag.FlagSet, f *services.Form) {
	fs.StringVar(&f.Type, "type", f.Type, "income or expense")
	fs.StringVar(&f.Amount, "amount", f.Amount, "positive amount, dot or comma decimals")
	fs.StringVar(&f.Date, "date", f.Date, "YYYY-MM-DD or ISO-8601 timestamp")
	fs.StringVar(&f.Category, "category", f.Category, "optional category")
	fs.StringVar(&f.Note, "note", f.Note, "optional note")
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	form := services.Form{
		Type: string(core.Expense),
		Date: time.Now().UTC().Format(time.DateOnly),
	}
	fs := a.flagSet("add")
	formFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: add takes no arguments", errUsage)
	}

	a.session.Reset()
	t, err := a.session.Submit(ctx, form)
	if t.ID != "" {
		fmt.Fprintf(a.out, "added %s\n", t.ID)
	}
	return err
}

// cmdEdit accepts the id before or after the flags.
func (a *app) cmdEdit(ctx context.Context, args []string) error {
	var id string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}

	fs := a.flagSet("edit")
	var form services.Form
	formFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return fmt.Errorf("%w: edit needs a transaction id", errUsage)
	}

	cur, err := a.session.BeginEdit(id)
	if err != nil {
		return err
	}
	merged := formFrom(cur)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "type":
			merged.Type = form.Type
		case "amount":
			merged.Amount = form.Amount
		case "date":
			merged.Date = form.Date
		case "category":
			merged.Category = form.Category
		case "note":
			merged.Note = form.Note
		}
	})

	t, err := a.session.Submit(ctx, merged)
	if err != nil && !services.IsPersistError(err) {
		a.session.Reset()
		return err
	}
	fmt.Fprintf(a.out, "updated %s\n", t.ID)
	return err
}

func formFrom(t core.Transaction) services.Form {
	return services.Form{
		Type:     string(t.Type),
		Amount:   t.Amount.String(),
		Date:     core.FormatDate(t.Date),
		Category: t.Category,
		Note:     t.Note,
	}
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: rm needs at least one id", errUsage)
	}
	// Keep going after a failure so every id is attempted; a failed persist
	// still removes the transaction in memory.
	var errs []error
	for _, id := range args {
		err := a.store.Remove(ctx, id)
		if err != nil && !services.IsPersistError(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
			continue
		}
		fmt.Fprintf(a.out, "removed %s\n", id)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// criteriaFlags parses the shared filter flags of list and monthly.
func (a *app) criteriaFlags(name string, args []string) (report.Criteria, error) {
	var typ, from, to string
	fs := a.flagSet(name)
	fs.StringVar(&typ, "type", "", "income or expense (default any)")
	fs.StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return report.Criteria{}, err
	}

	var c report.Criteria
	if typ != "" {
		t, err := core.ParseType(typ)
		if err != nil {
			return c, err
		}
		c.Type = t
	}
	var err error
	if c.From, err = report.ParseDay(from); err != nil {
		return c, fmt.Errorf("invalid -from: %w", err)
	}
	if c.To, err = report.ParseDay(to); err != nil {
		return c, fmt.Errorf("invalid -to: %w", err)
	}
	return c, nil
}

func (a *app) cmdList(args []string) error {
	c, err := a.criteriaFlags("list", args)
	if err != nil {
		return err
	}
	return renderTransactions(a.out, a.views.Listing(c).Transactions)
}

func (a *app) cmdSummary(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: summary takes no arguments", errUsage)
	}
	return renderTotals(a.out, a.views.Totals())
}

func (a *app) cmdMonthly(args []string) error {
	c, err := a.criteriaFlags("monthly", args)
	if err != nil {
		return err
	}
	return renderMonths(a.out, a.views.Listing(c).Months)
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	dir := a.cfg.ExportDir
	var push, sheetsOnly bool
	fs := a.flagSet("export")
	fs.StringVar(&dir, "dir", dir, "directory for finance_backup.json and finance_data.csv")
	fs.BoolVar(&push, "sheets", false, "also push the table to Google Sheets")
	fs.BoolVar(&sheetsOnly, "sheets-only", false, "push to Google Sheets without writing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sink sheets.TabularSink
	if push || sheetsOnly {
		s, err := a.newSink(ctx)
		if err != nil {
			return fmt.Errorf("sheets: %w", err)
		}
		if s == nil {
			return fmt.Errorf("%w: set GOOGLE_SPREADSHEET_ID to push to Google Sheets", services.ErrNoSink)
		}
		sink = s
	}

	exporter := services.NewExporter(a.store, sink, a.logger)
	if sheetsOnly {
		n, err := exporter.Push(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "pushed %d transactions to Google Sheets\n", n)
		return nil
	}

	res, err := exporter.Export(ctx, dir, push)
	if res.StructuredPath != "" {
		fmt.Fprintf(a.out, "exported %d transactions\n  %s\n  %s\n", res.Count, res.StructuredPath, res.TabularPath)
	}
	if err != nil {
		return err
	}
	if res.Pushed {
		fmt.Fprintln(a.out, "  pushed to Google Sheets")
	}
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import needs exactly one file", errUsage)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	select {
	case out := <-a.importer.ImportAsync(ctx, f):
		if out.Applied() {
			fmt.Fprintf(a.out, "imported %d transactions\n", out.Count)
		}
		return out.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) cmdClear(ctx context.Context, args []string) error {
	var yes bool
	fs := a.flagSet("clear")
	fs.BoolVar(&yes, "yes", false, "confirm deleting every transaction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !yes {
		return fmt.Errorf("%w: clear deletes every transaction, pass -yes to confirm", errUsage)
	}
	if err := a.session.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "all transactions deleted")
	return nil
}
