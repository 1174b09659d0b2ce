package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sitecontent "github.com/goliatone/go-sitecontent"
	"github.com/goliatone/go-sitecontent/internal/content"
)

var moduleBuilder = buildModule

// defaultStorageDir holds content between runs when neither a config file
// nor -storage selects a provider.
const defaultStorageDir = ".sitecontent"

var errUsage = errors.New("usage: sitecontent [global flags] <list|get|save|delete|clear|import|markdown-import|markdown-sync|watch> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("sitecontent: %v", err)
	}
}

type globalOptions struct {
	configPath string
	provider   string
	dsn        string
	dir        string
	contentDir string
	logLevel   string
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("sitecontent", flag.ContinueOnError)
	opts := globalOptions{}
	global.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	global.StringVar(&opts.provider, "storage", "", "Storage provider override (memory|sqlite|dir|none)")
	global.StringVar(&opts.dsn, "dsn", "", "SQLite DSN for the sqlite provider")
	global.StringVar(&opts.dir, "storage-dir", "", "Directory for the dir provider (default "+defaultStorageDir+" without -config)")
	global.StringVar(&opts.contentDir, "content-dir", "", "Markdown content root; enables markdown ingestion")
	global.StringVar(&opts.logLevel, "log-level", "", "Log level override")
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	name, cmdArgs := rest[0], rest[1:]
	switch name {
	case "list":
		return runList(ctx, module, cmdArgs, stdout)
	case "get":
		return runGet(ctx, module, cmdArgs, stdout)
	case "save":
		return runSave(ctx, module, cmdArgs, stdin, stdout)
	case "delete":
		return runDelete(ctx, module, cmdArgs)
	case "clear":
		return runClear(ctx, module, cmdArgs, stdout)
	case "import":
		return runImport(ctx, module, cmdArgs, stdin, stdout)
	case "markdown-import":
		return runMarkdownImport(ctx, module, cmdArgs, stdout)
	case "markdown-sync":
		return runMarkdownSync(ctx, module, cmdArgs, stdout)
	case "watch":
		return runWatch(ctx, module, cmdArgs, stdout)
	default:
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
}

func buildModule(opts globalOptions) (*sitecontent.Module, error) {
	cfg := sitecontent.DefaultConfig()
	if path := strings.TrimSpace(opts.configPath); path != "" {
		loaded, err := sitecontent.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg.Storage.Provider = sitecontent.StorageDir
		cfg.Storage.Dir = defaultStorageDir
	}
	if opts.provider != "" {
		cfg.Storage.Provider = opts.provider
	}
	if opts.dsn != "" {
		cfg.Storage.DSN = opts.dsn
	}
	if opts.dir != "" {
		cfg.Storage.Dir = opts.dir
	}
	if opts.contentDir != "" {
		cfg.Markdown.Enabled = true
		cfg.Markdown.ContentDir = opts.contentDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return sitecontent.New(cfg)
}

func recordFlags(fs *flag.FlagSet) (typ, lang *string) {
	typ = fs.String("type", "", "Content type (home, about, services, contact, global, blogArticle, faq)")
	lang = fs.String("lang", "pt", "Language (pt, en)")
	return typ, lang
}

func parseRecordFlags(typ, lang string) (sitecontent.Type, sitecontent.Language, error) {
	t, err := sitecontent.ParseType(typ)
	if err != nil {
		return "", "", fmt.Errorf("type %q: %w", typ, err)
	}
	l, err := sitecontent.ParseLanguage(lang)
	if err != nil {
		return "", "", fmt.Errorf("lang %q: %w", lang, err)
	}
	return t, l, nil
}

func runList(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	typ, lang := recordFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, l, err := parseRecordFlags(*typ, *lang)
	if err != nil {
		return err
	}
	records := module.Export(ctx, t, l)
	if records == nil {
		records = []sitecontent.Record{}
	}
	return writeJSON(stdout, records)
}

func runGet(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	typ, lang := recordFlags(fs)
	id := fs.String("id", "", "Record id or full storage key")
	slug := fs.String("slug", "", "Published slug, collection types only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, l, err := parseRecordFlags(*typ, *lang)
	if err != nil {
		return err
	}

	store := module.Store()
	var record *sitecontent.Record
	switch {
	case *slug != "":
		record = store.FindBySlug(ctx, t, *slug, l)
	case *id != "":
		record = store.GetByID(ctx, t, l, *id)
	default:
		record = store.Get(ctx, t, l)
	}
	if record == nil {
		return fmt.Errorf("%s/%s: record not found", t, l)
	}
	return writeJSON(stdout, record)
}

func runSave(ctx context.Context, module *sitecontent.Module, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	typ, lang := recordFlags(fs)
	id := fs.String("id", "", "Record id to update")
	file := fs.String("file", "-", "Payload JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, l, err := parseRecordFlags(*typ, *lang)
	if err != nil {
		return err
	}

	data, err := readInput(*file, stdin)
	if err != nil {
		return err
	}
	payload, err := content.NewPayload(t)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", t, err)
	}

	stored, err := module.Save(ctx, sitecontent.Record{ID: *id, Type: t, Language: l, Payload: payload})
	if err != nil {
		return err
	}
	return writeJSON(stdout, stored)
}

func runDelete(ctx context.Context, module *sitecontent.Module, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	typ, lang := recordFlags(fs)
	id := fs.String("id", "", "Record id, required for collection types")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, l, err := parseRecordFlags(*typ, *lang)
	if err != nil {
		return err
	}
	return module.Delete(ctx, t, l, *id)
}

func runClear(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	typ := fs.String("type", "", "Content type to clear in every language")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := sitecontent.ParseType(*typ)
	if err != nil {
		return fmt.Errorf("type %q: %w", *typ, err)
	}
	removed, err := module.Clear(ctx, t)
	if err != nil {
		return err
	}
	return writeJSON(stdout, map[string]any{"type": t, "removed": removed})
}

func runImport(ctx context.Context, module *sitecontent.Module, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	typ := fs.String("type", "", "Type used when the envelope carries none")
	file := fs.String("file", "-", "Record envelope JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var fallback sitecontent.Type
	if *typ != "" {
		t, err := sitecontent.ParseType(*typ)
		if err != nil {
			return fmt.Errorf("type %q: %w", *typ, err)
		}
		fallback = t
	}

	data, err := readInput(*file, stdin)
	if err != nil {
		return err
	}
	stored, err := module.Import(ctx, data, fallback)
	if err != nil {
		return err
	}
	return writeJSON(stdout, stored)
}

func runMarkdownImport(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("markdown-import", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Directory relative to the content root")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting content")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := module.ImportMarkdown(ctx, *dir, *dryRun)
	if result != nil {
		if writeErr := writeJSON(stdout, importSummary(result)); writeErr != nil && err == nil {
			err = writeErr
		}
	}
	return err
}

func runMarkdownSync(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("markdown-sync", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Directory relative to the content root")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting content")
	deleteOrphaned := fs.Bool("delete-orphaned", false, "Remove imported articles whose file is gone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	result, err := module.SyncMarkdown(ctx, *dir, *dryRun, *deleteOrphaned)
	if result != nil {
		if writeErr := writeJSON(stdout, syncSummary(result)); writeErr != nil && err == nil {
			err = writeErr
		}
	}
	return err
}

func runWatch(ctx context.Context, module *sitecontent.Module, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	dir := fs.String("dir", ".", "Directory relative to the content root")
	deleteOrphaned := fs.Bool("delete-orphaned", false, "Remove imported articles whose file is gone")
	debounce := fs.Duration("debounce", 300*time.Millisecond, "Quiet period before a sync runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return module.WatchMarkdown(ctx, *dir, *deleteOrphaned, *debounce, func(result *sitecontent.SyncResult, err error) {
		if err != nil {
			fmt.Fprintf(stdout, "sync error: %v\n", err)
		}
		if result != nil {
			_ = writeJSON(stdout, syncSummary(result))
		}
	})
}

func importSummary(result *sitecontent.ImportResult) map[string]any {
	return map[string]any{
		"created": result.Created,
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  errorStrings(result.Errors),
	}
}

func syncSummary(result *sitecontent.SyncResult) map[string]any {
	return map[string]any{
		"created": result.Created,
		"updated": result.Updated,
		"deleted": result.Deleted,
		"skipped": result.Skipped,
		"errors":  errorStrings(result.Errors),
	}
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
