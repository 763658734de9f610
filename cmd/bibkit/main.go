package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gubarz/bibkit/internal/bibtex"
	"github.com/gubarz/bibkit/internal/config"
	"github.com/gubarz/bibkit/internal/logging"
	"github.com/gubarz/bibkit/internal/output"
	"github.com/gubarz/bibkit/internal/store"
	"github.com/gubarz/bibkit/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

// logger is set up once config and flags are known
var logger = logging.Discard()

var rootCmd = &cobra.Command{
	Use:   "bibkit [file]",
	Short: "Parse and normalize BibTeX citations",
	Long: `Reads BibTeX from a file or stdin and writes every entry in a
canonical layout, as BibTeX, JSON or YAML.

Without a file argument (or with "-") the input is read from stdin.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: applyOutputFlags,
	RunE:              runFormat,
	SilenceUsage:      true,
}

var fieldCmd = &cobra.Command{
	Use:   "field <name> [file]",
	Short: "Print one field of the first entry",
	Long: `Prints the normalized value of a field of the first entry.
"entryType" and "citationKey" are accepted as field names.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runField,
}

var authorsCmd = &cobra.Command{
	Use:   "authors [file]",
	Short: "Print the authors of the first entry in reading order",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthors,
}

var rekeyCmd = &cobra.Command{
	Use:   "rekey <key> [file]",
	Short: "Replace the citation key of the first entry",
	Long: `Re-keys the first entry and writes it as canonical BibTeX, whatever
--format says.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRekey,
}

var checkCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Validate BibTeX files",
	Long: `Parses every file and reports the ones that fail. Directories are
searched recursively for .bib files. All files are checked; the command exits
non-zero if any of them failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var browseCmd = &cobra.Command{
	Use:   "browse [file]",
	Short: "Pick an entry interactively",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBrowse,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Upsert entries into PostgreSQL",
	Long: `Normalizes every entry and upserts it into a PostgreSQL table keyed
by citation key. The table is created when missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(fieldCmd, authorsCmd, rekeyCmd, checkCmd, browseCmd, importCmd)

	rootCmd.PersistentFlags().StringP("output", "o", "", "Output mode: print, copy, file")
	rootCmd.PersistentFlags().Bool("print", false, "Print result (shorthand for -o print)")
	rootCmd.PersistentFlags().Bool("copy", false, "Copy result (shorthand for -o copy)")
	rootCmd.PersistentFlags().String("out-file", "", "Target path for -o file")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Record format: bibtex, json, yaml")
	rootCmd.PersistentFlags().Bool("keep-hyphens", false, `Do not collapse "--" to "-" in BibTeX output`)
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	browseCmd.Flags().StringP("query", "q", "", "Initial search query")

	importCmd.Flags().String("dsn", "", "PostgreSQL connection string")
	importCmd.Flags().String("driver", "", "database/sql driver: pgx or postgres")
	importCmd.Flags().String("table", "", "Target table")

	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("out_file", rootCmd.PersistentFlags().Lookup("out-file"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("dsn", importCmd.Flags().Lookup("dsn"))
	viper.BindPFlag("driver", importCmd.Flags().Lookup("driver"))
	viper.BindPFlag("table", importCmd.Flags().Lookup("table"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
	logger = logging.New(os.Stderr, config.GetLogLevel())
}

// applyOutputFlags maps the shorthand flags onto config
func applyOutputFlags(cmd *cobra.Command, args []string) error {
	if p, _ := cmd.Flags().GetBool("print"); p {
		config.SetOutput("print")
	} else if c, _ := cmd.Flags().GetBool("copy"); c {
		config.SetOutput("copy")
	}
	if keep, _ := cmd.Flags().GetBool("keep-hyphens"); keep {
		config.SetCollapseHyphens(false)
	}
	return nil
}

func serializer() bibtex.Serializer {
	return bibtex.Serializer{CollapseHyphens: config.GetCollapseHyphens()}
}

// readInput returns the contents of path, or stdin for "" and "-"
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

// loadRecords parses the input named by path and normalizes every entry
func loadRecords(path string, stdin io.Reader) ([]*bibtex.Record, error) {
	text, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	res, err := bibtex.NewParser(text, logger).ParseAll()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	records := bibtex.Records(res)
	if len(records) == 0 {
		return nil, bibtex.ErrNoEntries
	}
	return records, nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// newWriter sends print-mode output to the command's stdout
func newWriter(cmd *cobra.Command) *output.Writer {
	return output.NewWriter().WithStdout(cmd.OutOrStdout())
}

func render(cmd *cobra.Command, records []*bibtex.Record) error {
	text, err := output.Render(records, output.Format(config.GetFormat()), serializer())
	if err != nil {
		return err
	}
	return newWriter(cmd).Output(text)
}

func runFormat(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(argAt(args, 0), cmd.InOrStdin())
	if err != nil {
		return err
	}
	logger.Debug("formatting", slog.Int("records", len(records)), slog.String("format", config.GetFormat()))
	return render(cmd, records)
}

func runField(cmd *cobra.Command, args []string) error {
	text, err := readInput(argAt(args, 1), cmd.InOrStdin())
	if err != nil {
		return err
	}
	v, ok, err := bibtex.LookupValue(text, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("first entry has no field %q", args[0])
	}
	return newWriter(cmd).Output(v)
}

func runAuthors(cmd *cobra.Command, args []string) error {
	text, err := readInput(argAt(args, 0), cmd.InOrStdin())
	if err != nil {
		return err
	}
	authors, err := bibtex.ExtractAuthors(text)
	if err != nil {
		return err
	}
	return newWriter(cmd).Output(authors)
}

func runRekey(cmd *cobra.Command, args []string) error {
	text, err := readInput(argAt(args, 1), cmd.InOrStdin())
	if err != nil {
		return err
	}
	rekeyed, err := serializer().SetKey(text, args[0])
	if err != nil {
		return err
	}
	return newWriter(cmd).Output(rekeyed)
}

// checkSummary counts the outcome of a check run
type checkSummary struct {
	Files     int
	Failed    int
	Entries   int
	Preprints int
}

// checkFiles parses every path. A failure is logged and counted and does not
// stop the run.
func checkFiles(paths []string, l *slog.Logger) checkSummary {
	var sum checkSummary
	for _, path := range paths {
		sum.Files++
		records, err := loadRecords(path, os.Stdin)
		if err != nil {
			sum.Failed++
			attrs := []any{slog.String("file", path), slog.Any("err", err)}
			var perr *bibtex.ParseError
			if errors.As(err, &perr) {
				attrs = append(attrs, slog.Int("line", perr.Line), slog.Int("column", perr.Column))
			}
			l.Error("check failed", attrs...)
			continue
		}
		sum.Entries += len(records)
		for _, r := range records {
			if bibtex.IsPreprint(r) {
				sum.Preprints++
				l.Info("preprint", slog.String("file", path), slog.String("key", r.CitationKey))
			}
		}
		l.Debug("check ok", slog.String("file", path), slog.Int("entries", len(records)))
	}
	return sum
}

// collectFiles expands directories into the .bib files below them
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		root := config.ExpandPath(arg)
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			// missing files are reported by checkFiles
			files = append(files, root)
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), ".bib") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	sum := checkFiles(files, logging.Component(logger, "check"))
	fmt.Fprintf(cmd.OutOrStdout(), "checked %d files: %d entries (%d preprints), %d failed\n",
		sum.Files, sum.Entries, sum.Preprints, sum.Failed)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", sum.Failed, sum.Files)
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(argAt(args, 0), cmd.InOrStdin())
	if err != nil {
		return err
	}
	query, _ := cmd.Flags().GetString("query")

	selected, err := ui.Browse(records, serializer(), query)
	if err != nil {
		return err
	}
	if selected == nil {
		return nil
	}
	return render(cmd, []*bibtex.Record{selected})
}

func runImport(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(argAt(args, 0), cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := store.Open(ctx, config.GetDriver(), config.GetDSN(), config.GetTable(), logger)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.WithSerializer(serializer()).Save(ctx, records)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", n, config.GetTable())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.Version = version
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
