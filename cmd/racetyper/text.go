package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/racetyper/internal/analysis"
	"github.com/verte-zerg/racetyper/internal/config"
	"github.com/verte-zerg/racetyper/internal/generator"
	"github.com/verte-zerg/racetyper/internal/importer"
	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/wordlist"
)

const (
	defaultGenWords  = 40
	defaultGenCaps   = 0.1
	defaultGenPunct  = 0.1
	defaultListLimit = 20
)

const defaultPunctSet = ".,!?;:"

var (
	importMinLen int
	importLimit  int
	importYes    bool

	genWordlist string
	genLang     string
	genWords    int
	genCount    int
	genCaps     float64
	genPunct    float64
	genPunctSet string
	genMinLen   int
	genMaxLen   int
	genDryRun   bool

	listLimit int
)

func newTextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Manage reference texts",
	}
	cmd.AddCommand(newTextAddCmd())
	cmd.AddCommand(newTextImportCmd())
	cmd.AddCommand(newTextGenerateCmd())
	cmd.AddCommand(newTextShowCmd())
	cmd.AddCommand(newTextListCmd())
	return cmd
}

func newTextAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a reference text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTextAddCmd,
	}
}

func runTextAddCmd(cmd *cobra.Command, args []string) error {
	body := importer.Normalize(strings.Join(args, " "))
	if body == "" {
		return fmt.Errorf("text is empty")
	}
	warnIfShort(body)

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	id, err := st.InsertText(commandContext(cmd), body)
	if err != nil {
		return errors.Wrap(err, "insert text failed")
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added text %d.\n", id)
	return err
}

func newTextImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import quotes from a semicolon-delimited CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTextImportCmd,
	}
	cmd.Flags().IntVar(&importMinLen, "min-len", importer.DefaultMinLength, "keep quotes longer than this many characters")
	cmd.Flags().IntVar(&importLimit, "limit", importer.DefaultMaxEntries, "maximum number of quotes")
	cmd.Flags().BoolVar(&importYes, "yes", false, "import without asking")
	return cmd
}

func runTextImportCmd(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "open csv failed")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()

	opts := importer.DefaultOptions()
	opts.MinLength = importMinLen
	opts.MaxEntries = importLimit
	res, err := importer.Scan(file, opts, logger)
	if err != nil {
		return errors.Wrap(err, "read csv failed")
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, res.Summary()); err != nil {
		return err
	}
	if len(res.Quotes) == 0 {
		return nil
	}
	if !importYes {
		ok, err := importer.Confirm(cmd.InOrStdin(), out, "Import? (Y/N): ")
		if err != nil {
			return errors.Wrap(err, "read answer failed")
		}
		if !ok {
			return nil
		}
	}

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	imported, failed := importer.Import(commandContext(cmd), st, res.Quotes, logger)
	_, err = fmt.Fprintf(out, "Imported %d texts, %d failed.\n", imported, failed)
	return err
}

func newTextGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate reference texts from a word list",
		Args:  cobra.NoArgs,
		RunE:  runTextGenerateCmd,
	}
	cmd.Flags().StringVar(&genWordlist, "wordlist", "", "word list file, one word per line (default <config>/wordlists/<lang>.txt)")
	cmd.Flags().StringVar(&genLang, "lang", "en", "language code used for the default path and filtering")
	cmd.Flags().IntVar(&genWords, "words", defaultGenWords, "words per text")
	cmd.Flags().IntVar(&genCount, "count", 1, "number of texts")
	cmd.Flags().Float64Var(&genCaps, "caps", defaultGenCaps, "probability of capitalized first letter (0-1)")
	cmd.Flags().Float64Var(&genPunct, "punct", defaultGenPunct, "punctuation probability per word (0-1)")
	cmd.Flags().StringVar(&genPunctSet, "punct-set", defaultPunctSet, "punctuation set")
	cmd.Flags().IntVar(&genMinLen, "min-word-len", 1, "shortest word taken from the list")
	cmd.Flags().IntVar(&genMaxLen, "max-word-len", 0, "longest word taken from the list (0 for no limit)")
	cmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print texts without storing them")
	return cmd
}

func runTextGenerateCmd(cmd *cobra.Command, _ []string) error {
	cfg := model.GenerateConfig{
		Words:    genWords,
		Count:    genCount,
		CapsPct:  genCaps,
		PunctPct: genPunct,
		PunctSet: genPunctSet,
	}
	if err := validateGenerateConfig(cfg); err != nil {
		return err
	}

	path := genWordlist
	if path == "" {
		path = filepath.Join(config.DefaultWordListDir(), genLang+".txt")
	}
	keep := wordlist.All(wordlist.ForLang(genLang), wordlist.Length(genMinLen, genMaxLen))
	words, err := wordlist.Load(path, keep)
	if err != nil {
		return errors.Wrapf(err, "load word list %s failed", path)
	}

	texts, err := generator.New().Texts(words, cfg)
	if err != nil {
		return errors.Wrap(err, "generate failed")
	}
	out := cmd.OutOrStdout()
	if genDryRun {
		for _, text := range texts {
			if _, err := fmt.Fprintln(out, text); err != nil {
				return err
			}
		}
		return nil
	}

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()
	for _, text := range texts {
		id, err := st.InsertText(commandContext(cmd), text)
		if err != nil {
			return errors.Wrap(err, "insert text failed")
		}
		if _, err := fmt.Fprintf(out, "Added text %d.\n", id); err != nil {
			return err
		}
	}
	return nil
}

func validateGenerateConfig(cfg model.GenerateConfig) error {
	if cfg.Words <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.Count <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	return nil
}

func newTextShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a reference text",
		Args:  cobra.ExactArgs(1),
		RunE:  runTextShowCmd,
	}
}

func runTextShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	text, err := st.TextByID(commandContext(cmd), id)
	if err != nil {
		return errors.Wrap(err, "load text failed")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text.Body)
	return err
}

func newTextListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reference texts",
		Args:  cobra.NoArgs,
		RunE:  runTextListCmd,
	}
	cmd.Flags().IntVar(&listLimit, "limit", defaultListLimit, "maximum number of texts (0 for all)")
	return cmd
}

func runTextListCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	texts, err := st.ListTexts(commandContext(cmd), listLimit)
	if err != nil {
		return errors.Wrap(err, "list texts failed")
	}
	if len(texts) == 0 {
		logErrf("No texts yet. Add one with: racetyper text add <text>\n")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, text := range texts {
		words := len(strings.Fields(text.Body))
		if _, err := fmt.Fprintf(out, "%5d  %3d words  %s\n", text.ID, words, preview(text.Body, 60)); err != nil {
			return err
		}
	}
	return nil
}

func warnIfShort(body string) {
	if _, err := analysis.SegmentText(body, config.DefaultSegments); errors.Is(err, analysis.ErrInsufficientWords) {
		logErrf("warning: text has fewer than %d words and cannot be segmented with the default settings\n", config.DefaultSegments)
	}
}

func preview(body string, n int) string {
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n-1]) + "…"
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
