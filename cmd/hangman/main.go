// Package main provides the CLI entrypoint for hangman.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/hangman/internal/config"
	"github.com/verte-zerg/hangman/internal/engine"
	"github.com/verte-zerg/hangman/internal/httpserver"
	"github.com/verte-zerg/hangman/internal/i18n"
	"github.com/verte-zerg/hangman/internal/logging"
	"github.com/verte-zerg/hangman/internal/model"
	"github.com/verte-zerg/hangman/internal/session"
	"github.com/verte-zerg/hangman/internal/stats"
	"github.com/verte-zerg/hangman/internal/store"
	"github.com/verte-zerg/hangman/internal/tui"
	"github.com/verte-zerg/hangman/internal/words"
	"github.com/verte-zerg/hangman/internal/wordlist"
)

const (
	defaultLang      = "en"
	defaultSource    = sourceAPI
	defaultRetries   = 3
	defaultAddr      = ":8080"
	defaultRateLimit = 10
)

const (
	sourceAPI  = "api"
	sourceFile = "file"
)

var (
	gameLang     string
	gameAttempts int
	gameSeconds  int
	gameSource   string
	gameWordURL  string
	gameRetries  int
	gameDB       string
	logLevel     string

	serveAddr      string
	serveRateLimit int

	historyClear bool
	historyLang  string
	historyLast  int

	statsLang string
	statsLast int
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

func main() {
	// .env is optional.
	_ = godotenv.Load()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hangman",
		Short:         "Timed hangman in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}
	addGameFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newWordCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addGameFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&gameLang, "lang", defaultLang, "word language (en, es, fr)")
	cmd.Flags().IntVar(&gameAttempts, "attempts", engine.DefaultAttempts, "wrong guesses allowed per round")
	cmd.Flags().IntVar(&gameSeconds, "seconds", engine.DefaultSeconds, "seconds per round")
	cmd.Flags().StringVar(&gameSource, "source", defaultSource, "word source (api, file)")
	cmd.Flags().StringVar(&gameWordURL, "word-url", words.DefaultBaseURL, "random word endpoint")
	cmd.Flags().IntVar(&gameRetries, "retries", defaultRetries, "words requested before giving up on invalid ones")
	cmd.Flags().StringVar(&gameDB, "db", config.DefaultDBPath(), "history database path")
}

// loadFileConfig reads the TOML config and applies HANGMAN_* overrides.
func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	if err := fileCfg.ApplyEnv(); err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// resolveGameConfig layers file values under explicit flags.
func resolveGameConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyStringConfig(cmd, "lang", &gameLang, fileCfg.Game.Lang)
	applyIntConfig(cmd, "attempts", &gameAttempts, fileCfg.Game.Attempts)
	applyIntConfig(cmd, "seconds", &gameSeconds, fileCfg.Game.Seconds)
	applyStringConfig(cmd, "db", &gameDB, fileCfg.Game.DBPath)
	applyStringConfig(cmd, "source", &gameSource, fileCfg.Words.Source)
	applyStringConfig(cmd, "word-url", &gameWordURL, fileCfg.Words.URL)
	applyIntConfig(cmd, "retries", &gameRetries, fileCfg.Words.Retries)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	lang, err := model.ParseLanguage(gameLang)
	if err != nil {
		return model.Config{}, fmt.Errorf("--lang must be one of en, es, fr: %w", err)
	}
	cfg := model.Config{
		Lang:     lang,
		Attempts: gameAttempts,
		Seconds:  gameSeconds,
		Source:   strings.ToLower(strings.TrimSpace(gameSource)),
		WordURL:  strings.TrimSpace(gameWordURL),
		Retries:  gameRetries,
		DBPath:   gameDB,
		LogLevel: logLevel,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveGameConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	logPath := config.DefaultLogPath()
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		logPath = *fileCfg.Log.File
	}
	log, logCloser, err := logging.File(logPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logCloser.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	history, closeHistory := openHistory(ctx, cfg.DBPath, log)
	defer closeHistory()

	ctrl := newController(cfg, newWordSource(cfg, log), history, log)
	m := tui.NewModel(ctrl, tui.WithLogger(log), tui.WithStorageStatus(history.Degraded))
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	addGameFlags(cmd)
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().IntVar(&serveRateLimit, "rate-limit", defaultRateLimit, "intents per second (0 disables)")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveGameConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyIntConfig(cmd, "rate-limit", &serveRateLimit, fileCfg.Serve.RateLimit)
	if serveAddr == "" {
		return fmt.Errorf("--addr must not be empty")
	}
	if serveRateLimit < 0 {
		return fmt.Errorf("--rate-limit must be >= 0")
	}

	log, err := logging.Console(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	history, closeHistory := openHistory(ctx, cfg.DBPath, log)
	defer closeHistory()

	ctrl := newController(cfg, newWordSource(cfg, log), history, log)
	srv := httpserver.New(ctrl,
		httpserver.WithLogger(log),
		httpserver.WithRateLimit(float64(serveRateLimit), serveRateLimit*2),
		httpserver.WithStorageStatus(history.Degraded),
	)
	srv.Start(ctx)
	if err := srv.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recorded rounds",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().BoolVar(&historyClear, "clear", false, "delete all recorded rounds")
	cmd.Flags().StringVar(&historyLang, "lang", "", "language filter")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N rounds")
	cmd.Flags().StringVar(&gameDB, "db", config.DefaultDBPath(), "history database path")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "db", &gameDB, fileCfg.Game.DBPath)
	filter, err := statsFilter(historyLang, historyLast)
	if err != nil {
		return err
	}

	st, err := store.Open(gameDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	out := cmd.OutOrStdout()
	display := displayLanguage(fileCfg)
	if historyClear {
		if err := st.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		_, err := fmt.Fprintln(out, i18n.T(display, i18n.HistoryEmpty))
		return err
	}

	entries, err := st.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := printTitle(out, i18n.T(display, i18n.History)); err != nil {
		return err
	}
	return stats.RenderHistory(out, stats.Filter(entries, filter), display)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show win rate and streaks",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLang, "lang", "", "language filter")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().StringVar(&gameDB, "db", config.DefaultDBPath(), "history database path")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "db", &gameDB, fileCfg.Game.DBPath)
	filter, err := statsFilter(statsLang, statsLast)
	if err != nil {
		return err
	}

	st, err := store.Open(gameDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, filter)
	if err != nil {
		return err
	}
	return stats.RenderSummary(cmd.OutOrStdout(), report, displayLanguage(fileCfg), stats.TerminalWidth(os.Stdout))
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List supported word languages",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	display := displayLanguage(fileCfg)
	for _, lang := range model.Languages {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", lang, i18n.LanguageName(display, lang)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newWordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "word",
		Short: "Fetch one word from the configured source",
		Args:  cobra.NoArgs,
		RunE:  runWordCmd,
	}
	addGameFlags(cmd)
	return cmd
}

func runWordCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveGameConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	log, err := logging.Console(cfg.LogLevel)
	if err != nil {
		return err
	}
	word, err := newWordSource(cfg, log).FetchWord(cmd.Context(), cfg.Lang)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), word); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates path with the commented defaults unless it exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// openHistory wraps the SQLite store in a fallback. An unopenable database
// still yields a working in-memory history.
func openHistory(ctx context.Context, path string, log zerolog.Logger) (*store.Fallback, func()) {
	st, err := store.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("history database unavailable")
		return store.NewFallback(ctx, nil, log), func() {}
	}
	return store.NewFallback(ctx, st, log), func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close db")
		}
	}
}

func newWordSource(cfg model.Config, log zerolog.Logger) session.WordSource {
	if cfg.Source == sourceFile {
		return wordlist.NewSource(config.DefaultWordListDir())
	}
	return words.NewClient(cfg.WordURL, words.WithRetries(cfg.Retries), words.WithLogger(log))
}

func newController(cfg model.Config, src session.WordSource, history store.History, log zerolog.Logger) *session.Controller {
	return session.New(src, history,
		session.WithLanguage(cfg.Lang),
		session.WithLogger(log),
		session.WithEngineOptions(engine.WithAttempts(cfg.Attempts), engine.WithRoundSeconds(cfg.Seconds)),
	)
}

func statsFilter(lang string, last int) (model.StatsConfig, error) {
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{Last: last}
	if lang == "" {
		return cfg, nil
	}
	parsed, err := model.ParseLanguage(lang)
	if err != nil {
		return model.StatsConfig{}, fmt.Errorf("--lang must be one of en, es, fr: %w", err)
	}
	cfg.Lang = parsed
	return cfg, nil
}

// displayLanguage picks the label language for one-shot commands.
func displayLanguage(fileCfg config.FileConfig) model.Language {
	if fileCfg.Game.Lang == nil {
		return model.LangEN
	}
	lang, err := model.ParseLanguage(*fileCfg.Game.Lang)
	if err != nil {
		return model.LangEN
	}
	return lang
}

func printTitle(w io.Writer, title string) error {
	if stats.IsTerminal(w) {
		title = titleStyle.Render(title)
	}
	_, err := fmt.Fprintln(w, title)
	return err
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# hangman configuration
# Uncomment a value to enable it. HANGMAN_* environment variables override
# these, and CLI flags override both.

[game]
# lang = %q               # Word language: en, es, fr
# attempts = %d            # Wrong guesses allowed per round
# seconds = %d            # Seconds per round
# db = %q

[words]
# source = %q            # api or file
# url = %q
# retries = %d             # Words requested before giving up on invalid ones

[log]
# level = %q
# file = %q

[serve]
# addr = %q
# rate-limit = %d         # Intents per second, 0 disables
`,
		defaultLang,
		engine.DefaultAttempts,
		engine.DefaultSeconds,
		config.DefaultDBPath(),
		defaultSource,
		words.DefaultBaseURL,
		defaultRetries,
		logging.DefaultLevel,
		config.DefaultLogPath(),
		defaultAddr,
		defaultRateLimit,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Attempts <= 0 {
		return fmt.Errorf("--attempts must be > 0")
	}
	if cfg.Seconds <= 0 {
		return fmt.Errorf("--seconds must be > 0")
	}
	if cfg.Source != sourceAPI && cfg.Source != sourceFile {
		return fmt.Errorf("--source must be %q or %q", sourceAPI, sourceFile)
	}
	if cfg.Source == sourceAPI && cfg.WordURL == "" {
		return fmt.Errorf("--word-url must not be empty")
	}
	if cfg.Retries <= 0 {
		return fmt.Errorf("--retries must be > 0")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("--db must not be empty")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("--log-level must be a zerolog level: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
