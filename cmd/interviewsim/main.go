package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/interviewsim/internal/catalog"
	"github.com/pavelanni/interviewsim/internal/handler"
	appI18n "github.com/pavelanni/interviewsim/internal/i18n"
	"github.com/pavelanni/interviewsim/internal/llm"
	"github.com/pavelanni/interviewsim/internal/metrics"
	"github.com/pavelanni/interviewsim/internal/model"
	"github.com/pavelanni/interviewsim/internal/store"
	"github.com/pavelanni/interviewsim/internal/tui"
	"github.com/pavelanni/interviewsim/internal/voice"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "interviewsim",
		Short: "Job interview practice with generated or catalog questions",
	}

	serve := serveCmd()
	root.AddCommand(serve, practiceCmd(), rolesCmd(), recommendCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `interviewsim --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command, level string) {
	f := cmd.Flags()
	f.String("log-level", level, "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-provider", llm.ProviderOpenAI, "Text generation provider (openai, gemini, none)")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty for the provider default)")
	f.String("llm-key", "", "API key; without one the catalog is used")
	f.String("llm-model", "gpt-4o-mini", "Model name")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Timeout for a single generation call")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP interview server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "interviewsim.db", "SQLite database path for the report archive")
	f.String("catalog", "", "Catalog YAML file (empty for the built-in catalog)")
	f.StringP("lang", "l", "en", "Default language (en, ru)")
	f.String("admin-user", "admin", "Initial reviewer username")
	f.String("admin-password", "", "Initial reviewer password (or set INTERVIEWSIM_ADMIN_PASSWORD)")
	addLLMFlags(cmd)
	addLogFlags(cmd, "info")
	return cmd
}

func practiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice an interview in the terminal",
		RunE:  runPractice,
	}
	f := cmd.Flags()
	f.String("catalog", "", "Catalog YAML file (empty for the built-in catalog)")
	f.StringP("lang", "l", "en", "Interface language (en, ru)")
	f.StringP("out", "o", ".", "Directory for report files (empty to skip writing)")
	f.String("db", "", "Also archive reports in this SQLite database")
	f.String("tts-cmd", "", `Text-to-speech command, e.g. "espeak -s 150"`)
	f.String("stt-cmd", "", "Speech-to-text command printing the transcription; {wait} and {phrase} are replaced by seconds")
	addLLMFlags(cmd)
	addLogFlags(cmd, "warn")
	return cmd
}

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List the career tracks in the catalog",
		RunE:  runRoles,
	}
	f := cmd.Flags()
	f.String("catalog", "", "Catalog YAML file (empty for the built-in catalog)")
	f.Bool("json", false, "Print JSON")
	addLogFlags(cmd, "warn")
	return cmd
}

func recommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest career tracks for a skills and interests profile",
		RunE:  runRecommend,
	}
	f := cmd.Flags()
	f.String("catalog", "", "Catalog YAML file (empty for the built-in catalog)")
	f.String("name", "", "Your name")
	f.StringSlice("skills", nil, "Skills (repeatable or comma-separated)")
	f.StringSlice("interests", nil, "Interests (repeatable or comma-separated)")
	f.Bool("json", false, "Print JSON")
	addLogFlags(cmd, "warn")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived interview reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "interviewsim.db", "SQLite database path")
	f.String("role", "", "Only export reports for this role")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd, "info")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("INTERVIEWSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("interviewsim")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/interviewsim")
	v.AddConfigPath("/etc/interviewsim")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// newGenerator returns nil when generation is not configured or the
// endpoint does not answer; interviews then run on catalog content.
func newGenerator(ctx context.Context, v *viper.Viper) (llm.Generator, error) {
	gen, err := llm.New(ctx, llm.Config{
		Provider: v.GetString("llm-provider"),
		BaseURL:  v.GetString("llm-url"),
		APIKey:   v.GetString("llm-key"),
		Model:    v.GetString("llm-model"),
		Timeout:  v.GetDuration("llm-timeout"),
	})
	if errors.Is(err, llm.ErrNoCredential) {
		slog.Info("no LLM credential configured, using the question catalog")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	if p, ok := gen.(llm.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed, using the question catalog", "error", err)
			return nil, nil
		}
	}
	slog.Info("LLM endpoint OK",
		"provider", v.GetString("llm-provider"),
		"url", v.GetString("llm-url"),
		"model", v.GetString("llm-model"))
	return gen, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := loadCatalog(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedReviewer(db, v.GetString("admin-user"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed reviewer: %w", err)
	}
	if err := recordCatalog(db, cat); err != nil {
		return fmt.Errorf("record catalog: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gen, err := newGenerator(ctx, v)
	if err != nil {
		return err
	}

	h := handler.New(cat, db, gen, metrics.NewMetrics())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"generative", gen != nil,
		"model", v.GetString("llm-model"),
		"lang", lang,
		"roles", len(cat.Roles()),
	)
	return http.ListenAndServe(addr, r)
}

func runPractice(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !tui.IsInteractive() {
		return errors.New("practice needs an interactive terminal")
	}

	cat, err := loadCatalog(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(lang))

	gen, err := newGenerator(ctx, v)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	opts := tui.Options{
		Catalog:   cat,
		Generator: gen,
		Recorder:  m,
		OutDir:    v.GetString("out"),
		Out:       os.Stdout,
	}
	if s := voice.NewCommandSpeaker(v.GetString("tts-cmd")); s != nil {
		opts.Speaker = s
	}
	if l := voice.NewCommandListener(v.GetString("stt-cmd")); l != nil {
		opts.Listener = l
	}

	if path := v.GetString("db"); path != "" {
		db, err := store.New(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := recordCatalog(db, cat); err != nil {
			return fmt.Errorf("record catalog: %w", err)
		}
		opts.Saved = func(rep model.Report) {
			if err := db.SaveReport(rep); err != nil {
				slog.Error("failed to archive report", "session_id", rep.SessionID, "error", err)
			}
		}
	}

	err = tui.New(tui.HuhPrompter{}, opts).Run(ctx)
	slog.Info("practice finished", "metrics", m.Snapshot())
	return err
}

func runRoles(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cat, err := loadCatalog(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if v.GetBool("json") {
		return writeJSON(os.Stdout, cat.Roles())
	}

	name := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	for _, r := range cat.Roles() {
		fmt.Println(name.Render(r.Name) + muted.Render(" ("+r.DisplayLabel()+")"))
		fmt.Println("  " + r.Description)
		fmt.Println(muted.Render("  focus: " + strings.Join(r.FocusAreas, ", ")))
		fmt.Println(muted.Render("  levels: " + strings.Join(r.Levels, ", ")))
	}
	return nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cat, err := loadCatalog(v.GetString("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	recs := cat.Recommend(model.UserProfile{
		Name:      v.GetString("name"),
		Skills:    v.GetStringSlice("skills"),
		Interests: v.GetStringSlice("interests"),
	})
	if v.GetBool("json") {
		if recs == nil {
			recs = []model.Recommendation{}
		}
		return writeJSON(os.Stdout, recs)
	}
	if len(recs) == 0 {
		fmt.Println("No matching tracks. Try listing more skills or interests.")
		return nil
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	for i, rec := range recs {
		fmt.Println(title.Render(fmt.Sprintf("%d. %s (score %d)", i+1, rec.Label, rec.Score)))
		for _, reason := range rec.Reasons {
			fmt.Println("   " + reason)
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	archive, err := db.ExportAll(v.GetString("role"))
	if err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeJSON(w, archive); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("exported reports", "count", archive.Count, "output", outPath)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func recordCatalog(db *store.Store, cat *catalog.Catalog) error {
	changed, err := db.RecordCatalog(cat.Fingerprint(), len(cat.Roles()))
	if err != nil {
		return err
	}
	if changed {
		slog.Info("catalog changed since the last run; older reports used different questions",
			"sha256", cat.Fingerprint())
	}
	return nil
}

func seedReviewer(db *store.Store, username, password string) error {
	count, err := db.ReviewerCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		slog.Warn("no reviewer accounts and no admin password; the report archive API is locked")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := db.CreateReviewer(username, string(hash)); err != nil {
		return fmt.Errorf("create reviewer: %w", err)
	}

	slog.Info("seeded initial reviewer", "username", username)
	return nil
}
