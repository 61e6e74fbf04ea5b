package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/markbook/markbook/internal/grader"
	"github.com/markbook/markbook/internal/handler"
	appI18n "github.com/markbook/markbook/internal/i18n"
	"github.com/markbook/markbook/internal/store"
	"github.com/markbook/markbook/internal/table"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "markbook",
		Short: "Exam grading and wrong-question book service",
	}

	serve := serveCmd()
	root.AddCommand(serve, gradeCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `markbook --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP grading server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "markbook.db", "SQLite exam archive path")
	f.StringP("lang", "l", "zh", "Message language (en, zh)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade two CSV files offline and write the class score summary",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("bank", "", "Question bank CSV path (required)")
	f.String("sheet", "", "Student answer sheet CSV path (required)")
	f.String("exam", "", "Exam name for the archive")
	f.String("db", "", "SQLite exam archive path (empty = do not archive)")
	f.StringP("output", "o", "-", "Output CSV path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("bank")
	_ = cmd.MarkFlagRequired("sheet")

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

	v.SetEnvPrefix("MARKBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("markbook")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/markbook")
	v.AddConfigPath("/etc/markbook")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	archive, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	current := store.NewCurrent()
	h := handler.New(current, archive)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origins"),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	bank, err := readCSVFile(v.GetString("bank"))
	if err != nil {
		return err
	}
	sheet, err := readCSVFile(v.GetString("sheet"))
	if err != nil {
		return err
	}

	run, err := grader.Grade(bank, sheet, grader.Options{Exam: v.GetString("exam")})
	if err != nil {
		return fmt.Errorf("grade: %w", err)
	}
	slog.Info("graded",
		"run_id", run.ID,
		"students", len(run.Order),
		"questions", len(run.Questions),
		"paper_total", run.PaperTotal,
	)

	if dbPath := v.GetString("db"); dbPath != "" {
		archive, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer archive.Close()
		if err := archive.SaveRun(run); err != nil {
			return fmt.Errorf("archive run: %w", err)
		}
	}

	current := store.NewCurrent()
	current.Commit(run)
	summary, err := current.ClassSummary()
	if err != nil {
		return err
	}

	out := table.Table{Columns: []string{"name", "score"}}
	for _, sc := range summary {
		out.Rows = append(out.Rows, table.Row{
			"name":  table.TextCell(sc.Name),
			"score": table.NumberCell(sc.Score),
		})
	}

	outPath := v.GetString("output")
	w := os.Stdout
	if outPath != "" && outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return table.WriteCSV(w, out)
}

func readCSVFile(path string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := table.ReadCSV(f)
	if err != nil {
		return table.Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}
