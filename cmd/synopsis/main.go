// Package main is the synopsis CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/synopsis/internal/config"
	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/internal/notify"
	"github.com/hyperjump/synopsis/internal/pipeline"
	"github.com/hyperjump/synopsis/internal/server"
	"github.com/hyperjump/synopsis/internal/storage"
	"github.com/hyperjump/synopsis/internal/textrank"
	"github.com/hyperjump/synopsis/internal/tokenize"
	"github.com/hyperjump/synopsis/internal/watcher"
	"github.com/hyperjump/synopsis/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/synopsis/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// loadConfigOrDefault is loadConfig for commands that work without a config
// file: a missing file at the default path yields the built-in defaults and
// an empty resolved path.
func loadConfigOrDefault(path string) (*config.Config, string, error) {
	cfg, resolved, err := loadConfig(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return config.Default(), "", nil
	}
	return cfg, resolved, err
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "summarize":
		runSummarize(args)
	case "server":
		runServer(args)
	case "watch":
		runWatch(args)
	case "chat":
		runChat(args)
	case "history":
		runHistory(args)
	case "status":
		runStatus(args)
	case "init":
		runInit(args)
	case "version", "--version", "-v":
		fmt.Printf("synopsis version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

// reorderArgs moves flags (and their values) that appear after positional
// arguments to the front so that flag.Parse sees them. Go's flag package stops
// at the first non-flag argument. A lone "-" is positional; "--" ends flags.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newLogger builds the process logger, exiting on failure.
func newLogger(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// Components holds the long-lived services built from config.
type Components struct {
	Storage *storage.SQLiteStorage
	Service *pipeline.Service
}

// Close releases the history database.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents builds the summarization pipeline. The history
// database is opened only when withStorage is set.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withStorage bool) (*Components, error) {
	tok, err := tokenize.New(tokenize.WithCaseFolding(cfg.Summary.FoldCaseOrDefault()))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	summarizer := textrank.NewSummarizer(tok,
		textrank.WithRatio(cfg.Summary.Ratio),
		textrank.WithLogger(logger),
	)
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMaxInputBytes(cfg.Summary.MaxInputBytes),
		pipeline.WithParallelism(cfg.Summary.Parallelism),
		pipeline.WithNotifier(notify.New(cfg.Mail, logger)),
	}
	c := &Components{}
	if withStorage {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		opts = append(opts, pipeline.WithStorage(store))
	}
	c.Service = pipeline.New(summarizer, opts...)
	return c, nil
}

// isGeneratedSummary reports whether path is a summary file written by the
// inbox handler, so the watcher does not summarize its own output.
func isGeneratedSummary(outputDir string) func(path string) bool {
	return func(path string) bool {
		if strings.HasSuffix(path, ".summary.txt") {
			return true
		}
		if outputDir == "" {
			return false
		}
		rel, err := filepath.Rel(outputDir, path)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}
}

// inboxHandlers returns the watcher callbacks: a changed document is
// summarized, stored, mailed to the configured recipients and written to the
// output directory; a removed document loses its summary file.
func inboxHandlers(ctx context.Context, cfg *config.Config, svc *pipeline.Service, logger *zap.Logger) (onFile, onRemove func(string)) {
	onFile = func(path string) {
		req := inboxRequest(cfg, svc.Storage() != nil)
		sum, err := svc.SummarizeFileRequest(ctx, path, req)
		if err != nil {
			logger.Warn("inbox summarize failed", zap.String("path", path), zap.Error(err))
			if sum == nil {
				return
			}
		}
		logger.Info("inbox document summarized",
			zap.String("path", path), zap.String("id", sum.ID), zap.Int("sentences", sum.SentenceCount))
		if cfg.Watch.OutputDir != "" {
			out, err := pipeline.WriteOutputFile(cfg.Watch.OutputDir, sum)
			if err != nil {
				logger.Warn("inbox write summary failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Debug("inbox summary written", zap.String("output", out))
		}
	}
	onRemove = func(path string) {
		if cfg.Watch.OutputDir == "" {
			return
		}
		out := filepath.Join(cfg.Watch.OutputDir, pipeline.OutputFileName(path))
		if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
			logger.Warn("inbox remove summary failed", zap.String("output", out), zap.Error(err))
		}
	}
	return onFile, onRemove
}

// inboxRequest returns the delivery options applied to inbox documents.
func inboxRequest(cfg *config.Config, save bool) models.SummarizeRequest {
	req := models.SummarizeRequest{Save: save}
	if cfg.Mail.Enabled && len(cfg.Mail.To) > 0 {
		req.Email = append([]string(nil), cfg.Mail.To...)
	}
	return req
}

func newInboxWatcher(ctx context.Context, cfg *config.Config, svc *pipeline.Service, logger *zap.Logger) *watcher.Watcher {
	onFile, onRemove := inboxHandlers(ctx, cfg, svc, logger)
	return watcher.NewWatcher(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		onFile,
		onRemove,
		watcher.WithLogger(logger),
		watcher.WithIgnore(isGeneratedSummary(cfg.Watch.OutputDir)),
	)
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger := newLogger(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchSvc := newInboxWatcher(ctx, cfg, components.Service, logger)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(components.Service, &cfg.Server, logger, watchSvc, resolvedConfigPath, cfg)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(args)
	path := "config.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fatalf("%s already exists (use -force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fatalf("Failed to create %s: %v", dir, err)
		}
	}
	cfg := config.Default()
	cfg.Mail.Password = ""
	if err := config.Save(path, cfg); err != nil {
		fatalf("Failed to write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func printUsage() {
	fmt.Println(`synopsis - Extractive text summarizer

Usage:
  synopsis summarize [flags] <file|->...  Summarize files (or stdin with -)
  synopsis server [flags]                 Start the HTTP server and inbox watcher
  synopsis watch [flags]                  Summarize documents dropped into the inbox directories
  synopsis watch <add|remove|list>        Manage the directories watched by a running server
  synopsis chat [flags]                   Start the interactive prompt
  synopsis history <list|show|delete>     Browse stored summaries
  synopsis status [flags]                 Show history and configuration status
  synopsis init [path]                    Write a default config file
  synopsis version                        Show version
  synopsis help                           Show this help

Summarize Flags:
  --config string    Config file path (default: /usr/local/etc/synopsis/config.yaml)
  --ratio float      Fraction of sentences to keep, in (0, 1] (default from config, or 0.2)
  --output string    Output format: text, compact or json (default: text)
  --save             Store the summary in history
  --email string     Comma-separated recipients to mail the summary to
  --debug            Enable debug logging

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging

History Flags:
  --offset int       Number of summaries to skip (list)
  --limit int        Number of summaries to show (list, default: 20)
  --output string    Output format: text, compact or json

Status / Watch Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (status)

Examples:
  synopsis summarize article.txt
  synopsis summarize --ratio 0.3 report.pdf notes.docx
  cat article.txt | synopsis summarize -output compact -
  synopsis summarize paper.odt --save --email me@example.com
  synopsis history list --limit 5
  synopsis history show 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed
  synopsis server
  synopsis watch add ~/inbox
  synopsis chat`)
}
