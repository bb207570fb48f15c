package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hyperjump/synopsis/internal/chat"
	"github.com/hyperjump/synopsis/internal/cli"
	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/internal/storage"
	"go.uber.org/zap"
)

func runSummarize(args []string) {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	ratio := fs.Float64("ratio", 0, "fraction of sentences to keep, in (0, 1] (0 = config default)")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	save := fs.Bool("save", false, "store the summary in history")
	email := fs.String("email", "", "comma-separated recipients to mail the summary to")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: synopsis summarize [flags] <file|->...\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(reorderArgs(fs, args))
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, _, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger := newLogger(cfg.Debug || *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, *save)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	req := models.SummarizeRequest{Ratio: *ratio, Save: *save, Email: splitList(*email)}
	if err := req.Validate(); err != nil {
		fatalf("Invalid -ratio: %v", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		files     []string
		summaries []*models.Summary
	)
	for _, arg := range fs.Args() {
		if arg != "-" {
			files = append(files, arg)
			continue
		}
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatalf("Failed to read stdin: %v", err)
		}
		r := req
		r.Source = "stdin"
		sum, err := components.Service.SummarizeContent(ctx, content, ".txt", r)
		if err != nil {
			fatalf("Summarize stdin failed: %v", err)
		}
		summaries = append(summaries, sum)
	}
	if len(files) > 0 {
		results, err := components.Service.SummarizeFilesRequest(ctx, files, req)
		if err != nil {
			fatalf("Summarize failed: %v", err)
		}
		summaries = append(summaries, results...)
	}

	for _, sum := range summaries {
		if err := cli.WriteSummary(os.Stdout, sum, format); err != nil {
			fatalf("Output failed: %v", err)
		}
	}
}

func runChat(args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	ratio := fs.Float64("ratio", 0, "fraction of sentences to keep (0 = config default)")
	save := fs.Bool("save", false, "store summaries in history")
	_ = fs.Parse(args)

	cfg, _, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	// Logging stays off unless debugging; the prompt owns the terminal.
	logger := zap.NewNop()
	if cfg.Debug || *debug {
		logger = newLogger(true)
		defer logger.Sync()
	}

	components, err := initializeComponents(cfg, logger, *save)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	bot := chat.NewBot(cfg.Chat.Name, cfg.Chat.Conversation)
	session := cli.NewSession(bot, components.Service, cli.WithRatio(*ratio), cli.WithSave(*save))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := session.Run(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fatalf("Chat failed: %v", err)
	}
}

func runHistory(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: synopsis history <list|show|delete> [flags] [id]")
		fmt.Println("  synopsis history list [--offset N] [--limit N]  List stored summaries, newest first")
		fmt.Println("  synopsis history show <id>                      Show one summary")
		fmt.Println("  synopsis history delete <id>                    Delete one summary")
		os.Exit(1)
	}
	sub := args[0]
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	offset := fs.Int("offset", 0, "number of summaries to skip")
	limit := fs.Int("limit", 20, "number of summaries to show")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(reorderArgs(fs, args[1:]))
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, _, err := loadConfigOrDefault(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open history: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	switch sub {
	case "list":
		list, err := store.ListSummaries(ctx, *offset, *limit)
		if err != nil {
			fatalf("List failed: %v", err)
		}
		total, err := store.CountSummaries(ctx)
		if err != nil {
			fatalf("Count failed: %v", err)
		}
		page := &models.SummaryList{Summaries: list, Total: total, Offset: *offset, Limit: *limit}
		if err := cli.WriteSummaryList(os.Stdout, page, format); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "show", "delete":
		if fs.NArg() < 1 {
			fatalf("Usage: synopsis history %s <id>", sub)
		}
		id := fs.Arg(0)
		if sub == "delete" {
			if err := store.DeleteSummary(ctx, id); err != nil {
				fatalf("Delete failed: %v", err)
			}
			fmt.Printf("Deleted: %s\n", id)
			return
		}
		sum, err := store.GetSummary(ctx, id)
		if err != nil {
			fatalf("Show failed: %v", err)
		}
		if err := cli.WriteSummary(os.Stdout, sum, format); err != nil {
			fatalf("Output failed: %v", err)
		}
	default:
		fatalf("Unknown history subcommand: %s", sub)
	}
}

// statusConfigResponse mirrors the "config" object of GET /api/v1/status.
type statusConfigResponse struct {
	Ratio         float64 `json:"ratio"`
	FoldCase      bool    `json:"fold_case"`
	MaxInputBytes int64   `json:"max_input_bytes"`
	Parallelism   int     `json:"parallelism"`
	DatabasePath  string  `json:"database_path"`
	MailEnabled   bool    `json:"mail_enabled"`
	OutputDir     string  `json:"output_dir,omitempty"`
}

// statusResponse mirrors GET /api/v1/status.
type statusResponse struct {
	DefaultRatio        float64               `json:"default_ratio"`
	SupportedExtensions []string              `json:"supported_extensions"`
	HistoryEnabled      bool                  `json:"history_enabled"`
	Summaries           int64                 `json:"summaries"`
	WatchDirectories    []string              `json:"watch_directories,omitempty"`
	DiskUsageBytes      *int64                `json:"disk_usage_bytes,omitempty"`
	Config              *statusConfigResponse `json:"config,omitempty"`
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = *res
	} else {
		cfg, _, err := loadConfigOrDefault(*configPath)
		if err != nil {
			fatalf("Failed to load config: %v", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fatalf("Failed to open history: %v", err)
		}
		defer store.Close()
		count, err := store.CountSummaries(context.Background())
		if err != nil {
			fatalf("Count summaries failed: %v", err)
		}
		status = statusResponse{
			DefaultRatio:     cfg.Summary.Ratio,
			HistoryEnabled:   true,
			Summaries:        count,
			WatchDirectories: cfg.Watch.Directories,
			Config: &statusConfigResponse{
				Ratio:         cfg.Summary.Ratio,
				FoldCase:      cfg.Summary.FoldCaseOrDefault(),
				MaxInputBytes: cfg.Summary.MaxInputBytes,
				Parallelism:   cfg.Summary.Parallelism,
				DatabasePath:  cfg.Storage.DatabasePath,
				MailEnabled:   cfg.Mail.Enabled,
				OutputDir:     cfg.Watch.OutputDir,
			},
		}
		if size, err := storage.DatabaseSize(cfg.Storage.DatabasePath); err == nil {
			status.DiskUsageBytes = &size
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fatalf("Unknown output format %q; use text or json", *outputFormat)
	}
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "summaries:          %d   # stored in history\n", status.Summaries)
	fmt.Fprintf(w, "default_ratio:      %.2f\n", status.DefaultRatio)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # history database on disk\n", *status.DiskUsageBytes)
	}
	for _, d := range status.WatchDirectories {
		fmt.Fprintf(w, "watch_directory:    %s\n", d)
	}
	if status.Config != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		fmt.Fprintf(w, "fold_case:          %t\n", status.Config.FoldCase)
		fmt.Fprintf(w, "max_input_bytes:    %d\n", status.Config.MaxInputBytes)
		fmt.Fprintf(w, "parallelism:        %d\n", status.Config.Parallelism)
		fmt.Fprintf(w, "mail_enabled:       %t\n", status.Config.MailEnabled)
		if status.Config.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", status.Config.DatabasePath)
		}
		if status.Config.OutputDir != "" {
			fmt.Fprintf(w, "output_dir:         %s\n", status.Config.OutputDir)
		}
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// runWatch either manages a running server's watched directories
// (add/remove/list) or, with no subcommand, runs the inbox watcher in the foreground.
func runWatch(args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "add", "remove", "list":
			runWatchRemote(args[0], args[1:])
			return
		}
	}
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Watch.Directories) == 0 {
		fatalf("No watch.directories configured")
	}
	logger := newLogger(cfg.Debug || *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	w := newInboxWatcher(ctx, cfg, components.Service, logger)
	if err := w.Start(ctx); err != nil {
		fatalf("Failed to start watcher: %v", err)
	}
	defer w.Stop()
	logger.Info("watching inbox", zap.Strings("directories", w.Directories()), zap.String("output_dir", cfg.Watch.OutputDir))
	w.SyncExistingFiles()
	<-ctx.Done()
	logger.Info("Shutting down...")
}

func runWatchRemote(sub string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(reorderArgs(fs, args))
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fatalf("Usage: synopsis watch add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fatalf("Add failed (%d): %s", resp.StatusCode, string(b))
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: synopsis watch remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fatalf("Remove failed (%d): %s", resp.StatusCode, string(b))
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fatalf("List failed (%d): %s", resp.StatusCode, string(b))
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fatalf("Parse failed: %v", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	}
}
