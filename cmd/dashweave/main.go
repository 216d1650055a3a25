// dashweave fills JSON UI templates with real content: it selects the
// best template for a request, fills it through an LLM with a
// deterministic search fallback, and validates the packaged result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dashweave/internal/config"
	"dashweave/internal/filling"
	"dashweave/internal/llm"
	"dashweave/internal/logging"
	"dashweave/internal/merge"
	"dashweave/internal/orchestrator"
	"dashweave/internal/selector"
	"dashweave/internal/tools"
	"dashweave/internal/tools/websearch"
)

var (
	configPath string
	verbose    bool
	timeout    time.Duration

	// fill flags
	domain       string
	tabsFlag     []string
	historyFlag  []string
	fieldContext string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dashweave",
	Short: "dashweave - JSON UI template content filling pipeline",
	Long: `dashweave selects a UI template for a request, fills its
placeholders with real content through an LLM (with a deterministic
web-search fallback), and validates that the filled document keeps the
template's exact structure.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
			cfg.Logging.Level = "debug"
		}
		var categories map[string]bool
		if len(cfg.Logging.Categories) > 0 {
			categories = make(map[string]bool, len(cfg.Logging.Categories))
			for _, c := range cfg.Logging.Categories {
				categories[c] = true
			}
		}
		return logging.Configure(logging.Options{
			Dir:        cfg.Logging.Dir,
			Debug:      cfg.Logging.Debug,
			Level:      cfg.Logging.Level,
			Categories: categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var fillCmd = &cobra.Command{
	Use:   "fill [prompt]",
	Short: "Select a template and fill it for the given prompt",
	Long: `Runs the full pipeline for one request:
  1. Select: score all templates against prompt, domain, and tabs
  2. Fill: LLM completion merged under structure preservation,
     deterministic search fallback on failure
  3. Package and validate: shape check plus placeholder-ratio check,
     with bounded retry

The filled document is written to stdout as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFill,
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the loaded template registry",
	RunE:  runTemplates,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dashweave.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")

	fillCmd.Flags().StringVarP(&domain, "domain", "d", "generic", "Request domain (study, shopping, travel, entertainment, generic)")
	fillCmd.Flags().StringSliceVar(&tabsFlag, "tab", nil, "Open tab as 'title|url' (repeatable)")
	fillCmd.Flags().StringSliceVar(&historyFlag, "history", nil, "Recent search query, most recent first (repeatable)")
	fillCmd.Flags().StringVar(&fieldContext, "field-context", "", "Per-field fill guidance")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	prompt := strings.Join(args, " ")
	logger.Info("Processing fill request",
		zap.String("domain", domain),
		zap.Int("tabs", len(tabsFlag)))

	o, watcher, err := buildOrchestrator(ctx)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	result := o.Run(ctx, orchestrator.Request{
		Domain:       domain,
		UserPrompt:   prompt,
		Tabs:         parseTabs(tabsFlag),
		History:      historyFlag,
		FieldContext: fieldContext,
	})

	if !result.Success {
		return fmt.Errorf("fill failed after %d attempt(s): %w", result.Attempts, result.Err)
	}

	logger.Info("Fill succeeded",
		zap.String("template", result.TemplateID),
		zap.Int("attempts", result.Attempts))
	fmt.Println(result.FilledDocument)
	return nil
}

func runTemplates(cmd *cobra.Command, args []string) error {
	store, err := selector.LoadStore(cfg.Selection.TemplatesDir)
	if err != nil {
		return err
	}

	for _, tpl := range store.Templates() {
		name := tpl.Name
		if name == "" {
			name = tpl.ID
		}
		fmt.Printf("%-16s %s (priority %d, domains %v)\n",
			tpl.ID, name, tpl.Matching.Priority, tpl.Matching.Domains)
	}
	return nil
}

// buildOrchestrator wires the pipeline from config. Collaborators
// without credentials are left out; the pipeline degrades instead of
// failing.
func buildOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, *selector.Watcher, error) {
	store, err := selector.LoadStore(cfg.Selection.TemplatesDir)
	if err != nil {
		return nil, nil, err
	}

	var watcher *selector.Watcher
	if cfg.Selection.Watch {
		watcher, err = selector.NewWatcher(store)
		if err != nil {
			return nil, nil, err
		}
		if err := watcher.Start(ctx); err != nil {
			return nil, nil, err
		}
	}

	merger := merge.New(cfg.Filling.Sentinels)

	registry := tools.NewRegistry()
	whitelist, err := tools.LoadWhitelist(cfg.Filling.WhitelistPath)
	if err != nil {
		return nil, nil, err
	}

	var searcher filling.Searcher
	if cfg.Search.APIKey != "" {
		client, err := websearch.NewClient(websearch.Config{
			APIKey:    cfg.Search.APIKey,
			WebHost:   cfg.Search.WebHost,
			ImageHost: cfg.Search.ImageHost,
			Timeout:   cfg.GetSearchTimeout(),
		})
		if err != nil {
			return nil, nil, err
		}
		if err := websearch.RegisterAll(registry, client); err != nil {
			return nil, nil, err
		}
		searcher = client
	} else {
		logger.Warn("RAPIDAPI_KEY not set, search tools disabled")
	}

	var model llm.Client
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGeminiClient(cfg.LLM.APIKey,
			llm.WithModel(cfg.LLM.Model),
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithTimeout(cfg.GetLLMTimeout()),
		)
		if err != nil {
			return nil, nil, err
		}
		model = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, using deterministic fallback only")
	}

	engine := filling.NewEngine(filling.EngineConfig{
		Client:    model,
		Searcher:  searcher,
		Merger:    merger,
		Registry:  registry,
		Whitelist: whitelist,
	})

	o := orchestrator.New(orchestrator.Options{
		Store: store,
		Selector: selector.New(selector.Options{
			Weights: selector.Weights{
				KeywordMatch:    cfg.Selection.Weights.KeywordMatch,
				DomainMatch:     cfg.Selection.Weights.DomainMatch,
				URLPatternMatch: cfg.Selection.Weights.URLPatternMatch,
				TabCountMatch:   cfg.Selection.Weights.TabCountMatch,
			},
			MinScoreThreshold: cfg.Selection.MinScoreThreshold,
			DefaultTemplateID: cfg.Selection.DefaultTemplate,
		}),
		Filler:              engine,
		Merger:              merger,
		MaxAttempts:         cfg.MaxAttempts(),
		MaxPlaceholderRatio: cfg.Filling.MaxPlaceholderRatio,
	})
	return o, watcher, nil
}

// parseTabs parses repeated --tab values in the form "title|url".
func parseTabs(raw []string) []orchestrator.Tab {
	tabs := make([]orchestrator.Tab, 0, len(raw))
	for _, entry := range raw {
		title, url, found := strings.Cut(entry, "|")
		if !found {
			url = title
			title = ""
		}
		tabs = append(tabs, orchestrator.Tab{Title: title, URL: url})
	}
	return tabs
}
