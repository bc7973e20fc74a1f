// QuantBrief — LLM-powered stock analysis and news briefing.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/quantbrief/quantbrief/api"
	"github.com/quantbrief/quantbrief/internal/analyzer"
	"github.com/quantbrief/quantbrief/internal/config"
	"github.com/quantbrief/quantbrief/internal/document"
	"github.com/quantbrief/quantbrief/internal/llm"
	"github.com/quantbrief/quantbrief/internal/logger"
	"github.com/quantbrief/quantbrief/internal/market"
	"github.com/quantbrief/quantbrief/internal/news"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// Local development keeps API keys in a .env file; absence is fine.
	godotenv.Load() //nolint:errcheck

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "quantbrief",
	Short: "QuantBrief — LLM-powered stock analysis and news briefing",
	Long: `QuantBrief fetches live quotes and headlines for US equities and runs
them through a local Ollama model to produce short analyst-style briefs,
sentiment labels, and PDF document breakdowns.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(statusCmd)
}

// app bundles the wired components shared by the commands.
type app struct {
	log      *slog.Logger
	provider market.Provider
	news     *news.Aggregator
	llm      *llm.Client
	analyzer *analyzer.Analyzer
}

// buildApp wires the full stack from the loaded configuration.
func buildApp() *app {
	log := logger.New(cfg.Logging)

	provider := market.Select(cfg.Market, logger.With(log, "market"))
	// Google News doubles as a per-ticker source and the search backend.
	google := news.NewGoogleNews()
	agg := news.NewAggregator(logger.With(log, "news"), google, news.NewYahooRSS(), google)
	client := llm.NewClient(cfg.LLM)
	extractor := document.NewExtractor(logger.With(log, "document"))
	a := analyzer.New(logger.With(log, "analyzer"), provider, agg, client, extractor)

	return &app{
		log:      log,
		provider: provider,
		news:     agg,
		llm:      client,
		analyzer: a,
	}
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("QuantBrief %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()

		if err := a.llm.Ping(cmd.Context()); err != nil {
			a.log.Warn("ollama unreachable, analysis responses will degrade",
				"url", cfg.LLM.OllamaURL, "error", err)
		}

		srv := api.NewServer(cfg, a.log, a.analyzer, a.provider, a.news)
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Run LLM analysis on a stock",
	Long:  "Fetch the quote and recent headlines for a ticker and generate an analyst brief.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()
		ticker := utils.NormalizeTicker(args[0])

		if err := a.llm.Ping(cmd.Context()); err != nil {
			a.log.Warn("ollama unreachable, analysis responses will degrade",
				"url", cfg.LLM.OllamaURL, "error", err)
		}

		result, err := a.analyzer.AnalyzeStock(cmd.Context(), ticker)
		if err != nil {
			return err
		}

		fmt.Printf("🔍 %s  $%.2f (%+.2f%%)\n\n", result.Ticker, result.CurrentPrice, result.ChangePercent)
		fmt.Println(result.Summary)
		fmt.Printf("\nSentiment: %s\n", result.Sentiment)
		if len(result.News) > 0 {
			fmt.Println("\nRecent headlines:")
			for _, item := range result.News {
				fmt.Printf("  - %s (%s)\n", item.Title, item.Source)
			}
		}
		return nil
	},
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Fetch the current quote for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()
		ticker := utils.NormalizeTicker(args[0])

		quote, err := a.provider.GetQuote(cmd.Context(), ticker)
		if err != nil {
			return err
		}

		fmt.Printf("%s — %s\n", quote.Ticker, quote.Name)
		fmt.Printf("  Price:          $%.2f (%+.2f%%)\n", quote.CurrentPrice, quote.ChangePercent)
		fmt.Printf("  Previous Close: $%.2f\n", quote.PreviousClose)
		fmt.Printf("  Volume:         %d\n", quote.Volume)
		fmt.Printf("  Sector:         %s / %s\n", quote.Sector, quote.Industry)
		if quote.PERatio != nil {
			fmt.Printf("  P/E Ratio:      %.2f\n", *quote.PERatio)
		}
		if quote.DividendYield != nil {
			fmt.Printf("  Dividend Yield: %.2f%%\n", *quote.DividendYield)
		}
		return nil
	},
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Show recent headlines for a stock (or the broad market)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = cfg.News.DefaultLimit
		}

		var items []string
		if len(args) == 1 {
			ticker := utils.NormalizeTicker(args[0])
			for _, item := range a.news.GetNews(cmd.Context(), ticker, limit) {
				items = append(items, fmt.Sprintf("%s (%s)", item.Title, item.Source))
			}
		} else {
			for _, item := range a.news.GetMarketNews(cmd.Context(), limit) {
				items = append(items, fmt.Sprintf("%s (%s)", item.Title, item.Source))
			}
		}

		if len(items) == 0 {
			fmt.Println("No headlines found.")
			return nil
		}
		for _, line := range items {
			fmt.Printf("  - %s\n", line)
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 0, "maximum number of headlines")
}

// --- Summarize Command ---

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text]",
	Short: "Summarize text with the LLM (reads stdin when no argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()

		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			var b strings.Builder
			for scanner.Scan() {
				b.WriteString(scanner.Text())
				b.WriteByte('\n')
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = b.String()
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text provided")
		}

		fmt.Println(a.analyzer.Summarize(cmd.Context(), text))
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  QuantBrief — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Printf("  Provider:     %s\n", a.provider.Name())
		fmt.Printf("  LLM Model:    %s (%s)\n", cfg.LLM.Model, cfg.LLM.OllamaURL)
		fmt.Printf("  API Server:   %s\n", cfg.API.Addr())

		ollama := "✅ reachable"
		if err := a.llm.Ping(cmd.Context()); err != nil {
			ollama = "❌ unreachable"
		}
		fmt.Printf("  Ollama:       %s\n", ollama)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
