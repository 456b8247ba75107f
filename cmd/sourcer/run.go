package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-sourcer/internal/config"
	"github.com/jonathan/candidate-sourcer/internal/db"
	"github.com/jonathan/candidate-sourcer/internal/export"
	"github.com/jonathan/candidate-sourcer/internal/ingestion"
	"github.com/jonathan/candidate-sourcer/internal/linkedin"
	"github.com/jonathan/candidate-sourcer/internal/llm"
	"github.com/jonathan/candidate-sourcer/internal/logger"
	"github.com/jonathan/candidate-sourcer/internal/matching"
	"github.com/jonathan/candidate-sourcer/internal/pipeline"
	"github.com/jonathan/candidate-sourcer/internal/pitching"
	"github.com/jonathan/candidate-sourcer/internal/retry"
	"github.com/jonathan/candidate-sourcer/internal/scoring"
	"github.com/jonathan/candidate-sourcer/internal/sourcing"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full sourcing pipeline end-to-end",
	Long: `Runs the sourcing pipeline: extraction -> sourcing -> scoring -> matching -> pitching -> report.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runJD          string
	runOutput      string
	runLimit       int
	runSessionFile string
	runAPIKey      string
	runTemperature float64
	runDatabaseURL string
	runVerbose     bool
	runJSONLogs    bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runJD, "jd", "j", "", "Path to the job description text file")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path for the xlsx report (default output.xlsx)")
	runCommand.Flags().IntVar(&runLimit, "limit", 0, "Maximum candidates to source (default 20)")
	runCommand.Flags().StringVar(&runSessionFile, "session-file", "", "Path to saved LinkedIn session cookies")
	runCommand.Flags().Float64Var(&runTemperature, "temperature", 0, "LLM sampling temperature override")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	runCommand.Flags().BoolVar(&runJSONLogs, "json-logs", false, "Emit logs as JSON instead of console text")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for artifact persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("jd") {
		cfg.JD = runJD
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = runOutput
	}
	if cmd.Flags().Changed("limit") {
		cfg.Limit = runLimit
	}
	if cmd.Flags().Changed("session-file") {
		cfg.SessionFile = runSessionFile
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = &runTemperature
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("json-logs") {
		cfg.JSONLogs = runJSONLogs
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		Output:      "output.xlsx",
		Limit:       sourcing.DefaultLimit,
		SessionFile: linkedin.DefaultSessionFile,
	})

	// Step 4: Validate required fields
	if cfg.JD == "" {
		return fmt.Errorf("--jd is required (via flag or config)")
	}

	// Step 5: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: optional database URL for artifact persistence
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	log, err := logger.New(cfg.JSONLogs, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	jobText, err := os.ReadFile(cfg.JD)
	if err != nil {
		return fmt.Errorf("failed to read job description %s: %w", cfg.JD, err)
	}

	client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	browser := linkedin.NewClient(cfg.SessionFile, linkedin.DefaultSearchTimeout, log)
	defer browser.Close()

	deps := pipeline.Deps{
		Ingestor: ingestion.NewIngestor(client, log),
		Sourcer:  sourcing.NewSourcer(browser, log),
		Scorer:   scoring.NewScorer(log),
		Matcher:  matching.NewMatcher(client, log),
		Pitcher:  pitching.NewPitcher(client, log),
		Writer:   export.NewWriter(log),
		Retry:    retry.Policy{},
		Log:      log,
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("failed to connect to database, continuing without persistence")
		} else {
			defer database.Close()
			if err := database.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to prepare database: %w", err)
			}
			deps.Store = database
		}
	}

	runCfg := pipeline.Config{pipeline.ConfigLimit: cfg.Limit}
	if cfg.Temperature != nil {
		runCfg[pipeline.ConfigTemperature] = *cfg.Temperature
	}

	artifact, err := pipeline.New(deps).Run(ctx, pipeline.RunOptions{
		JobText:    string(jobText),
		OutputPath: cfg.Output,
		Config:     runCfg,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Report written to %s\n", artifact.Path)
	return nil
}
