package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smallnest/compintel/config"
	"github.com/smallnest/compintel/insights"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/pipeline"
	"github.com/smallnest/compintel/report"
	"github.com/smallnest/compintel/scoring"
	"github.com/smallnest/compintel/scraper"
	"github.com/smallnest/compintel/warehouse"
)

var analyzeFlags struct {
	dryRun   bool
	htmlPath string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze one competitor website end to end",
	Long: `Analyze extracts facts from the competitor's website, scores them,
validates them against previously analyzed competitors and saves the
result to the warehouse.

The warehouse connection string is read from the environment variable
named in the config (default COMPINTEL_DB_URL). With --dry-run, or when
that variable is unset, nothing is persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.BoolVar(&analyzeFlags.dryRun, "dry-run", false, "Run the analysis without saving to the warehouse")
	f.StringVar(&analyzeFlags.htmlPath, "html", "", "Write an HTML report to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger, closeLogger, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLogger()

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	ragSvc, store, err := buildRAGService(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}

	catalog := model.DefaultCatalog()
	synth := insights.NewSynthesizer(llm, ragSvc, catalog, insights.Options{
		MinConfidence: cfg.Insights.MinConfidence,
		ContextLimit:  cfg.RAG.ContextLimit,
		Logger:        logger,
	})

	var persister pipeline.Persister
	if !analyzeFlags.dryRun {
		if connString := cfg.Warehouse.ConnString(); connString != "" {
			writer, err := warehouse.NewWriter(cmd.Context(), warehouse.Options{
				ConnString: connString,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			defer writer.Close()
			persister = writer
		} else {
			logger.Warn("%s is not set, results will not be persisted", cfg.Warehouse.ConnStringEnv)
		}
	}

	orch := pipeline.NewOrchestrator(
		scraper.NewHTTPScraper(scraper.Options{Logger: logger}),
		scoring.NewEngine(catalog),
		ragSvc,
		synth,
		persister,
		pipeline.Options{
			DryRun:              analyzeFlags.dryRun,
			SimilarityThreshold: cfg.RAG.SimilarityThreshold,
			Logger:              logger,
		},
	)

	result, err := orch.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), report.TerminalSummary(result))

	if analyzeFlags.htmlPath != "" {
		if err := os.WriteFile(analyzeFlags.htmlPath, report.HTML(result), 0o644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HTML report written to %s\n", analyzeFlags.htmlPath)
	}
	return nil
}
