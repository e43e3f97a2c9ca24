package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Narayana221/FinanceApp/internal/advice"
	"github.com/Narayana221/FinanceApp/internal/config"
	"github.com/Narayana221/FinanceApp/internal/export"
	"github.com/Narayana221/FinanceApp/internal/logger"
	"github.com/Narayana221/FinanceApp/internal/pipeline"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "advise":
		runAdvise(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FinanceApp CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Analyze a bank statement CSV and print the summary")
	fmt.Println("  advise    Analyze a CSV and ask the AI coach for tips")
	fmt.Println("  export    Analyze a CSV and write cleaned transactions to a file")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// analyzeFile runs the full pipeline over a local CSV file.
func analyzeFile(ctx context.Context, cfg *config.Config, path string) (*pipeline.PipelineState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analyzeFile: reading %s: %w", path, err)
	}

	state := &pipeline.PipelineState{
		RawData:          data,
		Encodings:        cfg.Encodings,
		DayFirst:         cfg.DayFirst,
		MinViableRows:    cfg.MinViableRows,
		OutlierThreshold: decimal.NewFromFloat(cfg.OutlierThreshold),
	}
	if err := pipeline.NewAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	file := fs.String("file", "", "Path to the bank statement CSV")
	asJSON := fs.Bool("json", false, "Print the full analysis as JSON")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	state, err := analyzeFile(ctx, cfg, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]interface{}{
			"format":       state.Mapping.Format,
			"encoding":     state.Encoding,
			"report":       state.Report,
			"summary":      state.Summary,
			"categories":   state.Categories,
			"monthly":      state.Monthly,
			"outliers":     state.Outliers,
			"transactions": state.Transactions,
		})
		return
	}

	printSummary(state)
}

func printSummary(state *pipeline.PipelineState) {
	fmt.Println("\n=== Analysis ===")
	fmt.Printf("Format:    %s\n", state.Mapping.Format)
	fmt.Printf("Encoding:  %s\n", state.Encoding)
	fmt.Printf("Rows:      %d total, %d valid, %d skipped\n",
		state.Report.TotalRows, state.Report.ValidRows, state.Report.SkippedRows)
	for _, w := range state.Report.Warnings {
		fmt.Printf("Warning:   %s\n", w)
	}

	fmt.Println("\n=== Summary ===")
	fmt.Printf("Income:       £%s\n", state.Summary.TotalIncome.StringFixed(2))
	fmt.Printf("Expenses:     £%s\n", state.Summary.TotalExpenses.StringFixed(2))
	fmt.Printf("Net savings:  £%s\n", state.Summary.NetSavings.StringFixed(2))
	fmt.Printf("Savings rate: %s%%\n", state.Summary.SavingsRate.StringFixed(2))

	if len(state.Categories) > 0 {
		fmt.Println("\n=== Spending by Category ===")
		for _, cs := range state.Categories {
			fmt.Printf("%-16s £%s\n", cs.Category, cs.Amount.StringFixed(2))
		}
	}

	if len(state.Monthly) > 0 {
		fmt.Println("\n=== Monthly Trends ===")
		for _, m := range state.Monthly {
			fmt.Printf("%s  income £%s  expenses £%s  net £%s\n",
				m.Month, m.TotalIncome.StringFixed(2),
				m.TotalExpenses.StringFixed(2), m.NetSavings.StringFixed(2))
		}
	}

	if len(state.Outliers) > 0 {
		fmt.Printf("\n=== Outliers (%d) ===\n", len(state.Outliers))
		for _, o := range state.Outliers {
			fmt.Printf("%s  %-30s £%s  (%s)\n",
				o.Date.Format("2006-01-02"), o.Description,
				o.Amount.StringFixed(2), o.Reason)
		}
	}
	fmt.Println()
}

func runAdvise(log zerolog.Logger) {
	fs := flag.NewFlagSet("advise", flag.ExitOnError)
	file := fs.String("file", "", "Path to the bank statement CSV")
	goal := fs.Float64("goal", 0, "Monthly savings goal")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	state, err := analyzeFile(ctx, cfg, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	coach := advice.NewCoach(cfg.GeminiAPIKey, cfg.GeminiModel,
		advice.WithTimeout(cfg.AdviceTimeout),
		advice.WithRetries(cfg.AdviceRetries),
	)
	payload := advice.BuildPayload(state.Summary, state.Categories, decimal.NewFromFloat(*goal))
	result := coach.Advise(ctx, payload)

	if !result.OK {
		fmt.Fprintln(os.Stderr, result.Message)
		os.Exit(1)
	}

	fmt.Println("\n=== AI Coach ===")
	fmt.Println(result.Advice)
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("file", "", "Path to the bank statement CSV")
	out := fs.String("out", "transactions.csv", "Output path for the cleaned CSV")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	state, err := analyzeFile(ctx, cfg, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := export.WriteCSV(f, state.Transactions); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}

	fmt.Printf("Wrote %d transactions to %s\n", len(state.Transactions), *out)
}
