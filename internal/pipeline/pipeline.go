package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Narayana221/FinanceApp/internal/bankformat"
	"github.com/Narayana221/FinanceApp/internal/ingest"
	"github.com/Narayana221/FinanceApp/internal/logger"
)

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps for one
// uploaded file.
type PipelineState struct {
	// Inputs.
	RawData          []byte
	Encodings        []string
	DayFirst         bool
	MinViableRows    int
	OutlierThreshold decimal.Decimal
	Layouts          []bankformat.Layout
	Rules            []CategoryRule

	// Outputs, filled in step order.
	Encoding     string
	Table        *ingest.Table
	Mapping      bankformat.Mapping
	Normalized   []NormalizedRecord
	Report       Report
	Transactions []Transaction
	Summary      Summary
	Categories   []CategorySpend
	Monthly      []MonthlySummary
	Outliers     []Outlier
}

// NoValidRowsError is returned when every row of a decoded file was
// rejected. It carries the validation report so callers can surface the
// per-row reasons.
type NoValidRowsError struct {
	Report Report
}

func (e *NoValidRowsError) Error() string {
	return fmt.Sprintf("no valid transactions in file: all %d rows were skipped", e.Report.TotalRows)
}

// Step 1: DecodeStep resolves the file encoding and parses the CSV table.
type DecodeStep struct{}

func (s *DecodeStep) Execute(ctx context.Context, state *PipelineState) error {
	table, encoding, err := ingest.DecodeTable(state.RawData, state.Encodings)
	if err != nil {
		return err
	}
	state.Table = table
	state.Encoding = encoding
	log := logger.FromContext(ctx)
	log.Debug().
		Str("encoding", encoding).
		Int("rows", len(table.Rows)).
		Msg("decoded upload")
	return nil
}

// Step 2: DetectFormatStep maps the table's headers to the canonical fields.
type DetectFormatStep struct{}

func (s *DetectFormatStep) Execute(ctx context.Context, state *PipelineState) error {
	layouts := state.Layouts
	if layouts == nil {
		layouts = bankformat.KnownLayouts()
	}
	mapping, err := bankformat.Detect(state.Table, layouts)
	if err != nil {
		return err
	}
	state.Mapping = mapping
	log := logger.FromContext(ctx)
	log.Debug().
		Str("format", mapping.Format).
		Msg("detected bank format")
	return nil
}

// Step 3: NormalizeStep projects raw rows onto the canonical columns,
// preserving original row numbers.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	records := make([]NormalizedRecord, 0, len(state.Table.Rows))
	for i, row := range state.Table.Rows {
		rec := NormalizedRecord{
			Row:         i + 1,
			Date:        row[state.Mapping.Header(bankformat.FieldDate)],
			Description: row[state.Mapping.Header(bankformat.FieldDescription)],
			Amount:      row[state.Mapping.Header(bankformat.FieldAmount)],
		}
		if cat := state.Mapping.Header(bankformat.FieldCategory); cat != "" {
			rec.Category = row[cat]
		}
		records = append(records, rec)
	}
	state.Normalized = records
	return nil
}

// Step 4: ValidateStep partitions rows into transactions and rejections.
// A file where nothing survives is a terminal error.
type ValidateStep struct{}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, report := ValidateAll(state.Normalized, state.DayFirst, state.MinViableRows)
	state.Transactions = txs
	state.Report = report

	log := logger.FromContext(ctx)
	log.Info().
		Int("total", report.TotalRows).
		Int("valid", report.ValidRows).
		Int("skipped", report.SkippedRows).
		Msg("validated rows")
	for _, w := range report.Warnings {
		log.Warn().Msg(w)
	}

	if report.TotalRows > 0 && report.ValidRows == 0 {
		return &NoValidRowsError{Report: report}
	}
	return nil
}

// Step 5: CategorizeStep assigns a category to every transaction.
type CategorizeStep struct{}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions = NewCategorizer(state.Rules).Apply(state.Transactions)
	return nil
}

// Step 6: AggregateStep computes totals, per-category spend, monthly trends
// and outliers.
type AggregateStep struct{}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Summary = Summarize(state.Transactions)
	state.Categories = SummarizeCategories(state.Transactions)
	state.Monthly = MonthlyTrends(state.Transactions)
	state.Outliers = FlagOutliers(state.Transactions, state.OutlierThreshold)
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline creates the standard 6-step pipeline for analyzing an
// uploaded statement.
func NewAnalysisPipeline() *Pipeline {
	return NewPipeline(
		&DecodeStep{},
		&DetectFormatStep{},
		&NormalizeStep{},
		&ValidateStep{},
		&CategorizeStep{},
		&AggregateStep{},
	)
}
