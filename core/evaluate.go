package core

import (
	"context"
	"time"

	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/outwriter"
	"github.com/huangsam/tierscope/schema"
)

// ExecuteEvaluate runs the evaluation harness on the roster and prints the report.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	records, err := LoadRoster(cfg, mgr)
	if err != nil {
		return err
	}
	report, err := EvaluateRoster(ctx, records, OptionsFromConfig(cfg), cfg.Reference)
	if err != nil {
		return err
	}
	return outwriter.PrintEvaluationReport(report, cfg, time.Since(start))
}

// EvaluateRoster scores neighbor classification against reference labels across test
// fractions, normalizers, folds and neighbor counts.
func EvaluateRoster(ctx context.Context, records []schema.StudentRecord, opts Options, reference schema.ReferencePreset) (schema.EvaluationReport, error) {
	builder, err := NewEvaluationBuilder(records, opts, reference)
	if err != nil {
		return schema.EvaluationReport{}, err
	}
	steps := []func() *EvaluationBuilder{
		builder.EvaluateSplits,
		builder.CompareNormalizations,
		builder.CrossValidate,
		builder.SweepNeighbors,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return schema.EvaluationReport{}, err
		}
		step()
	}
	return builder.Build(), nil
}
