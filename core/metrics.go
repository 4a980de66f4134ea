package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/tierscope/core/algo"
	"github.com/huangsam/tierscope/internal/contract"
	"github.com/huangsam/tierscope/internal/outwriter"
	"github.com/huangsam/tierscope/schema"
)

// presetPurposes explains each cluster composite preset.
var presetPurposes = map[schema.CompositePreset]string{
	schema.StandardPreset: "Ten weighted features over scores, behavior and consistency. Used to rank clusters.",
	schema.CompactPreset:  "Average score with behavior, attendance and punctuality only.",
}

// ExecuteMetrics displays the composite formulas, penalties and anomaly rules.
// This is a static display that does not read any roster.
func ExecuteMetrics(_ context.Context, cfg *contract.Config) error {
	return outwriter.PrintMetricsDefinitions(BuildMetricsModel(cfg.Preset), cfg)
}

// BuildMetricsModel describes every formula of the pipeline. The active preset is marked.
func BuildMetricsModel(active schema.CompositePreset) schema.MetricsRenderModel {
	if active == "" {
		active = schema.StandardPreset
	}
	presets := make([]schema.PresetWithData, 0, len(schema.ValidCompositePresets))
	for _, preset := range []schema.CompositePreset{schema.StandardPreset, schema.CompactPreset} {
		terms := presetTerms(preset)
		presets = append(presets, schema.PresetWithData{
			Name:    string(preset),
			Purpose: presetPurposes[preset],
			Terms:   terms,
			Formula: formatFormula(terms),
			Active:  preset == active,
		})
	}

	return schema.MetricsRenderModel{
		Title:          "Tier Classification Formulas",
		Description:    "Clusters are ranked by a preset composite. The reported tier comes from the primary composite, demoted by anomaly severity.",
		ClusterPresets: presets,
		PrimaryFormula: algo.PrimaryFormula,
		Penalties:      algo.PenaltyLadders(),
		TierCutoffs:    algo.TierCutoffs(),
		AnomalyRules:   algo.NewAnomalyEngine().Rules(),
		Demotion:       algo.DemotionTable(),
	}
}

// presetTerms lists the non-zero weights of a preset in feature order.
func presetTerms(preset schema.CompositePreset) []schema.WeightedTerm {
	weights := schema.GetDefaultWeights(preset)
	var terms []schema.WeightedTerm
	for _, key := range schema.FeatureKeys {
		if w := weights[key]; w != 0 {
			terms = append(terms, schema.WeightedTerm{Key: string(key), Weight: w})
		}
	}
	return terms
}

func formatFormula(terms []schema.WeightedTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf("%.2f*%s", t.Weight, t.Key)
	}
	return strings.Join(parts, " + ")
}
