// Package anomaly classifies data-quality issues between an original
// sample and its transformed output. Four rules are evaluated (null
// ratio, cardinality explosion, type coercion, missing required field)
// to produce a ranked finding list plus a proceed/block verdict.
//
// Analyze is a total function: well-formed inputs never produce an error,
// and an empty finding list always yields CanProceed = true.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// Analyze compares the original and transformed samples under the given
// thresholds. Findings are ranked error > warning > info; the verdict is
// CanProceed == (error count == 0).
func Analyze(original models.SamplePreview, transformed models.TransformPreview, th models.Thresholds) models.AnalysisResult {
	var findings []models.Anomaly

	findings = append(findings, evalNullRatio(transformed, th.NullRatio)...)
	findings = append(findings, evalCardinality(original, transformed, th.Cardinality)...)
	findings = append(findings, evalTypeCoercion(original, transformed, th.TypeCoercion)...)
	findings = append(findings, evalRequiredFields(original, transformed, th.RequiredFields)...)

	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank(findings[i].Severity) > severityRank(findings[j].Severity)
	})

	summary := models.AnalysisSummary{Total: len(findings)}
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityError:
			summary.Errors++
		case models.SeverityWarning:
			summary.Warnings++
		case models.SeverityInfo:
			summary.Info++
		}
	}

	return models.AnalysisResult{
		Anomalies:  findings,
		Summary:    summary,
		CanProceed: summary.Errors == 0,
	}
}

func severityRank(s models.Severity) int {
	switch s {
	case models.SeverityError:
		return 3
	case models.SeverityWarning:
		return 2
	case models.SeverityInfo:
		return 1
	default:
		return 0
	}
}

// ── Null Ratio ───────────────────────────────────────────────

func evalNullRatio(transformed models.TransformPreview, rule models.NullRatioRule) []models.Anomaly {
	if !rule.Enabled {
		return nil
	}
	var findings []models.Anomaly
	for _, col := range transformed.Columns {
		if col.TotalCount <= 0 {
			continue
		}
		pct := float64(col.NullCount) / float64(col.TotalCount) * 100

		var severity models.Severity
		switch {
		case pct >= rule.ErrorThreshold:
			severity = models.SeverityError
		case pct >= rule.WarningThreshold:
			severity = models.SeverityWarning
		default:
			continue
		}

		findings = append(findings, models.Anomaly{
			Type:     models.AnomalyNullRatio,
			Severity: severity,
			Column:   col.Name,
			Message:  fmt.Sprintf("column %q is %.1f%% null after transform", col.Name, pct),
			Details: map[string]any{
				"nullPercentage": pct,
				"nullCount":      col.NullCount,
				"totalCount":     col.TotalCount,
			},
		})
	}
	return findings
}

// ── Cardinality Explosion ────────────────────────────────────

func evalCardinality(original models.SamplePreview, transformed models.TransformPreview, rule models.CardinalityRule) []models.Anomaly {
	if !rule.Enabled {
		return nil
	}
	if float64(transformed.Rows) <= float64(original.Rows)*rule.MultiplierThreshold {
		return nil
	}
	return []models.Anomaly{{
		Type:     models.AnomalyCardinality,
		Severity: models.SeverityWarning,
		Message: fmt.Sprintf("transform produced %d rows from %d input rows (over %gx)",
			transformed.Rows, original.Rows, rule.MultiplierThreshold),
		Details: map[string]any{
			"inputRows":  original.Rows,
			"outputRows": transformed.Rows,
			"multiplier": rule.MultiplierThreshold,
		},
	}}
}

// ── Type Coercion ────────────────────────────────────────────

func evalTypeCoercion(original models.SamplePreview, transformed models.TransformPreview, rule models.ToggleRule) []models.Anomaly {
	if !rule.Enabled {
		return nil
	}
	declared := make(map[string]string, len(original.Columns))
	for _, col := range original.Columns {
		declared[col.Name] = col.Type
	}

	var findings []models.Anomaly
	for _, col := range transformed.Columns {
		srcType, known := declared[col.Name]
		if !known || srcType == col.Type {
			continue
		}
		findings = append(findings, models.Anomaly{
			Type:     models.AnomalyTypeCoercion,
			Severity: models.SeverityWarning,
			Column:   col.Name,
			Message:  fmt.Sprintf("column %q coerced from %s to %s", col.Name, srcType, col.Type),
			Details: map[string]any{
				"sourceType":      srcType,
				"transformedType": col.Type,
			},
		})
	}
	return findings
}

// ── Missing Required Field ───────────────────────────────────

func evalRequiredFields(original models.SamplePreview, transformed models.TransformPreview, rule models.ToggleRule) []models.Anomaly {
	if !rule.Enabled {
		return nil
	}
	present := make(map[string]bool, len(transformed.Columns))
	for _, col := range transformed.Columns {
		present[col.Name] = true
	}

	var findings []models.Anomaly
	for _, col := range original.Columns {
		if col.Nullable || present[col.Name] {
			continue
		}
		findings = append(findings, models.Anomaly{
			Type:     models.AnomalyMissingRequired,
			Severity: models.SeverityError,
			Column:   col.Name,
			Message:  fmt.Sprintf("required column %q is absent from the transformed output", col.Name),
		})
	}
	return findings
}
