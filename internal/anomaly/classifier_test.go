package anomaly_test

import (
	"testing"

	"github.com/streamweave/streamweave/assistant/internal/anomaly"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

func defaultOriginal() models.SamplePreview {
	return models.SamplePreview{
		Rows: 1000,
		Columns: []models.Column{
			{Name: "id", Type: "bigint", Nullable: false},
			{Name: "email", Type: "text", Nullable: true},
			{Name: "created_at", Type: "timestamp", Nullable: false},
		},
	}
}

func TestAnalyze_NullRatioErrorBlocks(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 0, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 250, TotalCount: 1000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 1000},
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	if result.CanProceed {
		t.Error("CanProceed = true with a 25% null column and a 20% error threshold, want false")
	}
	if result.Summary.Errors != 1 {
		t.Errorf("Summary.Errors = %d, want 1", result.Summary.Errors)
	}
	if got := result.Anomalies[0]; got.Type != models.AnomalyNullRatio || got.Column != "email" {
		t.Errorf("top finding = %+v, want null_ratio on email", got)
	}
}

func TestAnalyze_NullRatioWarningProceeds(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 0, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 100, TotalCount: 1000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 1000},
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	if !result.CanProceed {
		t.Error("CanProceed = false with only a warning finding, want true")
	}
	if result.Summary.Warnings != 1 || result.Summary.Errors != 0 {
		t.Errorf("Summary = %+v, want 1 warning, 0 errors", result.Summary)
	}
}

func TestAnalyze_NullRatioDisabled(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 900, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 900, TotalCount: 1000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 1000},
		},
	}

	th := models.DefaultThresholds()
	th.NullRatio.Enabled = false
	result := anomaly.Analyze(defaultOriginal(), transformed, th)

	for _, finding := range result.Anomalies {
		if finding.Type == models.AnomalyNullRatio {
			t.Errorf("null_ratio finding produced while disabled: %+v", finding)
		}
	}
}

func TestAnalyze_CardinalityExplosion(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 15000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 0, TotalCount: 15000},
			{Name: "email", Type: "text", NullCount: 0, TotalCount: 15000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 15000},
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	found := false
	for _, finding := range result.Anomalies {
		if finding.Type == models.AnomalyCardinality {
			found = true
			if finding.Severity != models.SeverityWarning {
				t.Errorf("cardinality severity = %q, want warning", finding.Severity)
			}
		}
	}
	if !found {
		t.Error("no cardinality finding for 15x row explosion with 10x threshold")
	}
	if !result.CanProceed {
		t.Error("CanProceed = false for warnings only, want true")
	}
}

func TestAnalyze_TypeCoercion(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "string", NullCount: 0, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 0, TotalCount: 1000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 1000},
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	found := false
	for _, finding := range result.Anomalies {
		if finding.Type == models.AnomalyTypeCoercion && finding.Column == "id" {
			found = true
		}
	}
	if !found {
		t.Error("no type_coercion finding for bigint-to-string column")
	}
}

func TestAnalyze_MissingRequiredField(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 0, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 0, TotalCount: 1000},
			// created_at (non-nullable) dropped by the transform
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	if result.CanProceed {
		t.Error("CanProceed = true with a missing required column, want false")
	}
	found := false
	for _, finding := range result.Anomalies {
		if finding.Type == models.AnomalyMissingRequired && finding.Column == "created_at" {
			found = true
			if finding.Severity != models.SeverityError {
				t.Errorf("missing-required severity = %q, want error", finding.Severity)
			}
		}
	}
	if !found {
		t.Error("no missing_required_field finding for dropped created_at")
	}
}

func TestAnalyze_CleanTransform(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "bigint", NullCount: 0, TotalCount: 1000},
			{Name: "email", Type: "text", NullCount: 10, TotalCount: 1000},
			{Name: "created_at", Type: "timestamp", NullCount: 0, TotalCount: 1000},
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	if len(result.Anomalies) != 0 {
		t.Errorf("clean transform produced %d findings: %+v", len(result.Anomalies), result.Anomalies)
	}
	if !result.CanProceed {
		t.Error("empty finding list must always yield CanProceed = true")
	}
	if result.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", result.Summary.Total)
	}
}

func TestAnalyze_RanksErrorsFirst(t *testing.T) {
	transformed := models.TransformPreview{
		Rows: 1000,
		Columns: []models.ColumnStats{
			{Name: "id", Type: "string", NullCount: 0, TotalCount: 1000}, // warning (coercion)
			{Name: "email", Type: "text", NullCount: 300, TotalCount: 1000}, // error (null ratio)
		},
	}

	result := anomaly.Analyze(defaultOriginal(), transformed, models.DefaultThresholds())

	if len(result.Anomalies) < 2 {
		t.Fatalf("expected at least 2 findings, got %d", len(result.Anomalies))
	}
	if result.Anomalies[0].Severity != models.SeverityError {
		t.Errorf("first finding severity = %q, want error", result.Anomalies[0].Severity)
	}
}
