package actions_test

import (
	"strings"
	"testing"

	"github.com/streamweave/streamweave/assistant/internal/actions"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

func TestParse_ExtractsActionBlock(t *testing.T) {
	text := "Here are your tables:\n\n```json\n{\"action\": \"confirm_tables\", \"tables\": [{\"name\": \"orders\", \"schema\": \"public\", \"rowCount\": 1200, \"cdcEligible\": true}]}\n```\n\nPick the ones to replicate."

	clean, acts := actions.Parse(text)

	if len(acts) != 1 {
		t.Fatalf("Parse() returned %d actions, want 1", len(acts))
	}
	if acts[0].Type != models.StepTableSelect {
		t.Errorf("action type = %q, want %q", acts[0].Type, models.StepTableSelect)
	}
	if strings.Contains(clean, "```") {
		t.Errorf("cleanContent still contains a fence:\n%s", clean)
	}
	if !strings.Contains(clean, "Here are your tables:") || !strings.Contains(clean, "Pick the ones to replicate.") {
		t.Errorf("prose was lost:\n%s", clean)
	}
}

func TestParse_MalformedBlockStaysInContent(t *testing.T) {
	text := "Look:\n```json\n{not valid json\n```\ndone"

	clean, acts := actions.Parse(text)

	if len(acts) != 0 {
		t.Fatalf("Parse() returned %d actions for malformed block, want 0", len(acts))
	}
	if !strings.Contains(clean, "{not valid json") {
		t.Errorf("malformed block was removed from content:\n%s", clean)
	}
}

func TestParse_MissingDiscriminatorSkipped(t *testing.T) {
	text := "```json\n{\"tables\": []}\n```"

	clean, acts := actions.Parse(text)

	if len(acts) != 0 {
		t.Fatalf("Parse() returned %d actions without discriminator, want 0", len(acts))
	}
	if !strings.Contains(clean, "\"tables\"") {
		t.Errorf("undiscriminated block was removed:\n%s", clean)
	}
}

func TestParse_DedupFirstWins(t *testing.T) {
	text := "```json\n{\"action\": \"confirm_cost\", \"dailyTotal\": 1}\n```\nmid\n```json\n{\"action\": \"confirm_cost\", \"dailyTotal\": 2}\n```"

	clean, acts := actions.Parse(text)

	if len(acts) != 1 {
		t.Fatalf("Parse() returned %d actions for duplicate discriminators, want 1", len(acts))
	}
	if !strings.Contains(string(acts[0].Data), "1") {
		t.Errorf("second occurrence won: data = %s", acts[0].Data)
	}
	if strings.Contains(clean, "```") {
		t.Errorf("duplicate block left in content:\n%s", clean)
	}
}

func TestParse_Idempotent(t *testing.T) {
	inputs := []string{
		"plain prose, no blocks",
		"```json\n{\"action\": \"confirm_source_select\", \"credentialId\": \"c1\"}\n```",
		"a\n\n\n\n\nb\n```json\nbroken\n```",
		"```json\n{\"action\": \"confirm_filter\"}\n```\n\n\n\ntail",
	}
	for _, input := range inputs {
		clean, _ := actions.Parse(input)
		clean2, acts2 := actions.Parse(clean)
		if len(acts2) != 0 {
			t.Errorf("re-parse of clean output produced %d actions, want 0 (input %q)", len(acts2), input)
		}
		if clean2 != clean {
			t.Errorf("re-parse changed content:\nfirst:  %q\nsecond: %q", clean, clean2)
		}
	}
}

func TestParse_CollapsesBlankLines(t *testing.T) {
	clean, _ := actions.Parse("a\n\n\n\n\nb")
	if clean != "a\n\nb" {
		t.Errorf("blank run not collapsed: %q", clean)
	}
}

func TestParse_UnrecognizedDiscriminatorMapsToGeneric(t *testing.T) {
	_, acts := actions.Parse("```json\n{\"action\": \"confirm_shiny_new_thing\"}\n```")
	if len(acts) != 1 {
		t.Fatalf("Parse() returned %d actions, want 1", len(acts))
	}
	if acts[0].Type != models.StepGeneric {
		t.Errorf("unknown discriminator mapped to %q, want %q", acts[0].Type, models.StepGeneric)
	}
}

func TestParse_ExplicitDataMember(t *testing.T) {
	_, acts := actions.Parse("```json\n{\"action\": \"confirm_cost\", \"data\": {\"dailyTotal\": 4.2}}\n```")
	if len(acts) != 1 {
		t.Fatalf("Parse() returned %d actions, want 1", len(acts))
	}
	if !strings.Contains(string(acts[0].Data), "dailyTotal") {
		t.Errorf("data member not unwrapped: %s", acts[0].Data)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		want models.StepType
	}{
		{"confirm_source_select", models.StepSourceSelect},
		{"confirm_tables", models.StepTableSelect},
		{"confirm_filter", models.StepFilterConfirm},
		{"confirm_destination", models.StepDestinationSelect},
		{"confirm_clickhouse_config", models.StepClickHouseConfig},
		{"confirm_schema_preview", models.StepSchemaPreview},
		{"confirm_topic_registry", models.StepTopicRegistry},
		{"confirm_cost", models.StepCostEstimate},
		{"confirm_pipeline_create", models.StepPipelineCreate},
		{"confirm_alert_config", models.StepAlertConfig},
		{"confirm_resources", models.StepCleanupConfirm},
		{"something_from_the_future", models.StepGeneric},
		{"", models.StepGeneric},
	}
	for _, tc := range cases {
		if got := actions.Classify(tc.raw); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
