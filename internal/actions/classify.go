// Package actions extracts machine-actionable instructions embedded in
// free-form assistant text. The assistant emits fenced JSON blocks whose
// "action" field selects a provisioning step; everything else in the
// message is prose.
package actions

import "github.com/streamweave/streamweave/assistant/pkg/models"

// Classify maps a server-sent action discriminator onto the closed step
// enumeration. Total: unrecognized discriminators map to StepGeneric so
// the server vocabulary can grow without breaking old clients.
func Classify(raw string) models.StepType {
	switch raw {
	case "confirm_source_select":
		return models.StepSourceSelect
	case "confirm_tables":
		return models.StepTableSelect
	case "confirm_filter":
		return models.StepFilterConfirm
	case "confirm_destination":
		return models.StepDestinationSelect
	case "confirm_clickhouse_config":
		return models.StepClickHouseConfig
	case "confirm_schema_preview":
		return models.StepSchemaPreview
	case "confirm_topic_registry":
		return models.StepTopicRegistry
	case "confirm_cost":
		return models.StepCostEstimate
	case "confirm_pipeline_create":
		return models.StepPipelineCreate
	case "confirm_alert_config":
		return models.StepAlertConfig
	case "confirm_resources":
		return models.StepCleanupConfirm
	default:
		return models.StepGeneric
	}
}
