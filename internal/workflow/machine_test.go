package workflow_test

import (
	"encoding/json"
	"testing"

	"github.com/streamweave/streamweave/assistant/internal/workflow"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

func newMachine() *workflow.Machine {
	return workflow.NewMachine(models.DefaultThresholds())
}

func action(step models.StepType, payload string) models.ParsedAction {
	return models.ParsedAction{Type: step, Data: json.RawMessage(payload)}
}

func TestApply_OutOfOrderStillPopulatesContext(t *testing.T) {
	m := newMachine()

	// The assistant decides sequencing; the machine only bookkeeps.
	m.Apply(action(models.StepTableSelect, `{"tables":[{"name":"orders"}]}`))
	m.Apply(action(models.StepSourceSelect, `{"credentialId":"c1"}`))
	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":4.2}`))

	for _, step := range []models.StepType{
		models.StepTableSelect, models.StepSourceSelect, models.StepCostEstimate,
	} {
		if _, ok := m.Context(step); !ok {
			t.Errorf("Context(%q) missing after out-of-order apply", step)
		}
	}
	if m.Current() != models.StepCostEstimate {
		t.Errorf("Current() = %q, want %q", m.Current(), models.StepCostEstimate)
	}
}

func TestCanCreate_RequiresConfirmedCost(t *testing.T) {
	m := newMachine()

	if m.CanCreate() {
		t.Error("CanCreate() = true on empty machine, want false")
	}

	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":4.2}`))
	if m.CanCreate() {
		t.Error("CanCreate() = true with unconfirmed cost context, want false")
	}
	if m.Actionable(models.StepPipelineCreate) {
		t.Error("pipeline-create rendered actionable without confirmed cost")
	}

	if !m.Confirm(models.StepCostEstimate) {
		t.Fatal("Confirm(cost) = false with a cost context present")
	}
	if !m.CanCreate() {
		t.Error("CanCreate() = false after cost confirmed, want true")
	}
	if !m.Actionable(models.StepPipelineCreate) {
		t.Error("pipeline-create not actionable after cost confirmed")
	}
}

func TestApply_RerunInvalidatesConfirmation(t *testing.T) {
	m := newMachine()

	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":4.2}`))
	m.Confirm(models.StepCostEstimate)
	// Assistant re-runs the estimate after a change upstream.
	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":9.9}`))

	if m.CanCreate() {
		t.Error("CanCreate() = true after cost re-run without re-confirmation, want false")
	}
}

func TestConfirm_NoContext(t *testing.T) {
	m := newMachine()
	if m.Confirm(models.StepCostEstimate) {
		t.Error("Confirm() = true with no context, want false")
	}
}

func TestCancel_ClearsLeafContextOnly(t *testing.T) {
	m := newMachine()

	m.Apply(action(models.StepSourceSelect, `{"credentialId":"c1"}`))
	m.Apply(action(models.StepTableSelect, `{"tables":[]}`))
	m.Cancel(models.StepTableSelect)

	if _, ok := m.Context(models.StepTableSelect); ok {
		t.Error("cancelled step context survived")
	}
	if _, ok := m.Context(models.StepSourceSelect); !ok {
		t.Error("prior confirmed step was cleared by an unrelated cancel")
	}
	if m.Current() != workflow.StepIdle {
		t.Errorf("Current() = %q after cancel, want idle", m.Current())
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	m := newMachine()

	m.Apply(action(models.StepSourceSelect, `{}`))
	m.Apply(action(models.StepCostEstimate, `{}`))
	m.Confirm(models.StepCostEstimate)
	m.Reset()

	if _, ok := m.Context(models.StepSourceSelect); ok {
		t.Error("context survived Reset")
	}
	if m.CanCreate() {
		t.Error("CanCreate() = true after Reset")
	}
	if m.Current() != workflow.StepIdle {
		t.Errorf("Current() = %q after Reset, want idle", m.Current())
	}
}

func TestSchemaPreview_BlocksCreateOnErrors(t *testing.T) {
	m := newMachine()

	payload := `{
		"original": {"rows": 100, "columns": [{"name": "id", "type": "bigint", "nullable": false}]},
		"transformed": {"rows": 100, "columns": [{"name": "id", "type": "bigint", "nullCount": 30, "totalCount": 100}]}
	}`
	m.Apply(action(models.StepSchemaPreview, payload))

	if !m.Blocked() {
		t.Fatal("Blocked() = false with a 30% null column, want true")
	}
	analysis := m.LastAnalysis()
	if analysis == nil || analysis.CanProceed {
		t.Fatalf("LastAnalysis() = %+v, want a blocking result", analysis)
	}

	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":1}`))
	m.Confirm(models.StepCostEstimate)
	if m.CanCreate() {
		t.Error("CanCreate() = true while schema analysis is blocking, want false")
	}
}

func TestSchemaPreview_CleanAnalysisProceeds(t *testing.T) {
	m := newMachine()

	payload := `{
		"original": {"rows": 100, "columns": [{"name": "id", "type": "bigint", "nullable": false}]},
		"transformed": {"rows": 100, "columns": [{"name": "id", "type": "bigint", "nullCount": 0, "totalCount": 100}]}
	}`
	m.Apply(action(models.StepSchemaPreview, payload))

	if m.Blocked() {
		t.Error("Blocked() = true for a clean preview")
	}
}

func TestMarkComplete(t *testing.T) {
	m := newMachine()

	if m.MarkComplete() {
		t.Error("MarkComplete() = true from idle, want false")
	}

	// Alert sub-flow completes without the cost gate.
	m.Apply(action(models.StepAlertConfig, `{"metric":"lag"}`))
	if !m.MarkComplete() {
		t.Error("MarkComplete() = false from alert-config, want true")
	}
	if m.Current() != workflow.StepComplete {
		t.Errorf("Current() = %q, want complete", m.Current())
	}
}

func TestMarkComplete_CreateRequiresGate(t *testing.T) {
	m := newMachine()

	m.Apply(action(models.StepPipelineCreate, `{}`))
	if m.MarkComplete() {
		t.Error("MarkComplete() = true for create without confirmed cost, want false")
	}

	m.Apply(action(models.StepCostEstimate, `{"dailyTotal":1}`))
	m.Confirm(models.StepCostEstimate)
	m.Apply(action(models.StepPipelineCreate, `{}`))
	if !m.MarkComplete() {
		t.Error("MarkComplete() = false for gated create, want true")
	}
}
