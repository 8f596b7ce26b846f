// Package workflow tracks the guided pipeline-provisioning conversation:
// which step the assistant is on, the confirmed payload accumulated for
// each step so far, and the gates that decide whether a create action may
// be acted on.
//
// The assistant, not the client, decides step sequencing. The machine's
// job is bookkeeping and gating: it tolerates skipped steps (a credential
// the platform already knows) and repeated steps (re-running table
// selection after changing sources).
package workflow

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/streamweave/streamweave/assistant/internal/anomaly"
	"github.com/streamweave/streamweave/assistant/pkg/models"
)

// Implicit machine states on either side of the step enumeration.
const (
	StepIdle     models.StepType = "idle"
	StepComplete models.StepType = "complete"
)

// Machine is the provisioning workflow state machine for one session.
type Machine struct {
	thresholds models.Thresholds

	mu        sync.Mutex
	current   models.StepType
	context   map[models.StepType]json.RawMessage
	confirmed map[models.StepType]bool
	analysis  *models.AnalysisResult
}

// NewMachine creates an idle machine using the given data-quality
// thresholds for the schema-preview gate.
func NewMachine(thresholds models.Thresholds) *Machine {
	return &Machine{
		thresholds: thresholds,
		current:    StepIdle,
		context:    make(map[models.StepType]json.RawMessage),
		confirmed:  make(map[models.StepType]bool),
	}
}

// Apply records a parsed action: its payload becomes the latest context
// for that step and the current-step pointer moves there, regardless of
// canonical order. Schema-preview payloads additionally run the anomaly
// classifier; the result is kept for Blocked/LastAnalysis.
func (m *Machine) Apply(action models.ParsedAction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.context[action.Type] = action.Data
	m.current = action.Type
	// A re-run of a step invalidates its previous confirmation.
	m.confirmed[action.Type] = false

	if action.Type == models.StepSchemaPreview {
		m.analyzeLocked(action.Data)
	}

	log.Debug().Str("step", string(action.Type)).Msg("Workflow step advanced")
}

// analyzeLocked runs the classifier over a schema-preview payload.
// Undecodable payloads leave the previous analysis untouched.
func (m *Machine) analyzeLocked(data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var payload models.SchemaPreviewPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Msg("Undecodable schema preview payload, skipping analysis")
		return
	}
	th := m.thresholds
	if payload.Thresholds != nil {
		th = *payload.Thresholds
	}
	result := anomaly.Analyze(payload.Original, payload.Transformed, th)
	m.analysis = &result

	if !result.CanProceed {
		log.Info().
			Int("errors", result.Summary.Errors).
			Int("warnings", result.Summary.Warnings).
			Msg("🚧 Schema preview blocked by data-quality errors")
	}
}

// Current returns the current step pointer.
func (m *Machine) Current() models.StepType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Context returns the latest payload recorded for a step.
func (m *Machine) Context(step models.StepType) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.context[step]
	return data, ok
}

// Confirm marks a step's context as explicitly user-confirmed.
// Returns false when the step has no context to confirm.
func (m *Machine) Confirm(step models.StepType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.context[step]; !ok {
		return false
	}
	m.confirmed[step] = true
	return true
}

// CanCreate reports whether a pipeline-create action may be rendered as
// actionable: the user must have confirmed a cost-estimate context, and
// the latest schema analysis (if any ran) must not be blocking.
func (m *Machine) CanCreate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canCreateLocked()
}

func (m *Machine) canCreateLocked() bool {
	if _, ok := m.context[models.StepCostEstimate]; !ok {
		return false
	}
	if !m.confirmed[models.StepCostEstimate] {
		return false
	}
	if m.analysis != nil && !m.analysis.CanProceed {
		return false
	}
	return true
}

// Actionable reports whether an action of the given step type may be
// acted on right now. Only pipeline-create is gated; every other step is
// always actionable.
func (m *Machine) Actionable(step models.StepType) bool {
	if step != models.StepPipelineCreate {
		return true
	}
	return m.CanCreate()
}

// MarkComplete finishes the active sub-flow. Valid only from a terminal
// step (pipeline-create, alert-config, cleanup-confirm); pipeline-create
// additionally requires the cost gate. Returns false otherwise.
func (m *Machine) MarkComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.current {
	case models.StepPipelineCreate:
		if !m.canCreateLocked() {
			return false
		}
	case models.StepAlertConfig, models.StepCleanupConfirm:
	default:
		return false
	}

	finished := m.current
	m.current = StepComplete
	log.Info().Str("step", string(finished)).Msg("✅ Workflow complete")
	return true
}

// Cancel clears one step's leaf context only and returns the pointer to
// idle. Prior confirmed steps stay valid so the user can retry.
func (m *Machine) Cancel(step models.StepType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.context, step)
	delete(m.confirmed, step)
	if step == models.StepSchemaPreview {
		m.analysis = nil
	}
	m.current = StepIdle
}

// Reset clears the entire accumulated context and returns to idle.
// Invoked when the user starts an unrelated request or signs out.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.context = make(map[models.StepType]json.RawMessage)
	m.confirmed = make(map[models.StepType]bool)
	m.analysis = nil
	m.current = StepIdle
}

// LastAnalysis returns the most recent schema-preview analysis, or nil.
func (m *Machine) LastAnalysis() *models.AnalysisResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.analysis == nil {
		return nil
	}
	copied := *m.analysis
	return &copied
}

// Blocked reports whether the latest schema analysis forbids proceeding.
func (m *Machine) Blocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analysis != nil && !m.analysis.CanProceed
}
