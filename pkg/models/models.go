// Package models defines the shared data model for the StreamWeave
// provisioning assistant client: the authenticated session, the chat
// transcript, machine-actionable steps extracted from assistant text,
// and the data-quality analysis types that gate pipeline creation.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ── Session & Tokens ─────────────────────────────────────────

// TokenPair is the access/refresh credential pair for an authenticated
// session. Owned exclusively by the token lifecycle manager; every other
// component reads the access token through it.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthUser is the profile returned by GET /auth/me.
type AuthUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// ── Chat ─────────────────────────────────────────────────────

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry in the conversation transcript. Messages are
// immutable once appended; ordering is append-only per channel.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Actions   []ParsedAction `json:"actions,omitempty"`
}

// NewChatMessage builds a ChatMessage with a fresh ID and UTC timestamp.
func NewChatMessage(role Role, content string, actions []ParsedAction) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Actions:   actions,
	}
}

// ── Workflow Steps ───────────────────────────────────────────

// StepType is the closed enumeration of provisioning workflow steps.
// Server-sent discriminators map onto it via actions.Classify; unknown
// discriminators degrade to StepGeneric instead of breaking old clients.
type StepType string

const (
	StepSourceSelect      StepType = "source-select"
	StepTableSelect       StepType = "table-select"
	StepFilterConfirm     StepType = "filter-confirm"
	StepDestinationSelect StepType = "destination-select"
	StepClickHouseConfig  StepType = "clickhouse-config"
	StepSchemaPreview     StepType = "schema-preview"
	StepTopicRegistry     StepType = "topic-registry"
	StepCostEstimate      StepType = "cost-estimate"
	StepPipelineCreate    StepType = "pipeline-create"
	StepAlertConfig       StepType = "alert-config"
	StepCleanupConfirm    StepType = "cleanup-confirm"
	StepGeneric           StepType = "generic-confirm"
)

// ParsedAction is a machine-actionable instruction extracted from a fenced
// block inside assistant message text. Derived data, never persisted on
// its own.
type ParsedAction struct {
	Type    StepType        `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	RawSpan string          `json:"-"`
}

// ActionDescriptor is the wire shape of a server-declared action attached
// to a chat_response event (as opposed to one embedded in message text).
type ActionDescriptor struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ── Step Payloads ────────────────────────────────────────────

// TableInfo describes one candidate source table in a table-select payload.
type TableInfo struct {
	Name        string   `json:"name"`
	Schema      string   `json:"schema"`
	RowCount    int64    `json:"rowCount"`
	CDCEligible bool     `json:"cdcEligible"`
	Issues      []string `json:"issues,omitempty"`
}

// CostComponent is one line of a cost-estimate breakdown.
type CostComponent struct {
	Name        string  `json:"name"`
	UnitCost    float64 `json:"unitCost"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	DailyCost   float64 `json:"dailyCost"`
	MonthlyCost float64 `json:"monthlyCost"`
}

// CostEstimate is the full cost-estimate step payload.
type CostEstimate struct {
	Components   []CostComponent `json:"components"`
	DailyTotal   float64         `json:"dailyTotal"`
	MonthlyTotal float64         `json:"monthlyTotal"`
	Currency     string          `json:"currency,omitempty"`
}

// SchemaPreviewPayload carries the original and transformed samples that
// the anomaly classifier compares at the schema-preview step.
type SchemaPreviewPayload struct {
	Original    SamplePreview    `json:"original"`
	Transformed TransformPreview `json:"transformed"`
	Thresholds  *Thresholds      `json:"thresholds,omitempty"`
}

// ── Data Quality ─────────────────────────────────────────────

// Severity ranks a data-quality finding. Only SeverityError blocks the
// workflow from proceeding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// AnomalyType names the rule that produced a finding.
type AnomalyType string

const (
	AnomalyNullRatio       AnomalyType = "null_ratio"
	AnomalyCardinality     AnomalyType = "cardinality_explosion"
	AnomalyTypeCoercion    AnomalyType = "type_coercion"
	AnomalyMissingRequired AnomalyType = "missing_required_field"
)

// Anomaly is one data-quality finding. Produced fresh on every
// transform-preview; never mutated.
type Anomaly struct {
	Type     AnomalyType    `json:"type"`
	Severity Severity       `json:"severity"`
	Column   string         `json:"column,omitempty"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// AnalysisSummary counts findings by severity.
type AnalysisSummary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// AnalysisResult is the outcome of one transform-preview analysis.
// CanProceed is false iff at least one error-severity anomaly is present;
// this is a hard invariant, not a heuristic.
type AnalysisResult struct {
	Anomalies  []Anomaly       `json:"anomalies"`
	Summary    AnalysisSummary `json:"summary"`
	CanProceed bool            `json:"canProceed"`
}

// Column is a declared column in the source schema.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ColumnStats is an observed column in the transformed output sample.
type ColumnStats struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NullCount  int64  `json:"nullCount"`
	TotalCount int64  `json:"totalCount"`
}

// SamplePreview is the original (pre-transform) sample.
type SamplePreview struct {
	Rows    int64    `json:"rows"`
	Columns []Column `json:"columns"`
}

// TransformPreview is the transformed output sample.
type TransformPreview struct {
	Rows    int64         `json:"rows"`
	Columns []ColumnStats `json:"columns"`
}
