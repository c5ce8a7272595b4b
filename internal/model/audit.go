package model

import "time"

// AuditEvent is an append-only traceability record. Summaries are redacted:
// they carry citations and verdicts, never full prompts or oracle responses.
type AuditEvent struct {
	ID            string            `json:"id"`
	OrgID         string            `json:"org_id"`
	EventType     string            `json:"event_type"` // "assessment", "review", "indexing"
	EntityType    string            `json:"entity_type,omitempty"`
	EntityID      string            `json:"entity_id,omitempty"`
	Actor         string            `json:"actor"` // "llm", "algorithm", reviewer name
	ModelID       string            `json:"model_id,omitempty"`
	PromptVersion string            `json:"prompt_version,omitempty"`
	InputSummary  string            `json:"input_summary,omitempty"`
	OutputSummary string            `json:"output_summary,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
