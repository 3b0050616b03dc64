package models

import "time"

// Audit actions recorded by the triage engine.
const (
	AuditActionMarkRead      = "document.mark_read"
	AuditActionStartAnalysis = "document.start_analysis"
	AuditActionForward       = "document.forward"
	AuditActionArchive       = "document.archive"
	AuditActionLogin         = "auth.login"
)

// AuditLog records a mutation performed through the triage engine.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
