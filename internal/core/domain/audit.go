package domain

import "time"

// AuditEntry records one answered (or failed) query for the audit trail.
// Entries are produced on the response path and persisted asynchronously.
type AuditEntry struct {
	ID         string       `json:"id"`
	TenantID   string       `json:"tenant_id"`
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Confidence int          `json:"confidence"`
	Success    bool         `json:"success"`
	Source     ResultSource `json:"source"`
	AskedAt    time.Time    `json:"asked_at"`
}
