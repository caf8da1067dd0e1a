package domain

import "time"

// Event types
const (
	EventTypeLedgerEntryCreated = "ledger_entry.created"
)

// Notification is a best-effort message fired after a ledger write commits.
type Notification struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	TenantID   string         `json:"tenant_id"`
	ResourceID string         `json:"resource_id"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// LedgerEntryCreatedNotification builds the notification for a committed entry.
func LedgerEntryCreatedNotification(id string, entry *LedgerEntry) *Notification {
	payload := map[string]any{
		"ledger_entry_id": entry.ID,
		"type":            string(entry.Type),
		"status":          string(entry.Status),
		"amount":          entry.Amount.String(),
		"created_by":      entry.CreatedBy,
	}
	if entry.FromAccountID != nil {
		payload["from_account_id"] = *entry.FromAccountID
	}
	if entry.ToAccountID != nil {
		payload["to_account_id"] = *entry.ToAccountID
	}

	return &Notification{
		ID:         id,
		EventType:  EventTypeLedgerEntryCreated,
		TenantID:   entry.TenantID,
		ResourceID: entry.ID,
		Payload:    payload,
		CreatedAt:  entry.CreatedAt,
	}
}
