package model

import "time"

// PendingStatus tracks the lifecycle of a pending classification.
type PendingStatus string

// Pending status constants.
const (
	PendingOpen       PendingStatus = "pending"
	PendingClassified PendingStatus = "classified"
	PendingDismissed  PendingStatus = "dismissed"
)

// PendingClassification is an unresolved merchant text awaiting manual
// assignment to a registry entity. Uniqueness is enforced on NormalizedText
// while the item is open: enqueueing the same text twice is a no-op.
type PendingClassification struct {
	CreatedAt      time.Time
	NormalizedText string
	OriginalText   string
	Provenance     string // JSON snapshot of the transaction at enqueue time
	Status         PendingStatus
	ID             int64
}
