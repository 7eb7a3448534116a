// Package service defines the interfaces between the pipeline and its
// collaborators.
package service

import (
	"context"

	"github.com/molino/molino/internal/model"
)

// Storage is the persistence contract: registries, the pending
// classification queue, and the enriched-transaction fact log. Every
// mutation executes inside a single database transaction, which is what
// makes concurrent registry writers safe.
type Storage interface {
	// Registry operations.
	GetEntities(ctx context.Context, key model.EntityType) ([]model.RegistryEntity, error)
	GetEntityByID(ctx context.Context, id int64) (*model.RegistryEntity, error)
	AddEntity(ctx context.Context, entity *model.RegistryEntity) (int64, error)
	AddVariation(ctx context.Context, entityID int64, variation string) error

	// Pending classification queue. Enqueue reports whether a new entry
	// was created; an equal normalized text already pending is a no-op.
	EnqueuePending(ctx context.Context, item *model.PendingClassification) (bool, error)
	GetPending(ctx context.Context, status model.PendingStatus) ([]model.PendingClassification, error)
	GetPendingByID(ctx context.Context, id int64) (*model.PendingClassification, error)
	SetPendingStatus(ctx context.Context, id int64, status model.PendingStatus) error

	// Enriched fact log, insert-only from the pipeline.
	SaveEnriched(ctx context.Context, txns []model.Transaction) error

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}
