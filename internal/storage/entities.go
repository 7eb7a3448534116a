package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
)

// GetEntities retrieves all entities in a registry, variations included.
func (s *SQLiteStorage) GetEntities(ctx context.Context, key model.EntityType) ([]model.RegistryEntity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(string(key), "registryKey"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registry_key, canonical_name, category, mcc_code,
		       payment_network, business_deductible, personal_deductible,
		       created_at, updated_at
		FROM entities
		WHERE registry_key = ?
		ORDER BY canonical_name
	`, string(key))
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []model.RegistryEntity
	index := make(map[int64]int)
	for rows.Next() {
		var e model.RegistryEntity
		var business, personal sql.NullBool
		err := rows.Scan(
			&e.ID, &e.RegistryKey, &e.CanonicalName, &e.Category, &e.MCCCode,
			&e.PaymentNetwork, &business, &personal, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		if business.Valid {
			v := business.Bool
			e.BusinessDeductible = &v
		}
		if personal.Valid {
			v := personal.Bool
			e.PersonalDeductible = &v
		}
		index[e.ID] = len(entities)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities: %w", err)
	}

	if len(entities) == 0 {
		return entities, nil
	}

	vrows, err := s.db.QueryContext(ctx, `
		SELECT ev.entity_id, ev.variation
		FROM entity_variations ev
		JOIN entities e ON e.id = ev.entity_id
		WHERE e.registry_key = ?
		ORDER BY ev.id
	`, string(key))
	if err != nil {
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer func() { _ = vrows.Close() }()

	for vrows.Next() {
		var entityID int64
		var variation string
		if err := vrows.Scan(&entityID, &variation); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		if i, ok := index[entityID]; ok {
			entities[i].Variations = append(entities[i].Variations, variation)
		}
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variations: %w", err)
	}

	return entities, nil
}

// GetEntityByID retrieves a single entity with its variations.
func (s *SQLiteStorage) GetEntityByID(ctx context.Context, id int64) (*model.RegistryEntity, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var e model.RegistryEntity
	var business, personal sql.NullBool
	err := s.db.QueryRowContext(ctx, `
		SELECT id, registry_key, canonical_name, category, mcc_code,
		       payment_network, business_deductible, personal_deductible,
		       created_at, updated_at
		FROM entities
		WHERE id = ?
	`, id).Scan(
		&e.ID, &e.RegistryKey, &e.CanonicalName, &e.Category, &e.MCCCode,
		&e.PaymentNetwork, &business, &personal, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	if business.Valid {
		v := business.Bool
		e.BusinessDeductible = &v
	}
	if personal.Valid {
		v := personal.Bool
		e.PersonalDeductible = &v
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT variation FROM entity_variations WHERE entity_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query variations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var variation string
		if err := rows.Scan(&variation); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		e.Variations = append(e.Variations, variation)
	}
	return &e, rows.Err()
}

// AddEntity inserts a new registry entity together with its variations.
// The canonical name must be unique within its registry after normalization.
func (s *SQLiteStorage) AddEntity(ctx context.Context, entity *model.RegistryEntity) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateEntity(entity); err != nil {
		return 0, err
	}

	now := time.Now()
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO entities (registry_key, canonical_name, normalized_name,
				category, mcc_code, payment_network,
				business_deductible, personal_deductible, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(entity.RegistryKey), entity.CanonicalName,
			model.NormalizeLookup(entity.CanonicalName),
			entity.Category, entity.MCCCode, entity.PaymentNetwork,
			nullBool(entity.BusinessDeductible), nullBool(entity.PersonalDeductible),
			now, now)
		if err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				return fmt.Errorf("%s %q: %w",
					entity.RegistryKey, entity.CanonicalName, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to insert entity: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get entity id: %w", err)
		}

		for _, variation := range entity.Variations {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO entity_variations (entity_id, variation, normalized)
				VALUES (?, ?, ?)
			`, id, variation, model.NormalizeLookup(variation)); err != nil {
				return fmt.Errorf("failed to insert variation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	entity.ID = id
	entity.CreatedAt = now
	entity.UpdatedAt = now
	return id, nil
}

// AddVariation appends a textual variation to an existing entity. Adding a
// normalized duplicate is a no-op.
func (s *SQLiteStorage) AddVariation(ctx context.Context, entityID int64, variation string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(variation, "variation"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM entities WHERE id = ?)`, entityID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check entity existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("entity %d: %w", entityID, common.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO entity_variations (entity_id, variation, normalized)
			VALUES (?, ?, ?)
		`, entityID, variation, model.NormalizeLookup(variation)); err != nil {
			return fmt.Errorf("failed to insert variation: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE entities SET updated_at = ? WHERE id = ?`, time.Now(), entityID,
		); err != nil {
			return fmt.Errorf("failed to touch entity: %w", err)
		}
		return nil
	})
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
