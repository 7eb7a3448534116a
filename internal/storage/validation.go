package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/molino/molino/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidEntity = errors.New("invalid entity")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateEntity(entity *model.RegistryEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity", ErrNilParameter)
	}
	if strings.TrimSpace(entity.CanonicalName) == "" {
		return fmt.Errorf("%w: canonical name is required", ErrInvalidEntity)
	}
	switch entity.RegistryKey {
	case model.EntityMerchant, model.EntityBank, model.EntityAccount, model.EntityCategory:
		return nil
	default:
		return fmt.Errorf("%w: unknown registry key %q", ErrInvalidEntity, entity.RegistryKey)
	}
}

func validatePending(item *model.PendingClassification) error {
	if item == nil {
		return fmt.Errorf("%w: pending item", ErrNilParameter)
	}
	if strings.TrimSpace(item.NormalizedText) == "" {
		return fmt.Errorf("%w: normalizedText", ErrEmptyString)
	}
	return nil
}
