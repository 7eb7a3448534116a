package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
)

func TestAddEntity_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	truth := true

	id, err := store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey:        model.EntityMerchant,
		CanonicalName:      "Starbucks",
		Category:           "cafe",
		MCCCode:            "5814",
		Variations:         []string{"STARBUCKS COFFEE", "SBUX"},
		PersonalDeductible: &truth,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.GetEntityByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Starbucks", got.CanonicalName)
	assert.Equal(t, model.EntityMerchant, got.RegistryKey)
	assert.Equal(t, "cafe", got.Category)
	assert.Equal(t, "5814", got.MCCCode)
	assert.Equal(t, []string{"STARBUCKS COFFEE", "SBUX"}, got.Variations)
	require.NotNil(t, got.PersonalDeductible)
	assert.True(t, *got.PersonalDeductible)
	assert.Nil(t, got.BusinessDeductible)
}

func TestGetEntities_FilteredByRegistry(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityMerchant, CanonicalName: "Walmart", Category: "groceries",
	})
	require.NoError(t, err)
	_, err = store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityBank, CanonicalName: "BBVA",
	})
	require.NoError(t, err)

	merchants, err := store.GetEntities(ctx, model.EntityMerchant)
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, "Walmart", merchants[0].CanonicalName)

	banks, err := store.GetEntities(ctx, model.EntityBank)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, "BBVA", banks[0].CanonicalName)

	accounts, err := store.GetEntities(ctx, model.EntityAccount)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestAddEntity_DuplicateNormalizedName(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityMerchant, CanonicalName: "Starbucks",
	})
	require.NoError(t, err)

	// Same name modulo case and whitespace collides on normalized_name.
	_, err = store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityMerchant, CanonicalName: "  STARBUCKS  ",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	// The same normalized name in another registry is fine.
	_, err = store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityCategory, CanonicalName: "Starbucks",
	})
	assert.NoError(t, err)
}

func TestAddEntity_Validation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.AddEntity(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.AddEntity(ctx, &model.RegistryEntity{RegistryKey: model.EntityMerchant})
	assert.ErrorIs(t, err, ErrInvalidEntity)

	_, err = store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityType("garbage"), CanonicalName: "X",
	})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestAddVariation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	id, err := store.AddEntity(ctx, &model.RegistryEntity{
		RegistryKey: model.EntityMerchant, CanonicalName: "Oxxo",
	})
	require.NoError(t, err)

	require.NoError(t, store.AddVariation(ctx, id, "OXXO SUR"))
	// A normalized duplicate is a silent no-op.
	require.NoError(t, store.AddVariation(ctx, id, "oxxo  sur"))

	got, err := store.GetEntityByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"OXXO SUR"}, got.Variations)

	err = store.AddVariation(ctx, 9999, "WHATEVER")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetEntityByID_NotFound(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	_, err := store.GetEntityByID(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
