package sqlite

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/crypto"
	"github.com/ericfisherdev/storeadmin/internal/domain/model"
	"github.com/ericfisherdev/storeadmin/internal/domain/port/driven"
)

func newTestSettingRepo(t *testing.T, db *DB) *SettingRepo {
	t.Helper()
	cipher, err := cryptoadapter.NewAESGCM(bytes.Repeat([]byte{0x11}, 32))
	require.NoError(t, err)
	return NewSettingRepo(db, cipher, slog.Default())
}

func TestSettingRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)

	s, err := repo.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSettingRepo_ListBySectionEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)

	settings, err := repo.ListBySection(context.Background(), "product")
	require.NoError(t, err)
	assert.NotNil(t, settings)
	assert.Empty(t, settings)
}

func TestSettingRepo_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)
	ctx := context.Background()

	err := repo.UpsertAll(ctx, []model.Setting{
		{Section: "product", Key: "sales_tax", Value: "8.25", Type: model.FieldTypeNumber},
		{Section: "product", Key: "distance_units", Value: "miles", Type: model.FieldTypeSelect},
		{Section: "contact", Key: "contact_phone", Value: "(555) 123-4567", Type: model.FieldTypeTel},
	})
	require.NoError(t, err)

	settings, err := repo.ListBySection(ctx, "product")
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "distance_units", settings[0].Key)
	assert.Equal(t, "sales_tax", settings[1].Key)
	assert.Equal(t, model.FieldTypeNumber, settings[1].Type)
	assert.False(t, settings[1].CreatedAt.IsZero())

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSettingRepo_UpsertOverwritesByKey(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []model.Setting{
		{Section: "product", Key: "sales_tax", Value: "8.25", Type: model.FieldTypeNumber, Description: "Sales tax percentage"},
	}))
	require.NoError(t, repo.UpsertAll(ctx, []model.Setting{
		{Section: "product", Key: "sales_tax", Value: "9.5", Type: model.FieldTypeNumber},
	}))

	s, err := repo.Get(ctx, "sales_tax")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "9.5", s.Value)
	assert.Equal(t, "Sales tax percentage", s.Description, "empty description keeps the stored one")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSettingRepo_EncryptedRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertAll(ctx, []model.Setting{
		{Section: "payment", Key: "payment_api_key", Value: "sk_test_example_api_key", Type: model.FieldTypeText, IsEncrypted: true},
	}))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, "payment_api_key").Scan(&stored)
	require.NoError(t, err)
	assert.NotEqual(t, "sk_test_example_api_key", stored, "value must be stored encrypted")

	s, err := repo.Get(ctx, "payment_api_key")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.IsEncrypted)
	assert.Equal(t, "sk_test_example_api_key", s.Value)
}

func TestSettingRepo_UndecryptableValueReturnedAsStored(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)
	ctx := context.Background()

	_, err := db.Writer.ExecContext(ctx,
		`INSERT INTO settings (section, key, value, type, is_encrypted) VALUES ('payment', 'payment_api_key', 'corrupt', 'text', 1)`)
	require.NoError(t, err)

	s, err := repo.Get(ctx, "payment_api_key")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "corrupt", s.Value)
}

func TestSettingRepo_UpsertAllIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	disabled, err := cryptoadapter.NewAESGCM(nil)
	require.NoError(t, err)
	repo := NewSettingRepo(db, disabled, slog.Default())
	ctx := context.Background()

	err = repo.UpsertAll(ctx, []model.Setting{
		{Section: "payment", Key: "payment_gateway", Value: "Stripe", Type: model.FieldTypeText},
		{Section: "payment", Key: "payment_api_key", Value: "sk_live", Type: model.FieldTypeText, IsEncrypted: true},
	})
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a failed batch must not leave partial writes")
}

func TestSettingRepo_UpsertAllEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestSettingRepo(t, db)

	assert.NoError(t, repo.UpsertAll(context.Background(), nil))
}
