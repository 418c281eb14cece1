package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
	"github.com/target/mmk-product-admin/internal/testutil"
)

func createTestContact(t *testing.T, db *sql.DB, name string) *model.Contact {
	t.Helper()
	c, err := NewContactRepo(db).Create(context.Background(), &model.CreateContactRequest{
		Name:  name,
		Email: "owner@example.com",
	})
	require.NoError(t, err)
	return c
}

func TestContactRepo_CreateGetList(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		repo := NewContactRepoWithTimeProvider(db, NewFixedTimeProvider(fixed))

		suffix := time.Now().UnixNano()
		acme, err := repo.Create(ctx, &model.CreateContactRequest{Name: fmt.Sprintf("Acme %d", suffix)})
		require.NoError(t, err)
		assert.NotZero(t, acme.ID)
		assert.True(t, acme.CreatedAt.Equal(fixed))

		_, err = repo.Create(ctx, &model.CreateContactRequest{Name: fmt.Sprintf("Globex %d", suffix)})
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, acme.ID)
		require.NoError(t, err)
		assert.Equal(t, acme.Name, got.Name)

		found, err := repo.List(ctx, model.ContactListOptions{Search: fmt.Sprintf("acme %d", suffix)})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, acme.ID, found[0].ID)

		none, err := repo.List(ctx, model.ContactListOptions{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestContactRepo_Errors(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewContactRepo(db)

		_, err := repo.GetByID(ctx, 987654321)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = repo.Create(ctx, &model.CreateContactRequest{Name: "  "})
		assert.True(t, apperrors.IsValidation(err))

		name := fmt.Sprintf("Dup %d", time.Now().UnixNano())
		createTestContact(t, db, name)
		_, err = repo.Create(ctx, &model.CreateContactRequest{Name: name})
		assert.True(t, apperrors.IsConflict(err))
	})
}
