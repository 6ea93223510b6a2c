package collections

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/migrations"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createUser(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	user := &models.User{
		Username:     fmt.Sprintf("collector-%d", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         models.RoleCollector,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func createCard(t *testing.T, db *bun.DB, number, name string) *models.Card {
	t.Helper()
	ctx := context.Background()

	cardSet := &models.CardSet{
		Name:      "base",
		Slug:      fmt.Sprintf("base-%d", time.Now().UnixNano()),
		Year:      1992,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := db.NewInsert().Model(cardSet).Exec(ctx)
	require.NoError(t, err)

	card := &models.Card{
		CardSetID:  cardSet.ID,
		CardNumber: number,
		Name:       name,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	_, err = db.NewInsert().Model(card).Exec(ctx)
	require.NoError(t, err)

	return card
}

func TestAddEntry_NewCard(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createUser(t, db)
	card := createCard(t, db, "1", "Spider-Man")

	entry := &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 1}
	err := svc.AddEntry(ctx, entry)
	require.NoError(t, err)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, 1, entry.Quantity)
}

func TestAddEntry_SameCardSameConditionBumpsQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createUser(t, db)
	card := createCard(t, db, "1", "Spider-Man")

	first := &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 2}
	require.NoError(t, svc.AddEntry(ctx, first))

	second := &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 3}
	require.NoError(t, svc.AddEntry(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	entries, err := svc.ListEntries(ctx, ListEntriesOptions{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAddEntry_DifferentConditionsAreSeparateEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createUser(t, db)
	card := createCard(t, db, "1", "Spider-Man")
	mint := "mint"
	good := "good"

	require.NoError(t, svc.AddEntry(ctx, &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 1, Condition: &mint}))
	require.NoError(t, svc.AddEntry(ctx, &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 1, Condition: &good}))
	require.NoError(t, svc.AddEntry(ctx, &models.CollectionEntry{UserID: user.ID, CardID: card.ID, Quantity: 1}))

	entries, total, err := svc.ListEntriesWithTotal(ctx, ListEntriesOptions{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 3)
}

func TestListEntries_ScopedToUserWithCardRelations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	owner := createUser(t, db)
	other := createUser(t, db)
	card := createCard(t, db, "1", "Spider-Man")

	require.NoError(t, svc.AddEntry(ctx, &models.CollectionEntry{UserID: owner.ID, CardID: card.ID, Quantity: 1}))
	require.NoError(t, svc.AddEntry(ctx, &models.CollectionEntry{UserID: other.ID, CardID: card.ID, Quantity: 1}))

	entries, err := svc.ListEntries(ctx, ListEntriesOptions{UserID: owner.ID})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, owner.ID, entries[0].UserID)
	require.NotNil(t, entries[0].Card)
	assert.Equal(t, "Spider-Man", entries[0].Card.Name)
	require.NotNil(t, entries[0].Card.CardSet)
}

func TestRemoveEntry_OnlyOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	owner := createUser(t, db)
	other := createUser(t, db)
	card := createCard(t, db, "1", "Spider-Man")

	entry := &models.CollectionEntry{UserID: owner.ID, CardID: card.ID, Quantity: 1}
	require.NoError(t, svc.AddEntry(ctx, entry))

	// Another user cannot remove it.
	err := svc.RemoveEntry(ctx, other.ID, entry.ID)
	var herr *errcodes.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "not_found", herr.Code)

	require.NoError(t, svc.RemoveEntry(ctx, owner.ID, entry.ID))

	entries, err := svc.ListEntries(ctx, ListEntriesOptions{UserID: owner.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
