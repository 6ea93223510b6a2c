package cardsets

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

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

func createAdmin(t *testing.T, db *bun.DB) *models.User {
	t.Helper()

	user := &models.User{
		Username:     fmt.Sprintf("admin-%d", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func createCard(t *testing.T, db *bun.DB, setID int, number, name string) *models.Card {
	t.Helper()

	card := &models.Card{
		CardSetID:  setID,
		CardNumber: number,
		Name:       name,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	_, err := db.NewInsert().Model(card).Exec(context.Background())
	require.NoError(t, err)

	return card
}

func TestCreateCardSet_DerivesSlug(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	cardSet := &models.CardSet{Name: "Marvel Universe Series 3", Year: 1992, IsActive: true}
	err := svc.CreateCardSet(ctx, cardSet)
	require.NoError(t, err)

	assert.Equal(t, "1992-marvel-universe-series-3", cardSet.Slug)
}

func TestCreateCardSet_SlugCollisionGetsSuffix(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	first := &models.CardSet{Name: "Marvel Masterpieces", Year: 1993, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, first))

	second := &models.CardSet{Name: "Marvel Masterpieces", Year: 1993, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, second))

	third := &models.CardSet{Name: "Marvel Masterpieces", Year: 1993, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, third))

	assert.Equal(t, "1993-marvel-masterpieces", first.Slug)
	assert.Equal(t, "1993-marvel-masterpieces-2", second.Slug)
	assert.Equal(t, "1993-marvel-masterpieces-3", third.Slug)
}

func TestRetrieveCardSet_BySlugWithCardCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	cardSet := &models.CardSet{Name: "X-Men", Year: 1992, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, cardSet))
	createCard(t, db, cardSet.ID, "1", "Cyclops")
	createCard(t, db, cardSet.ID, "2", "Storm")

	found, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{Slug: &cardSet.Slug})
	require.NoError(t, err)

	assert.Equal(t, cardSet.ID, found.ID)
	assert.Equal(t, 2, found.CardCount)
}

func TestRetrieveCardSet_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id := 9999
	_, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Card set not found")
}

func TestListCardSets_Filters(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	active := &models.CardSet{Name: "Marvel Universe", Year: 1992, IsActive: true, IsCanonical: true}
	require.NoError(t, svc.CreateCardSet(ctx, active))
	archived := &models.CardSet{Name: "Marvel Universe Legacy", Year: 1992, IsActive: false}
	require.NoError(t, svc.CreateCardSet(ctx, archived))
	empty := &models.CardSet{Name: "Marvel Masterpieces", Year: 1993, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, empty))

	createCard(t, db, active.ID, "1", "Spider-Man")

	// Archived sets are hidden by default.
	sets, total, err := svc.ListCardSetsWithTotal(ctx, ListCardSetsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, cs := range sets {
		assert.True(t, cs.IsActive)
	}

	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, sets, 3)

	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{CanonicalOnly: true})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, active.ID, sets[0].ID)

	year := 1993
	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{Year: &year})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, empty.ID, sets[0].ID)

	hasCards := true
	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{HasCards: &hasCards})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, active.ID, sets[0].ID)
	assert.Equal(t, 1, sets[0].CardCount)

	hasCards = false
	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{HasCards: &hasCards})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, empty.ID, sets[0].ID)

	search := "Masterpieces"
	sets, err = svc.ListCardSets(ctx, ListCardSetsOptions{Search: &search})
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, empty.ID, sets[0].ID)
}

func TestSampleCards_OrderedByNumber(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	cardSet := &models.CardSet{Name: "X-Men", Year: 1992, IsActive: true}
	require.NoError(t, svc.CreateCardSet(ctx, cardSet))
	createCard(t, db, cardSet.ID, "3", "Storm")
	createCard(t, db, cardSet.ID, "1", "Cyclops")
	createCard(t, db, cardSet.ID, "2", "Jean Grey")

	cards, err := svc.SampleCards(ctx, cardSet.ID, 2)
	require.NoError(t, err)

	require.Len(t, cards, 2)
	assert.Equal(t, "1", cards[0].CardNumber)
	assert.Equal(t, "2", cards[1].CardNumber)
}
