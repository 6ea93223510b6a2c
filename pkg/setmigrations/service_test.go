package setmigrations

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cardbinder/cardbinder/pkg/confirm"
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

func createSet(t *testing.T, db *bun.DB, name string, mutate ...func(*models.CardSet)) *models.CardSet {
	t.Helper()

	cardSet := &models.CardSet{
		Name:      name,
		Slug:      fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		Year:      1992,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	for _, fn := range mutate {
		fn(cardSet)
	}
	_, err := db.NewInsert().Model(cardSet).Exec(context.Background())
	require.NoError(t, err)

	return cardSet
}

func createCard(t *testing.T, db *bun.DB, setID int, number, name string, isInsert bool) *models.Card {
	t.Helper()

	card := &models.Card{
		CardSetID:  setID,
		CardNumber: number,
		Name:       name,
		IsInsert:   isInsert,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	_, err := db.NewInsert().Model(card).Exec(context.Background())
	require.NoError(t, err)

	return card
}

func reloadCard(t *testing.T, db *bun.DB, id int) *models.Card {
	t.Helper()

	card := &models.Card{}
	err := db.NewSelect().Model(card).Where("c.id = ?", id).Scan(context.Background())
	require.NoError(t, err)

	return card
}

func requireErrCode(t *testing.T, err error, code string) *errcodes.Error {
	t.Helper()

	var herr *errcodes.Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, code, herr.Code)

	return herr
}

func TestPreviewMigration_NoConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	source := createSet(t, db, "1992 Impel Legacy")
	dest := createSet(t, db, "1992 Impel", func(cs *models.CardSet) { cs.IsCanonical = true })
	createCard(t, db, source.ID, "1", "Spider-Man", false)
	createCard(t, db, source.ID, "2", "Wolverine", false)
	createCard(t, db, dest.ID, "3", "Hulk", false)

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)

	assert.True(t, p.CanMigrate)
	assert.Empty(t, p.Reason)
	assert.Equal(t, 2, p.SourceCardCount)
	assert.Equal(t, 1, p.DestinationCardCount)
	assert.Empty(t, p.Conflicts)
	assert.False(t, p.WillForceInsert)
	assert.False(t, p.DestinationIsInsertSubset)
	assert.True(t, p.DestinationIsCanonical)
}

func TestPreviewMigration_DetectsConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	source := createSet(t, db, "legacy")
	dest := createSet(t, db, "canonical")
	srcCard := createCard(t, db, source.ID, "42", "Gambit", false)
	createCard(t, db, source.ID, "43", "Rogue", false)
	destCard := createCard(t, db, dest.ID, "42", "Gambit Variant", false)

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)

	assert.True(t, p.CanMigrate)
	require.Len(t, p.Conflicts, 1)
	conflict := p.Conflicts[0]
	assert.Equal(t, "42", conflict.CardNumber)
	assert.Equal(t, srcCard.ID, conflict.SourceCardID)
	assert.Equal(t, "Gambit", conflict.SourceCardName)
	assert.Equal(t, destCard.ID, conflict.DestinationCardID)
	assert.Equal(t, "Gambit Variant", conflict.DestinationCardName)
}

func TestPreviewMigration_EmptySource(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	source := createSet(t, db, "empty")
	dest := createSet(t, db, "dest")

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)

	assert.False(t, p.CanMigrate)
	assert.Equal(t, "Source set has no cards to migrate.", p.Reason)
}

func TestPreviewMigration_SameSet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	source := createSet(t, db, "only")
	createCard(t, db, source.ID, "1", "Thor", false)

	p, err := svc.PreviewMigration(ctx, source.ID, source.ID, false)
	require.NoError(t, err)

	assert.False(t, p.CanMigrate)
	assert.Equal(t, "Source and destination are the same set.", p.Reason)
}

func TestExecuteMigration_ArchivedDestinationAllowed(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "source")
	dest := createSet(t, db, "archived", func(cs *models.CardSet) { cs.IsActive = false })
	card := createCard(t, db, source.ID, "1", "Thor", false)

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)
	assert.True(t, p.CanMigrate)
	assert.Empty(t, p.Reason)

	_, err = svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, dest.ID, reloadCard(t, db, card.ID).CardSetID)
}

func TestPreviewMigration_UnknownSet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	dest := createSet(t, db, "dest")

	_, err := svc.PreviewMigration(ctx, 9999, dest.ID, false)
	requireErrCode(t, err, "not_found")
}

func TestExecuteMigration_MovesAllCards(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "legacy")
	dest := createSet(t, db, "canonical")
	card1 := createCard(t, db, source.ID, "1", "Spider-Man", false)
	card2 := createCard(t, db, source.ID, "2", "Wolverine", true)

	// A collection entry referencing a migrated card must survive untouched.
	entry := &models.CollectionEntry{
		UserID:    admin.ID,
		CardID:    card1.ID,
		Quantity:  2,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_, err := db.NewInsert().Model(entry).Exec(ctx)
	require.NoError(t, err)

	notes := "consolidating duplicate 1992 listings"
	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
		Notes:            &notes,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, log.ID)
	assert.Equal(t, source.ID, log.SourceSetID)
	assert.Equal(t, dest.ID, log.DestinationSetID)
	assert.Equal(t, 2, log.MovedCardCount)
	assert.False(t, log.InsertForced)
	assert.Equal(t, models.MigrationStatusActive, log.Status)
	assert.Equal(t, admin.ID, log.AdminUserID)
	require.NotNil(t, log.Notes)
	assert.Equal(t, notes, *log.Notes)

	// Both cards moved, IDs unchanged, insert flags untouched.
	moved1 := reloadCard(t, db, card1.ID)
	moved2 := reloadCard(t, db, card2.ID)
	assert.Equal(t, dest.ID, moved1.CardSetID)
	assert.Equal(t, dest.ID, moved2.CardSetID)
	assert.False(t, moved1.IsInsert)
	assert.True(t, moved2.IsInsert)

	remaining, err := db.NewSelect().Model((*models.Card)(nil)).Where("card_set_id = ?", source.ID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	// Snapshot rows exist for both cards with their prior insert flags.
	snapshots := []*models.SetMigrationCard{}
	err = db.NewSelect().Model(&snapshots).Where("migration_log_id = ?", log.ID).Order("card_id ASC").Scan(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, card1.ID, snapshots[0].CardID)
	assert.False(t, snapshots[0].PreviousIsInsert)
	assert.Equal(t, card2.ID, snapshots[1].CardID)
	assert.True(t, snapshots[1].PreviousIsInsert)

	// The collection entry still resolves to the same card.
	err = db.NewSelect().Model(entry).WherePK().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, card1.ID, entry.CardID)
	assert.Equal(t, 2, entry.Quantity)
}

func TestExecuteMigration_ConflictsRequireExactPhrase(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "legacy")
	dest := createSet(t, db, "canonical")
	srcCard := createCard(t, db, source.ID, "42", "Gambit", false)
	createCard(t, db, dest.ID, "42", "Gambit Variant", false)

	phrases := map[string]*string{
		"missing":    nil,
		"empty":      ptr(""),
		"lowercase":  ptr("migrate with conflicts"),
		"whitespace": ptr(" MIGRATE WITH CONFLICTS"),
		"wrong":      ptr("DELETE SET"),
	}
	for name, phrase := range phrases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
				SourceSetID:      source.ID,
				DestinationSetID: dest.ID,
				Confirmation:     phrase,
			})
			herr := requireErrCode(t, err, "conflict")

			// The fresh preview rides along so the UI can show the collisions.
			p, ok := herr.Details.(*Preview)
			require.True(t, ok)
			require.Len(t, p.Conflicts, 1)
			assert.Equal(t, "42", p.Conflicts[0].CardNumber)

			// Nothing moved.
			assert.Equal(t, source.ID, reloadCard(t, db, srcCard.ID).CardSetID)
		})
	}

	// The exact phrase goes through and produces duplicate numbers by design.
	phrase := confirm.Phrase(confirm.OperationMigrateWithConflicts)
	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
		Confirmation:     &phrase,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, log.MovedCardCount)

	dupes, err := db.NewSelect().Model((*models.Card)(nil)).
		Where("card_set_id = ?", dest.ID).
		Where("card_number = ?", "42").
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dupes)
}

func TestExecuteMigration_OverlappingNumberRanges(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	// Source holds 1-100, destination holds 50-150: 51 numbers collide.
	source := createSet(t, db, "legacy")
	dest := createSet(t, db, "canonical")
	for i := 1; i <= 100; i++ {
		createCard(t, db, source.ID, fmt.Sprintf("%d", i), fmt.Sprintf("Source %d", i), false)
	}
	for i := 50; i <= 150; i++ {
		createCard(t, db, dest.ID, fmt.Sprintf("%d", i), fmt.Sprintf("Destination %d", i), false)
	}

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 100, p.SourceCardCount)
	assert.Equal(t, 101, p.DestinationCardCount)
	assert.Len(t, p.Conflicts, 51)
	assert.True(t, p.CanMigrate)

	// No phrase, no migration.
	_, err = svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	requireErrCode(t, err, "conflict")

	remaining, err := db.NewSelect().Model((*models.Card)(nil)).Where("card_set_id = ?", source.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, remaining)

	phrase := confirm.Phrase(confirm.OperationMigrateWithConflicts)
	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
		Confirmation:     &phrase,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, log.MovedCardCount)

	destTotal, err := db.NewSelect().Model((*models.Card)(nil)).Where("card_set_id = ?", dest.ID).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 201, destTotal)
}

func TestExecuteMigration_ForceInsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "base")
	dest := createSet(t, db, "holograms")
	card := createCard(t, db, source.ID, "H1", "Hologram Magneto", false)

	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
		ForceInsert:      true,
	})
	require.NoError(t, err)
	assert.True(t, log.InsertForced)

	moved := reloadCard(t, db, card.ID)
	assert.True(t, moved.IsInsert)

	// The snapshot remembers the flag as it was before the move.
	snapshot := &models.SetMigrationCard{}
	err = db.NewSelect().Model(snapshot).Where("migration_log_id = ?", log.ID).Scan(ctx)
	require.NoError(t, err)
	assert.False(t, snapshot.PreviousIsInsert)
}

func TestExecuteMigration_InsertSubsetDestinationForcesInsert(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "misfiled")
	dest := createSet(t, db, "holograms", func(cs *models.CardSet) { cs.IsInsertSubset = true })
	card := createCard(t, db, source.ID, "H2", "Hologram Venom", false)

	p, err := svc.PreviewMigration(ctx, source.ID, dest.ID, false)
	require.NoError(t, err)
	assert.True(t, p.DestinationIsInsertSubset)
	assert.True(t, p.WillForceInsert)

	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	require.NoError(t, err)

	assert.True(t, log.InsertForced)
	assert.True(t, reloadCard(t, db, card.ID).IsInsert)
}

func TestExecuteMigration_RenameAndReparentDestination(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	mainSet := &models.MainSet{Name: "Marvel Universe", Year: 1992, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	_, err := db.NewInsert().Model(mainSet).Exec(ctx)
	require.NoError(t, err)

	source := createSet(t, db, "legacy")
	dest := createSet(t, db, "canonical")
	createCard(t, db, source.ID, "1", "Thor", false)

	newName := "1992 Marvel Universe Series 3"
	_, err = svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
		NewSetName:       &newName,
		NewMainSetID:     &mainSet.ID,
	})
	require.NoError(t, err)

	updated := &models.CardSet{}
	err = db.NewSelect().Model(updated).Where("cs.id = ?", dest.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	require.NotNil(t, updated.MainSetID)
	assert.Equal(t, mainSet.ID, *updated.MainSetID)
}

func TestExecuteMigration_EmptySourceFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "empty")
	dest := createSet(t, db, "dest")

	_, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	requireErrCode(t, err, "validation_error")
}

func TestRollbackMigration_RestoresCardsAndInsertFlags(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "base")
	dest := createSet(t, db, "holograms", func(cs *models.CardSet) { cs.IsInsertSubset = true })
	card1 := createCard(t, db, source.ID, "1", "Spider-Man", false)
	card2 := createCard(t, db, source.ID, "2", "Wolverine", false)

	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	require.NoError(t, err)
	require.True(t, reloadCard(t, db, card1.ID).IsInsert)

	result, err := svc.RollbackMigration(ctx, admin, log.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, result.RestoredCardCount)
	assert.Zero(t, result.SkippedCardCount)
	assert.Equal(t, models.MigrationStatusRolledBack, result.Log.Status)
	assert.NotNil(t, result.Log.RolledBackAt)

	restored1 := reloadCard(t, db, card1.ID)
	restored2 := reloadCard(t, db, card2.ID)
	assert.Equal(t, source.ID, restored1.CardSetID)
	assert.Equal(t, source.ID, restored2.CardSetID)
	assert.False(t, restored1.IsInsert)
	assert.False(t, restored2.IsInsert)
}

func TestRollbackMigration_SkipsCardsMovedAgain(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "first")
	dest := createSet(t, db, "second")
	third := createSet(t, db, "third")
	card1 := createCard(t, db, source.ID, "1", "Spider-Man", false)
	card2 := createCard(t, db, source.ID, "2", "Wolverine", false)

	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	require.NoError(t, err)

	// card2 moves on to a third set before the rollback.
	_, err = db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("card_set_id = ?", third.ID).
		Where("id = ?", card2.ID).
		Exec(ctx)
	require.NoError(t, err)

	result, err := svc.RollbackMigration(ctx, admin, log.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RestoredCardCount)
	assert.Equal(t, 1, result.SkippedCardCount)
	assert.Equal(t, source.ID, reloadCard(t, db, card1.ID).CardSetID)
	assert.Equal(t, third.ID, reloadCard(t, db, card2.ID).CardSetID)
}

func TestRollbackMigration_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	source := createSet(t, db, "source")
	dest := createSet(t, db, "dest")
	createCard(t, db, source.ID, "1", "Thor", false)

	log, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{
		SourceSetID:      source.ID,
		DestinationSetID: dest.ID,
	})
	require.NoError(t, err)

	_, err = svc.RollbackMigration(ctx, admin, log.ID)
	require.NoError(t, err)

	_, err = svc.RollbackMigration(ctx, admin, log.ID)
	requireErrCode(t, err, "validation_error")
}

func TestRollbackMigration_UnknownLog(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	_, err := svc.RollbackMigration(ctx, admin, "no-such-log")
	requireErrCode(t, err, "not_found")
}

func TestListLogs_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	admin := createAdmin(t, db)

	sourceA := createSet(t, db, "a")
	sourceB := createSet(t, db, "b")
	dest := createSet(t, db, "dest")
	createCard(t, db, sourceA.ID, "1", "Thor", false)
	createCard(t, db, sourceB.ID, "2", "Loki", false)

	first, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{SourceSetID: sourceA.ID, DestinationSetID: dest.ID})
	require.NoError(t, err)
	second, err := svc.ExecuteMigration(ctx, admin, ExecuteOptions{SourceSetID: sourceB.ID, DestinationSetID: dest.ID})
	require.NoError(t, err)

	logs, total, err := svc.ListLogsWithTotal(ctx, ListLogsOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)
	assert.Equal(t, first.ID, logs[1].ID)
	require.NotNil(t, logs[0].SourceSet)
	assert.Equal(t, sourceB.ID, logs[0].SourceSet.ID)
	require.NotNil(t, logs[0].AdminUser)
	assert.Equal(t, admin.ID, logs[0].AdminUser.ID)
}

func ptr(s string) *string {
	return &s
}
