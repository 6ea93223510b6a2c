package setmigrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/cardbinder/cardbinder/pkg/confirm"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// ConflictingCard pairs a source card with the destination card that already
// holds its card number.
type ConflictingCard struct {
	CardNumber          string `json:"card_number"`
	SourceCardID        int    `json:"source_card_id"`
	SourceCardName      string `json:"source_card_name"`
	DestinationCardID   int    `json:"destination_card_id"`
	DestinationCardName string `json:"destination_card_name"`
}

// Preview describes what a migration would do without touching any cards.
type Preview struct {
	SourceSet            *models.CardSet    `json:"source_set"`
	DestinationSet       *models.CardSet    `json:"destination_set"`
	SourceCardCount      int                `json:"source_card_count"`
	DestinationCardCount int                `json:"destination_card_count"`
	Conflicts            []*ConflictingCard `json:"conflicts"`

	// The destination's flags are surfaced by name so the console can warn
	// about insert forcing and canonical targets without digging into the
	// embedded set.
	DestinationIsInsertSubset bool `json:"destination_is_insert_subset"`
	DestinationIsCanonical    bool `json:"destination_is_canonical"`

	WillForceInsert bool   `json:"will_force_insert"`
	CanMigrate      bool   `json:"can_migrate"`
	Reason          string `json:"reason,omitempty"`
}

type ExecuteOptions struct {
	SourceSetID      int
	DestinationSetID int
	ForceInsert      bool
	Confirmation     *string
	Notes            *string
	NewMainSetID     *int
	NewSetName       *string
}

type ListLogsOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

// RollbackResult reports what a rollback actually restored. Cards that moved
// again after the migration are left where they are and counted as skipped.
type RollbackResult struct {
	Log               *models.SetMigrationLog `json:"log"`
	RestoredCardCount int                     `json:"restored_card_count"`
	SkippedCardCount  int                     `json:"skipped_card_count"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// PreviewMigration computes the dry-run report for moving every card from the
// source set into the destination set.
func (svc *Service) PreviewMigration(ctx context.Context, sourceSetID, destinationSetID int, forceInsert bool) (*Preview, error) {
	return svc.preview(ctx, svc.db, sourceSetID, destinationSetID, forceInsert)
}

// preview runs against any bun.IDB so Execute can recompute it inside its own
// transaction rather than trusting a stale dry run.
func (svc *Service) preview(ctx context.Context, idb bun.IDB, sourceSetID, destinationSetID int, forceInsert bool) (*Preview, error) {
	source, err := retrieveSet(ctx, idb, sourceSetID, "Source set")
	if err != nil {
		return nil, err
	}
	destination, err := retrieveSet(ctx, idb, destinationSetID, "Destination set")
	if err != nil {
		return nil, err
	}

	sourceCards, err := listSetCards(ctx, idb, sourceSetID)
	if err != nil {
		return nil, err
	}
	destinationCards, err := listSetCards(ctx, idb, destinationSetID)
	if err != nil {
		return nil, err
	}

	byNumber := make(map[string]*models.Card, len(destinationCards))
	for _, card := range destinationCards {
		byNumber[card.CardNumber] = card
	}

	conflicts := []*ConflictingCard{}
	for _, card := range sourceCards {
		if existing, ok := byNumber[card.CardNumber]; ok {
			conflicts = append(conflicts, &ConflictingCard{
				CardNumber:          card.CardNumber,
				SourceCardID:        card.ID,
				SourceCardName:      card.Name,
				DestinationCardID:   existing.ID,
				DestinationCardName: existing.Name,
			})
		}
	}

	p := &Preview{
		SourceSet:                 source,
		DestinationSet:            destination,
		SourceCardCount:           len(sourceCards),
		DestinationCardCount:      len(destinationCards),
		Conflicts:                 conflicts,
		DestinationIsInsertSubset: destination.IsInsertSubset,
		DestinationIsCanonical:    destination.IsCanonical,
		WillForceInsert:           forceInsert || destination.IsInsertSubset,
		CanMigrate:                true,
	}

	// Archived destinations are allowed: consolidating legacy sets into a
	// set that was archived pending cleanup is a normal admin flow.
	switch {
	case sourceSetID == destinationSetID:
		p.CanMigrate = false
		p.Reason = "Source and destination are the same set."
	case len(sourceCards) == 0:
		p.CanMigrate = false
		p.Reason = "Source set has no cards to migrate."
	}

	return p, nil
}

// ExecuteMigration moves every card from the source set into the destination
// set in a single transaction, snapshotting each card's prior state so the
// migration can be rolled back. The preview is recomputed inside the
// transaction; a migration with conflicts requires the exact confirmation
// phrase and otherwise fails with the fresh preview attached.
func (svc *Service) ExecuteMigration(ctx context.Context, admin *models.User, opts ExecuteOptions) (*models.SetMigrationLog, error) {
	log := &models.SetMigrationLog{}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		p, err := svc.preview(ctx, tx, opts.SourceSetID, opts.DestinationSetID, opts.ForceInsert)
		if err != nil {
			return err
		}
		if !p.CanMigrate {
			return errcodes.ValidationError(p.Reason)
		}
		if len(p.Conflicts) > 0 {
			if err := confirm.Require(confirm.OperationMigrateWithConflicts, opts.Confirmation); err != nil {
				return errcodes.Conflict("This migration has card number conflicts and requires confirmation.", p)
			}
		}

		sourceCards, err := listSetCards(ctx, tx, opts.SourceSetID)
		if err != nil {
			return err
		}

		now := time.Now()
		log.ID = uuid.NewString()
		log.SourceSetID = opts.SourceSetID
		log.DestinationSetID = opts.DestinationSetID
		log.MovedCardCount = len(sourceCards)
		log.InsertForced = p.WillForceInsert
		log.Notes = opts.Notes
		log.Status = models.MigrationStatusActive
		log.AdminUserID = admin.ID
		log.CreatedAt = now

		snapshots := make([]*models.SetMigrationCard, 0, len(sourceCards))
		for _, card := range sourceCards {
			snapshots = append(snapshots, &models.SetMigrationCard{
				MigrationLogID:   log.ID,
				CardID:           card.ID,
				PreviousIsInsert: card.IsInsert,
			})
		}

		q := tx.NewUpdate().
			Model((*models.Card)(nil)).
			Set("card_set_id = ?", opts.DestinationSetID).
			Set("updated_at = ?", now).
			Where("card_set_id = ?", opts.SourceSetID)
		if p.WillForceInsert {
			q = q.Set("is_insert = ?", true)
		}
		if _, err := q.Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		if opts.NewSetName != nil || opts.NewMainSetID != nil {
			destination := p.DestinationSet
			columns := []string{"updated_at"}
			destination.UpdatedAt = now
			if opts.NewSetName != nil {
				destination.Name = *opts.NewSetName
				columns = append(columns, "name")
			}
			if opts.NewMainSetID != nil {
				exists, err := tx.NewSelect().
					Model((*models.MainSet)(nil)).
					Where("ms.id = ?", *opts.NewMainSetID).
					Exists(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
				if !exists {
					return errcodes.NotFound("Main set")
				}
				destination.MainSetID = opts.NewMainSetID
				columns = append(columns, "main_set_id")
			}
			_, err := tx.NewUpdate().
				Model(destination).
				Column(columns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if _, err := tx.NewInsert().Model(log).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		if len(snapshots) > 0 {
			if _, err := tx.NewInsert().Model(&snapshots).Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("set migration executed", logger.Data{
		"migration_log_id":   log.ID,
		"source_set_id":      log.SourceSetID,
		"destination_set_id": log.DestinationSetID,
		"moved_card_count":   log.MovedCardCount,
		"insert_forced":      log.InsertForced,
		"admin_id":           admin.ID,
	})

	return svc.RetrieveLog(ctx, log.ID)
}

func (svc *Service) RetrieveLog(ctx context.Context, id string) (*models.SetMigrationLog, error) {
	log := &models.SetMigrationLog{}

	err := svc.db.
		NewSelect().
		Model(log).
		Relation("SourceSet").
		Relation("DestinationSet").
		Relation("AdminUser").
		Where("sml.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Migration log")
		}
		return nil, errors.WithStack(err)
	}

	return log, nil
}

func (svc *Service) ListLogs(ctx context.Context, opts ListLogsOptions) ([]*models.SetMigrationLog, error) {
	logs, _, err := svc.listLogsWithTotal(ctx, opts)
	return logs, errors.WithStack(err)
}

func (svc *Service) ListLogsWithTotal(ctx context.Context, opts ListLogsOptions) ([]*models.SetMigrationLog, int, error) {
	opts.includeTotal = true
	return svc.listLogsWithTotal(ctx, opts)
}

func (svc *Service) listLogsWithTotal(ctx context.Context, opts ListLogsOptions) ([]*models.SetMigrationLog, int, error) {
	logs := []*models.SetMigrationLog{}

	q := svc.db.
		NewSelect().
		Model(&logs).
		Relation("SourceSet").
		Relation("DestinationSet").
		Relation("AdminUser").
		Order("sml.created_at DESC", "sml.id DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err := q.ScanAndCount(ctx)
		if err != nil {
			return nil, 0, errors.WithStack(err)
		}
		return logs, total, nil
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return logs, 0, nil
}

// RollbackMigration moves the migrated cards back to the source set and
// restores each card's prior insert flag. Only cards still sitting in the
// destination set are touched; anything moved again since is skipped. A log
// can be rolled back once.
func (svc *Service) RollbackMigration(ctx context.Context, admin *models.User, logID string) (*RollbackResult, error) {
	result := &RollbackResult{}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		log := &models.SetMigrationLog{}
		err := tx.NewSelect().
			Model(log).
			Relation("Cards").
			Where("sml.id = ?", logID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Migration log")
			}
			return errors.WithStack(err)
		}

		if log.Status != models.MigrationStatusActive {
			return errcodes.ValidationError("This migration has already been rolled back.")
		}

		now := time.Now()
		for _, snapshot := range log.Cards {
			res, err := tx.NewUpdate().
				Model((*models.Card)(nil)).
				Set("card_set_id = ?", log.SourceSetID).
				Set("is_insert = ?", snapshot.PreviousIsInsert).
				Set("updated_at = ?", now).
				Where("id = ?", snapshot.CardID).
				Where("card_set_id = ?", log.DestinationSetID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return errors.WithStack(err)
			}
			if affected == 1 {
				result.RestoredCardCount++
			} else {
				result.SkippedCardCount++
			}
		}

		log.Status = models.MigrationStatusRolledBack
		log.RolledBackAt = &now
		_, err = tx.NewUpdate().
			Model(log).
			Column("status", "rolled_back_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		result.Log = log
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("set migration rolled back", logger.Data{
		"migration_log_id":    logID,
		"restored_card_count": result.RestoredCardCount,
		"skipped_card_count":  result.SkippedCardCount,
		"admin_id":            admin.ID,
	})

	result.Log, err = svc.RetrieveLog(ctx, logID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func retrieveSet(ctx context.Context, idb bun.IDB, id int, label string) (*models.CardSet, error) {
	cardSet := &models.CardSet{}
	err := idb.NewSelect().
		Model(cardSet).
		Where("cs.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound(label)
		}
		return nil, errors.WithStack(err)
	}
	return cardSet, nil
}

func listSetCards(ctx context.Context, idb bun.IDB, setID int) ([]*models.Card, error) {
	cards := []*models.Card{}
	err := idb.NewSelect().
		Model(&cards).
		Where("c.card_set_id = ?", setID).
		Order("c.card_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cards, nil
}
