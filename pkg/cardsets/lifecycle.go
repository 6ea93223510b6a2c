package cardsets

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardbinder/cardbinder/pkg/confirm"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// PromoteOptions carries the optional metadata changes applied together with
// the canonical flag.
type PromoteOptions struct {
	Confirmation *string
	NewMainSetID *int
	NewName      *string
	NewYear      *int
}

// Archive marks a set inactive. An empty set archives without confirmation;
// a set that still owns cards requires the exact phrase and must not have any
// of its cards referenced by user collections.
func (svc *Service) Archive(ctx context.Context, admin *models.User, setID int, confirmation *string) (*models.CardSet, error) {
	cardSet, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &setID})
	if err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		cardCount, err := countCardsIn(ctx, tx, setID)
		if err != nil {
			return err
		}

		if cardCount > 0 {
			if err := confirm.Require(confirm.OperationArchiveWithCards, confirmation); err != nil {
				return err
			}

			// Archiving a set whose cards live in user collections would hide
			// those cards from their owners, so any reference blocks it.
			refCount, err := countCollectionReferences(ctx, tx, setID)
			if err != nil {
				return err
			}
			if refCount > 0 {
				return errcodes.ReferentialIntegrity(fmt.Sprintf(
					"Cannot archive: %d collection entries reference cards in this set.", refCount))
			}
		}

		cardSet.IsActive = false
		cardSet.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(cardSet).
			Column("is_active", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("card set archived", logger.Data{
		"card_set_id": cardSet.ID,
		"admin_id":    admin.ID,
	})

	return cardSet, nil
}

// Unarchive marks a set active again, unconditionally.
func (svc *Service) Unarchive(ctx context.Context, admin *models.User, setID int) (*models.CardSet, error) {
	cardSet, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &setID})
	if err != nil {
		return nil, err
	}

	cardSet.IsActive = true
	if err := svc.UpdateCardSet(ctx, cardSet, UpdateCardSetOptions{Columns: []string{"is_active"}}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("card set unarchived", logger.Data{
		"card_set_id": cardSet.ID,
		"admin_id":    admin.ID,
	})

	return cardSet, nil
}

// Delete permanently removes a set row. Only an empty, non-canonical set can
// be deleted, and those guards hold regardless of the confirmation phrase.
func (svc *Service) Delete(ctx context.Context, admin *models.User, setID int, confirmation *string) error {
	cardSet, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &setID})
	if err != nil {
		return err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		cardCount, err := countCardsIn(ctx, tx, setID)
		if err != nil {
			return err
		}
		if cardCount > 0 {
			return errcodes.ReferentialIntegrity(fmt.Sprintf(
				"Cannot delete: this set still owns %d cards. Migrate them out first.", cardCount))
		}
		if cardSet.IsCanonical {
			return errcodes.ReferentialIntegrity("Cannot delete a canonical set. Demote it first.")
		}

		if err := confirm.Require(confirm.OperationDeleteSet, confirmation); err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model(cardSet).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("card set deleted", logger.Data{
		"card_set_id": setID,
		"admin_id":    admin.ID,
	})

	return nil
}

// Promote flips a non-canonical set to canonical, optionally reassigning its
// main set, renaming it, and/or setting its year in the same transaction.
// Cards are untouched.
func (svc *Service) Promote(ctx context.Context, admin *models.User, setID int, opts PromoteOptions) (*models.CardSet, error) {
	cardSet, err := svc.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &setID})
	if err != nil {
		return nil, err
	}

	if cardSet.IsCanonical {
		return nil, errcodes.ValidationError("This set is already canonical.")
	}

	if err := confirm.Require(confirm.OperationPromoteToCanonical, opts.Confirmation); err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		columns := []string{"is_canonical", "updated_at"}
		cardSet.IsCanonical = true
		cardSet.UpdatedAt = time.Now()

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
			cardSet.MainSetID = opts.NewMainSetID
			columns = append(columns, "main_set_id")
		}
		if opts.NewName != nil && *opts.NewName != cardSet.Name {
			cardSet.Name = *opts.NewName
			columns = append(columns, "name")
		}
		if opts.NewYear != nil && *opts.NewYear != cardSet.Year {
			cardSet.Year = *opts.NewYear
			columns = append(columns, "year")
		}

		_, err := tx.NewUpdate().
			Model(cardSet).
			Column(columns...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("card set promoted to canonical", logger.Data{
		"card_set_id": cardSet.ID,
		"admin_id":    admin.ID,
	})

	return cardSet, nil
}

func countCardsIn(ctx context.Context, idb bun.IDB, setID int) (int, error) {
	count, err := idb.NewSelect().
		Model((*models.Card)(nil)).
		Where("c.card_set_id = ?", setID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

func countCollectionReferences(ctx context.Context, idb bun.IDB, setID int) (int, error) {
	count, err := idb.NewSelect().
		Model((*models.CollectionEntry)(nil)).
		Join("JOIN cards AS c ON c.id = ce.card_id").
		Where("c.card_set_id = ?", setID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}
