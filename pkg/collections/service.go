package collections

import (
	"context"
	"database/sql"
	"time"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveEntryOptions struct {
	ID     *int
	UserID *int
}

type ListEntriesOptions struct {
	UserID    int
	Limit     *int
	Offset    *int
	CardSetID *int

	includeTotal bool
}

type UpdateEntryOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// AddEntry records a card in a user's collection. Adding a card the user
// already holds in the same condition bumps the quantity instead of creating
// a duplicate row.
func (svc *Service) AddEntry(ctx context.Context, entry *models.CollectionEntry) error {
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing := &models.CollectionEntry{}
		q := tx.NewSelect().
			Model(existing).
			Where("ce.user_id = ?", entry.UserID).
			Where("ce.card_id = ?", entry.CardID)
		if entry.Condition == nil {
			q = q.Where("ce.condition IS NULL")
		} else {
			q = q.Where("ce.condition = ?", *entry.Condition)
		}

		err := q.Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}

		if err == nil {
			existing.Quantity += entry.Quantity
			existing.UpdatedAt = time.Now()
			_, err = tx.NewUpdate().
				Model(existing).
				Column("quantity", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			*entry = *existing
			return nil
		}

		now := time.Now()
		entry.CreatedAt = now
		entry.UpdatedAt = now
		_, err = tx.NewInsert().
			Model(entry).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})

	return errors.WithStack(err)
}

func (svc *Service) RetrieveEntry(ctx context.Context, opts RetrieveEntryOptions) (*models.CollectionEntry, error) {
	entry := &models.CollectionEntry{}

	q := svc.db.
		NewSelect().
		Model(entry).
		Relation("Card").
		Relation("Card.CardSet")

	if opts.ID != nil {
		q = q.Where("ce.id = ?", *opts.ID)
	}
	if opts.UserID != nil {
		q = q.Where("ce.user_id = ?", *opts.UserID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Collection entry")
		}
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

func (svc *Service) ListEntries(ctx context.Context, opts ListEntriesOptions) ([]*models.CollectionEntry, error) {
	entries, _, err := svc.listEntriesWithTotal(ctx, opts)
	return entries, errors.WithStack(err)
}

func (svc *Service) ListEntriesWithTotal(ctx context.Context, opts ListEntriesOptions) ([]*models.CollectionEntry, int, error) {
	opts.includeTotal = true
	return svc.listEntriesWithTotal(ctx, opts)
}

func (svc *Service) listEntriesWithTotal(ctx context.Context, opts ListEntriesOptions) ([]*models.CollectionEntry, int, error) {
	entries := []*models.CollectionEntry{}

	q := svc.db.
		NewSelect().
		Model(&entries).
		Relation("Card").
		Relation("Card.CardSet").
		Where("ce.user_id = ?", opts.UserID).
		Order("ce.created_at DESC", "ce.id DESC")

	if opts.CardSetID != nil {
		q = q.Where("ce.card_id IN (SELECT id FROM cards WHERE card_set_id = ?)", *opts.CardSetID)
	}
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
		return entries, total, nil
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return entries, 0, nil
}

func (svc *Service) UpdateEntry(ctx context.Context, entry *models.CollectionEntry, opts UpdateEntryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	entry.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(entry).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RemoveEntry deletes a collection entry owned by the given user.
func (svc *Service) RemoveEntry(ctx context.Context, userID, entryID int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.CollectionEntry)(nil)).
		Where("ce.id = ?", entryID).
		Where("ce.user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Collection entry")
	}

	return nil
}
