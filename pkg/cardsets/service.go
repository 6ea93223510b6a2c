package cardsets

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveCardSetOptions struct {
	ID   *int
	Slug *string
}

type ListCardSetsOptions struct {
	Limit           *int
	Offset          *int
	Search          *string
	Year            *int
	HasCards        *bool
	IncludeArchived bool
	CanonicalOnly   bool
	MainSetID       *int

	includeTotal bool
}

type UpdateCardSetOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// cardCountColumn annotates card set queries with the owned card count.
func cardCountColumn(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("cs.*").
		ColumnExpr("(SELECT count(*) FROM cards AS c WHERE c.card_set_id = cs.id) AS card_count")
}

// CreateCardSet inserts a card set, deriving a unique slug from its name and
// year. Slug collisions get a numeric suffix.
func (svc *Service) CreateCardSet(ctx context.Context, cardSet *models.CardSet) error {
	now := time.Now()
	if cardSet.CreatedAt.IsZero() {
		cardSet.CreatedAt = now
	}
	cardSet.UpdatedAt = cardSet.CreatedAt

	if cardSet.Slug == "" {
		derived, err := svc.deriveSlug(ctx, cardSet.Name, cardSet.Year)
		if err != nil {
			return err
		}
		cardSet.Slug = derived
	}

	_, err := svc.db.
		NewInsert().
		Model(cardSet).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) deriveSlug(ctx context.Context, name string, year int) (string, error) {
	base := slug.Make(fmt.Sprintf("%d %s", year, name))

	candidate := base
	for i := 2; ; i++ {
		exists, err := svc.db.
			NewSelect().
			Model((*models.CardSet)(nil)).
			Where("cs.slug = ?", candidate).
			Exists(ctx)
		if err != nil {
			return "", errors.WithStack(err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (svc *Service) RetrieveCardSet(ctx context.Context, opts RetrieveCardSetOptions) (*models.CardSet, error) {
	cardSet := &models.CardSet{}

	q := svc.db.
		NewSelect().
		Model(cardSet).
		Relation("MainSet")
	q = cardCountColumn(q)

	if opts.ID != nil {
		q = q.Where("cs.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("cs.slug = ?", *opts.Slug)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Card set")
		}
		return nil, errors.WithStack(err)
	}

	return cardSet, nil
}

func (svc *Service) ListCardSets(ctx context.Context, opts ListCardSetsOptions) ([]*models.CardSet, error) {
	cardSets, _, err := svc.listCardSetsWithTotal(ctx, opts)
	return cardSets, errors.WithStack(err)
}

func (svc *Service) ListCardSetsWithTotal(ctx context.Context, opts ListCardSetsOptions) ([]*models.CardSet, int, error) {
	opts.includeTotal = true
	return svc.listCardSetsWithTotal(ctx, opts)
}

func (svc *Service) listCardSetsWithTotal(ctx context.Context, opts ListCardSetsOptions) ([]*models.CardSet, int, error) {
	cardSets := []*models.CardSet{}

	q := svc.db.
		NewSelect().
		Model(&cardSets).
		Relation("MainSet").
		Order("cs.year DESC", "cs.name ASC")
	q = cardCountColumn(q)

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("cs.name LIKE ?", "%"+*opts.Search+"%")
	}
	if opts.Year != nil {
		q = q.Where("cs.year = ?", *opts.Year)
	}
	if opts.MainSetID != nil {
		q = q.Where("cs.main_set_id = ?", *opts.MainSetID)
	}
	if !opts.IncludeArchived {
		q = q.Where("cs.is_active = ?", true)
	}
	if opts.CanonicalOnly {
		q = q.Where("cs.is_canonical = ?", true)
	}
	if opts.HasCards != nil {
		if *opts.HasCards {
			q = q.Where("EXISTS (SELECT 1 FROM cards AS c WHERE c.card_set_id = cs.id)")
		} else {
			q = q.Where("NOT EXISTS (SELECT 1 FROM cards AS c WHERE c.card_set_id = cs.id)")
		}
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
		return cardSets, total, nil
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return cardSets, 0, nil
}

func (svc *Service) UpdateCardSet(ctx context.Context, cardSet *models.CardSet, opts UpdateCardSetOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	cardSet.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(cardSet).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// CountCards returns the number of cards currently owned by the set.
func (svc *Service) CountCards(ctx context.Context, setID int) (int, error) {
	count, err := svc.db.
		NewSelect().
		Model((*models.Card)(nil)).
		Where("c.card_set_id = ?", setID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// SampleCards returns the first few cards of a set, ordered by card number,
// for admin visual confirmation before a migration.
func (svc *Service) SampleCards(ctx context.Context, setID, limit int) ([]*models.Card, error) {
	cards := []*models.Card{}
	err := svc.db.
		NewSelect().
		Model(&cards).
		Where("c.card_set_id = ?", setID).
		Order("c.card_number ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cards, nil
}
