package cards

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveCardOptions struct {
	ID *int
}

type ListCardsOptions struct {
	Limit     *int
	Offset    *int
	CardSetID *int
	IsInsert  *bool

	includeTotal bool
}

type UpdateCardOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateCard inserts a card. Duplicate card numbers within a set are rejected
// for manual creation; only a confirmed set migration may produce them.
func (svc *Service) CreateCard(ctx context.Context, card *models.Card) error {
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = card.CreatedAt

	exists, err := svc.db.
		NewSelect().
		Model((*models.Card)(nil)).
		Where("c.card_set_id = ?", card.CardSetID).
		Where("c.card_number = ?", card.CardNumber).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.ValidationError(fmt.Sprintf("Card number %q already exists in this set.", card.CardNumber))
	}

	_, err = svc.db.
		NewInsert().
		Model(card).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveCard(ctx context.Context, opts RetrieveCardOptions) (*models.Card, error) {
	card := &models.Card{}

	q := svc.db.
		NewSelect().
		Model(card).
		Relation("CardSet")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Card")
		}
		return nil, errors.WithStack(err)
	}

	return card, nil
}

func (svc *Service) ListCards(ctx context.Context, opts ListCardsOptions) ([]*models.Card, error) {
	cards, _, err := svc.listCardsWithTotal(ctx, opts)
	return cards, errors.WithStack(err)
}

func (svc *Service) ListCardsWithTotal(ctx context.Context, opts ListCardsOptions) ([]*models.Card, int, error) {
	opts.includeTotal = true
	return svc.listCardsWithTotal(ctx, opts)
}

func (svc *Service) listCardsWithTotal(ctx context.Context, opts ListCardsOptions) ([]*models.Card, int, error) {
	cards := []*models.Card{}

	q := svc.db.
		NewSelect().
		Model(&cards).
		Order("c.card_number ASC")

	if opts.CardSetID != nil {
		q = q.Where("c.card_set_id = ?", *opts.CardSetID)
	}
	if opts.IsInsert != nil {
		q = q.Where("c.is_insert = ?", *opts.IsInsert)
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
		return cards, total, nil
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return cards, 0, nil
}

func (svc *Service) UpdateCard(ctx context.Context, card *models.Card, opts UpdateCardOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	card.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(card).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
