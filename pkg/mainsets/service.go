package mainsets

import (
	"context"
	"database/sql"
	"time"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveMainSetOptions struct {
	ID *int
}

type ListMainSetsOptions struct {
	Limit  *int
	Offset *int
	Search *string
	Year   *int

	includeTotal bool
}

type UpdateMainSetOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateMainSet(ctx context.Context, mainSet *models.MainSet) error {
	now := time.Now()
	if mainSet.CreatedAt.IsZero() {
		mainSet.CreatedAt = now
	}
	mainSet.UpdatedAt = mainSet.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(mainSet).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveMainSet(ctx context.Context, opts RetrieveMainSetOptions) (*models.MainSet, error) {
	mainSet := &models.MainSet{}

	q := svc.db.
		NewSelect().
		Model(mainSet)

	if opts.ID != nil {
		q = q.Where("ms.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Main set")
		}
		return nil, errors.WithStack(err)
	}

	return mainSet, nil
}

func (svc *Service) ListMainSets(ctx context.Context, opts ListMainSetsOptions) ([]*models.MainSet, error) {
	mainSets, _, err := svc.listMainSetsWithTotal(ctx, opts)
	return mainSets, errors.WithStack(err)
}

func (svc *Service) ListMainSetsWithTotal(ctx context.Context, opts ListMainSetsOptions) ([]*models.MainSet, int, error) {
	opts.includeTotal = true
	return svc.listMainSetsWithTotal(ctx, opts)
}

func (svc *Service) listMainSetsWithTotal(ctx context.Context, opts ListMainSetsOptions) ([]*models.MainSet, int, error) {
	mainSets := []*models.MainSet{}

	q := svc.db.
		NewSelect().
		Model(&mainSets).
		Order("ms.year DESC", "ms.name ASC")

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("ms.name LIKE ?", "%"+*opts.Search+"%")
	}
	if opts.Year != nil {
		q = q.Where("ms.year = ?", *opts.Year)
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
		return mainSets, total, nil
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return mainSets, 0, nil
}

func (svc *Service) UpdateMainSet(ctx context.Context, mainSet *models.MainSet, opts UpdateMainSetOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	mainSet.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(mainSet).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}
