package cards

import (
	"net/http"
	"strconv"

	"github.com/cardbinder/cardbinder/pkg/cardsets"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	cardService    *Service
	cardSetService *cardsets.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCardsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cards, total, err := h.cardService.ListCardsWithTotal(ctx, ListCardsOptions{
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		CardSetID: params.CardSetID,
		IsInsert:  params.IsInsert,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Cards []*models.Card `json:"cards"`
		Total int            `json:"total"`
	}{cards, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card")
	}

	card, err := h.cardService.RetrieveCard(ctx, RetrieveCardOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, card))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCardPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// The owning set has to exist before a card can point at it.
	if _, err := h.cardSetService.RetrieveCardSet(ctx, cardsets.RetrieveCardSetOptions{ID: &params.CardSetID}); err != nil {
		return errors.WithStack(err)
	}

	card := &models.Card{
		CardSetID:           params.CardSetID,
		CardNumber:          params.CardNumber,
		Name:                params.Name,
		IsInsert:            params.IsInsert,
		ImageURL:            params.ImageURL,
		EstimatedValueCents: params.EstimatedValueCents,
	}
	if err := h.cardService.CreateCard(ctx, card); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, card))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card")
	}

	params := UpdateCardPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	card, err := h.cardService.RetrieveCard(ctx, RetrieveCardOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateCardOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != card.Name {
		card.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.CardNumber != nil && *params.CardNumber != card.CardNumber {
		card.CardNumber = *params.CardNumber
		opts.Columns = append(opts.Columns, "card_number")
	}
	if params.IsInsert != nil && *params.IsInsert != card.IsInsert {
		card.IsInsert = *params.IsInsert
		opts.Columns = append(opts.Columns, "is_insert")
	}
	if params.ImageURL != nil {
		card.ImageURL = params.ImageURL
		opts.Columns = append(opts.Columns, "image_url")
	}
	if params.EstimatedValueCents != nil {
		card.EstimatedValueCents = params.EstimatedValueCents
		opts.Columns = append(opts.Columns, "estimated_value_cents")
	}

	if err := h.cardService.UpdateCard(ctx, card, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, card))
}
