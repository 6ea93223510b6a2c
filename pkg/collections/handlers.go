package collections

import (
	"net/http"
	"strconv"

	"github.com/cardbinder/cardbinder/pkg/auth"
	"github.com/cardbinder/cardbinder/pkg/cards"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	collectionService *Service
	cardService       *cards.Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.CurrentUser(c)

	params := ListEntriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.collectionService.ListEntriesWithTotal(ctx, ListEntriesOptions{
		UserID:    user.ID,
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		CardSetID: params.CardSetID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Entries []*models.CollectionEntry `json:"entries"`
		Total   int                       `json:"total"`
	}{entries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) add(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.CurrentUser(c)

	params := AddEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// The card has to exist before it can be collected.
	if _, err := h.cardService.RetrieveCard(ctx, cards.RetrieveCardOptions{ID: &params.CardID}); err != nil {
		return errors.WithStack(err)
	}

	entry := &models.CollectionEntry{
		UserID:    user.ID,
		CardID:    params.CardID,
		Quantity:  params.Quantity,
		Condition: params.Condition,
	}
	if err := h.collectionService.AddEntry(ctx, entry); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, entry))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Collection entry")
	}

	params := UpdateEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.collectionService.RetrieveEntry(ctx, RetrieveEntryOptions{ID: &id, UserID: &user.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateEntryOptions{Columns: []string{}}

	if params.Quantity != nil && *params.Quantity != entry.Quantity {
		entry.Quantity = *params.Quantity
		opts.Columns = append(opts.Columns, "quantity")
	}

	if err := h.collectionService.UpdateEntry(ctx, entry, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Collection entry")
	}

	if err := h.collectionService.RemoveEntry(ctx, user.ID, id); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
