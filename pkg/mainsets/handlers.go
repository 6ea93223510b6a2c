package mainsets

import (
	"net/http"
	"strconv"

	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	mainSetService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListMainSetsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	mainSets, total, err := h.mainSetService.ListMainSetsWithTotal(ctx, ListMainSetsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
		Year:   params.Year,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		MainSets []*models.MainSet `json:"main_sets"`
		Total    int               `json:"total"`
	}{mainSets, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Main set")
	}

	mainSet, err := h.mainSetService.RetrieveMainSet(ctx, RetrieveMainSetOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, mainSet))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateMainSetPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	mainSet := &models.MainSet{
		Name: params.Name,
		Year: params.Year,
	}
	if err := h.mainSetService.CreateMainSet(ctx, mainSet); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, mainSet))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Main set")
	}

	params := UpdateMainSetPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	mainSet, err := h.mainSetService.RetrieveMainSet(ctx, RetrieveMainSetOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateMainSetOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != mainSet.Name {
		mainSet.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Year != nil && *params.Year != mainSet.Year {
		mainSet.Year = *params.Year
		opts.Columns = append(opts.Columns, "year")
	}

	if err := h.mainSetService.UpdateMainSet(ctx, mainSet, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, mainSet))
}
