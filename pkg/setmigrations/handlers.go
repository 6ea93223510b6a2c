package setmigrations

import (
	"net/http"

	"github.com/cardbinder/cardbinder/pkg/auth"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	migrationService *Service
}

func (h *handler) preview(c echo.Context) error {
	ctx := c.Request().Context()

	params := PreviewQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	p, err := h.migrationService.PreviewMigration(ctx, params.SourceSetID, params.DestinationSetID, params.ForceInsert)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, p))
}

func (h *handler) execute(c echo.Context) error {
	ctx := c.Request().Context()

	params := ExecutePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	log, err := h.migrationService.ExecuteMigration(ctx, auth.CurrentUser(c), ExecuteOptions{
		SourceSetID:      params.SourceSetID,
		DestinationSetID: params.DestinationSetID,
		ForceInsert:      params.ForceInsert,
		Confirmation:     params.Confirmation,
		Notes:            params.Notes,
		NewMainSetID:     params.NewMainSetID,
		NewSetName:       params.NewSetName,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, log))
}

func (h *handler) listLogs(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListLogsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	logs, total, err := h.migrationService.ListLogsWithTotal(ctx, ListLogsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Logs  []*models.SetMigrationLog `json:"logs"`
		Total int                       `json:"total"`
	}{logs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) rollback(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.migrationService.RollbackMigration(ctx, auth.CurrentUser(c), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}
