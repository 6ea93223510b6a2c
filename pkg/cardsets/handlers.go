package cardsets

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cardbinder/cardbinder/pkg/auth"
	"github.com/cardbinder/cardbinder/pkg/errcodes"
	"github.com/cardbinder/cardbinder/pkg/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// maxImageSize caps set image uploads at 5 MB.
const maxImageSize = 5 << 20

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".png":  true,
	".webp": true,
}

type handler struct {
	cardSetService *Service
	uploadDir      string
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListCardSetsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cardSets, total, err := h.cardSetService.ListCardSetsWithTotal(ctx, ListCardSetsOptions{
		Limit:           &params.Limit,
		Offset:          &params.Offset,
		Search:          params.Search,
		Year:            params.Year,
		MainSetID:       params.MainSetID,
		HasCards:        params.HasCards,
		IncludeArchived: params.IncludeArchived,
		CanonicalOnly:   params.CanonicalOnly,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		CardSets []*models.CardSet `json:"card_sets"`
		Total    int               `json:"total"`
	}{cardSets, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// retrieve looks up a card set by numeric ID, falling back to slug lookup so
// admin links can use either form.
func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	opts := RetrieveCardSetOptions{}
	if id, err := strconv.Atoi(c.Param("id")); err == nil {
		opts.ID = &id
	} else {
		s := c.Param("id")
		opts.Slug = &s
	}

	cardSet, err := h.cardSetService.RetrieveCardSet(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCardSetPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cardSet := &models.CardSet{
		Name:           params.Name,
		Year:           params.Year,
		MainSetID:      params.MainSetID,
		ImageURL:       params.ImageURL,
		IsActive:       true,
		IsCanonical:    params.IsCanonical,
		IsInsertSubset: params.IsInsertSubset,
	}
	if err := h.cardSetService.CreateCardSet(ctx, cardSet); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, cardSet))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	params := UpdateCardSetPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cardSet, err := h.cardSetService.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateCardSetOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != cardSet.Name {
		cardSet.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Year != nil && *params.Year != cardSet.Year {
		cardSet.Year = *params.Year
		opts.Columns = append(opts.Columns, "year")
	}
	if params.MainSetID != nil {
		cardSet.MainSetID = params.MainSetID
		opts.Columns = append(opts.Columns, "main_set_id")
	}
	if params.ImageURL != nil {
		cardSet.ImageURL = params.ImageURL
		opts.Columns = append(opts.Columns, "image_url")
	}
	if params.IsInsertSubset != nil && *params.IsInsertSubset != cardSet.IsInsertSubset {
		cardSet.IsInsertSubset = *params.IsInsertSubset
		opts.Columns = append(opts.Columns, "is_insert_subset")
	}

	if err := h.cardSetService.UpdateCardSet(ctx, cardSet, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}

func (h *handler) archive(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	params := ArchivePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cardSet, err := h.cardSetService.Archive(ctx, auth.CurrentUser(c), id, params.Confirmation)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}

func (h *handler) unarchive(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	cardSet, err := h.cardSetService.Unarchive(ctx, auth.CurrentUser(c), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	params := DeletePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.cardSetService.Delete(ctx, auth.CurrentUser(c), id, params.Confirmation); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) promote(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	params := PromotePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cardSet, err := h.cardSetService.Promote(ctx, auth.CurrentUser(c), id, PromoteOptions{
		Confirmation: params.Confirmation,
		NewMainSetID: params.MainSetID,
		NewName:      params.Name,
		NewYear:      params.Year,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}

func (h *handler) sampleCards(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	params := SampleCardsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if _, err := h.cardSetService.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &id}); err != nil {
		return errors.WithStack(err)
	}

	cards, err := h.cardSetService.SampleCards(ctx, id, params.Limit)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Cards []*models.Card `json:"cards"`
	}{cards}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// uploadImage accepts a multipart image upload for a set, sniffing the real
// content type rather than trusting the filename.
func (h *handler) uploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Card set")
	}

	cardSet, err := h.cardSetService.RetrieveCardSet(ctx, RetrieveCardSetOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return errcodes.ValidationError("An image file is required.")
	}
	if fileHeader.Size > maxImageSize {
		return errcodes.ValidationError("Image must be 5 MB or smaller.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return errors.WithStack(err)
	}
	ext := mtype.Extension()
	if !allowedImageExtensions[ext] {
		return errcodes.UnsupportedMediaType()
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}

	filename := fmt.Sprintf("card-set-%d%s", cardSet.ID, ext)
	destPath := filepath.Join(h.uploadDir, filename)

	dest, err := os.Create(destPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		return errors.WithStack(err)
	}

	imageURL := "/uploads/" + filename
	cardSet.ImagePath = &destPath
	cardSet.ImageURL = &imageURL
	if err := h.cardSetService.UpdateCardSet(ctx, cardSet, UpdateCardSetOptions{
		Columns: []string{"image_path", "image_url"},
	}); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cardSet))
}
