package cardsets

type ListCardSetsQuery struct {
	Limit           int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset          int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search          *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
	Year            *int    `query:"year" json:"year,omitempty" validate:"omitempty,year"`
	MainSetID       *int    `query:"main_set_id" json:"main_set_id,omitempty" validate:"omitempty,min=1"`
	HasCards        *bool   `query:"has_cards" json:"has_cards,omitempty"`
	IncludeArchived bool    `query:"include_archived" json:"include_archived,omitempty"`
	CanonicalOnly   bool    `query:"canonical_only" json:"canonical_only,omitempty"`
}

type CreateCardSetPayload struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Year           int     `json:"year" validate:"required,year"`
	MainSetID      *int    `json:"main_set_id,omitempty" validate:"omitempty,min=1"`
	ImageURL       *string `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	IsCanonical    bool    `json:"is_canonical"`
	IsInsertSubset bool    `json:"is_insert_subset"`
}

type UpdateCardSetPayload struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Year           *int    `json:"year,omitempty" validate:"omitempty,year"`
	MainSetID      *int    `json:"main_set_id,omitempty" validate:"omitempty,min=1"`
	ImageURL       *string `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	IsInsertSubset *bool   `json:"is_insert_subset,omitempty"`
}

type ArchivePayload struct {
	Confirmation *string `json:"confirmation,omitempty" validate:"omitempty,max=100"`
}

type DeletePayload struct {
	Confirmation *string `json:"confirmation,omitempty" validate:"omitempty,max=100"`
}

type PromotePayload struct {
	Confirmation *string `json:"confirmation,omitempty" validate:"omitempty,max=100"`
	MainSetID    *int    `json:"main_set_id,omitempty" validate:"omitempty,min=1"`
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Year         *int    `json:"year,omitempty" validate:"omitempty,year"`
}

type SampleCardsQuery struct {
	Limit int `query:"limit" json:"limit,omitempty" default:"8" validate:"min=1,max=24"`
}
