package cards

type ListCardsQuery struct {
	Limit     int   `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset    int   `query:"offset" json:"offset,omitempty" validate:"min=0"`
	CardSetID *int  `query:"card_set_id" json:"card_set_id,omitempty" validate:"omitempty,min=1"`
	IsInsert  *bool `query:"is_insert" json:"is_insert,omitempty"`
}

type CreateCardPayload struct {
	CardSetID           int     `json:"card_set_id" validate:"required,min=1"`
	CardNumber          string  `json:"card_number" validate:"required,max=20"`
	Name                string  `json:"name" validate:"required,max=200"`
	IsInsert            bool    `json:"is_insert"`
	ImageURL            *string `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	EstimatedValueCents *int64  `json:"estimated_value_cents,omitempty" validate:"omitempty,min=0"`
}

type UpdateCardPayload struct {
	CardNumber          *string `json:"card_number,omitempty" validate:"omitempty,min=1,max=20"`
	Name                *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	IsInsert            *bool   `json:"is_insert,omitempty"`
	ImageURL            *string `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	EstimatedValueCents *int64  `json:"estimated_value_cents,omitempty" validate:"omitempty,min=0"`
}
