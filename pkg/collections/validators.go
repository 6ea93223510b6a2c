package collections

type ListEntriesQuery struct {
	Limit     int  `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset    int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	CardSetID *int `query:"card_set_id" json:"card_set_id,omitempty" validate:"omitempty,min=1"`
}

type AddEntryPayload struct {
	CardID    int     `json:"card_id" validate:"required,min=1"`
	Quantity  int     `json:"quantity,omitempty" default:"1" validate:"min=1,max=9999"`
	Condition *string `json:"condition,omitempty" validate:"omitempty,oneof=mint near_mint excellent good fair poor"`
}

type UpdateEntryPayload struct {
	Quantity *int `json:"quantity,omitempty" validate:"omitempty,min=1,max=9999"`
}
