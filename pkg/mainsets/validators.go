package mainsets

type ListMainSetsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	Year   *int    `query:"year" json:"year,omitempty" validate:"omitempty,year"`
}

type CreateMainSetPayload struct {
	Name string `json:"name" validate:"required,max=200"`
	Year int    `json:"year" validate:"required,year"`
}

type UpdateMainSetPayload struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Year *int    `json:"year,omitempty" validate:"omitempty,year"`
}
