package setmigrations

type PreviewQuery struct {
	SourceSetID      int  `query:"source_set_id" json:"source_set_id" validate:"required,min=1"`
	DestinationSetID int  `query:"destination_set_id" json:"destination_set_id" validate:"required,min=1"`
	ForceInsert      bool `query:"force_insert" json:"force_insert,omitempty"`
}

type ExecutePayload struct {
	SourceSetID      int     `json:"source_set_id" validate:"required,min=1"`
	DestinationSetID int     `json:"destination_set_id" validate:"required,min=1"`
	ForceInsert      bool    `json:"force_insert"`
	Confirmation     *string `json:"confirmation,omitempty" validate:"omitempty,max=100"`
	Notes            *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	NewMainSetID     *int    `json:"new_main_set_id,omitempty" validate:"omitempty,min=1"`
	NewSetName       *string `json:"new_set_name,omitempty" validate:"omitempty,min=1,max=200"`
}

type ListLogsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}
