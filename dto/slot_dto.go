package dto

type CreateSlotDTO struct {
	Code        string  `json:"code" binding:"required,slotcode"`
	Description *string `json:"description" binding:"omitempty,max=255"`
}

// UpdateSlotDTO carries the only mutable slot field. An absent or null
// description leaves it as is; an empty string clears it.
type UpdateSlotDTO struct {
	Description *string `json:"description" binding:"omitempty,max=255"`
}

type ListSlotsQuery struct {
	Limit  *int `form:"limit"`
	Offset int  `form:"offset"`
}

type IDParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}
