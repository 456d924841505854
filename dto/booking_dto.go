package dto

type CreateBookingDTO struct {
	SlotID      int64  `json:"slot_id" binding:"required,gt=0"`
	BookingDate string `json:"booking_date" binding:"required,datetime=2006-01-02"`
}

type UpdateBookingStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled"`
}

type ListBookingsQuery struct {
	SlotID *int64 `form:"slot_id" binding:"omitempty,gt=0"`
}

type AvailabilityQuery struct {
	TargetDate string `form:"target_date" binding:"required,datetime=2006-01-02"`
	Code       string `form:"code"`
}
