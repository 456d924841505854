package models

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookingTransitions is the complete state machine. Staying in the same
// state is allowed; cancelled is terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled},
	BookingStatusCancelled: {BookingStatusCancelled},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if _, ok := bookingTransitions[st]; !ok {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

// Active reports whether the status holds the slot for its date.
func (s BookingStatus) Active() bool {
	return s != BookingStatusCancelled
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SlotID      int64         `gorm:"not null;index" json:"slot_id"`
	UserID      int64         `gorm:"not null;index" json:"user_id"`
	BookingDate Date          `gorm:"type:date;not null" json:"booking_date"`
	Status      BookingStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Slot *Slot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// BookedBy reports whether userID made the booking.
func (b *Booking) BookedBy(userID int64) bool {
	return b.UserID == userID
}
