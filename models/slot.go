package models

import "time"

type Slot struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Description *string   `gorm:"type:varchar(255)" json:"description"`
	OwnerID     int64     `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// OwnedBy reports whether userID owns the slot.
func (s *Slot) OwnedBy(userID int64) bool {
	return s.OwnerID == userID
}
