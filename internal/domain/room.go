package domain

import "time"

// Room Model
type Room struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID      uint      `gorm:"index;not null" json:"userId"`              // Owning tenant
	Name        string    `gorm:"size:255;not null" json:"name"`             // Room name
	Capacity    int       `gorm:"not null;default:2" json:"capacity"`        // Beds in the room
	HasExtraBed bool      `gorm:"not null;default:false" json:"hasExtraBed"` // One extra bed added
	Guests      []Guest   `json:"guests"`                                    // Allocated guests
	CreatedAt   time.Time `json:"createdAt"`                                 // Creation timestamp
	UpdatedAt   time.Time `json:"updatedAt"`                                 // Last update timestamp
}

// EffectiveCapacity is the capacity including the extra bed
func (r Room) EffectiveCapacity() int {
	if r.HasExtraBed {
		return r.Capacity + 1
	}
	return r.Capacity
}
