package domain

import (
	"strings"
	"time"
)

// Gender values stored on a guest
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Guest Model
type Guest struct {
	ID                uint       `gorm:"primaryKey" json:"id"`                                // Primary key
	UserID            uint       `gorm:"index;not null" json:"userId"`                        // Owning tenant
	Name              string     `gorm:"size:255;not null" json:"name"`                       // Guest name
	Mobile            string     `gorm:"size:32" json:"mobile"`                               // Mobile number
	Gender            string     `gorm:"size:10;default:Other" json:"gender"`                 // Male, Female or Other
	Side              string     `gorm:"size:32" json:"side"`                                 // Bride or groom side
	IsTentative       bool       `gorm:"not null;default:false" json:"isTentative"`           // Attendance not confirmed
	ArrivalTime       *time.Time `json:"arrivalTime"`                                         // Arrival date and time
	ArrivalFlightNo   string     `gorm:"size:32" json:"arrivalFlightNo"`                      // Arrival flight/train number
	ArrivalPnr        string     `gorm:"size:32" json:"arrivalPnr"`                           // Arrival booking reference
	DepartureTime     *time.Time `json:"departureTime"`                                       // Departure date and time
	DepartureFlightNo string     `gorm:"size:32" json:"departureFlightNo"`                    // Departure flight/train number
	DeparturePnr      string     `gorm:"size:32" json:"departurePnr"`                         // Departure booking reference
	IsNotified        bool       `gorm:"not null;default:false;index" json:"isNotified"`      // Room notification sent
	RoomID            *uint      `gorm:"index" json:"roomId"`                                 // Allocated room, if any
	Room              *Room      `gorm:"constraint:OnDelete:SET NULL;" json:"room,omitempty"` // Allocated room
	CreatedAt         time.Time  `json:"createdAt"`                                           // Creation timestamp
	UpdatedAt         time.Time  `json:"updatedAt"`                                           // Last update timestamp
}

// NormalizeGender maps free text onto Male, Female or Other
func NormalizeGender(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "m"):
		return GenderMale
	case strings.HasPrefix(s, "f"):
		return GenderFemale
	default:
		return GenderOther
	}
}
