package domain

import "time"

// User Model
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                       // Primary key
	Mobile     string    `gorm:"size:15;uniqueIndex;not null" json:"mobile"` // Unique 10-digit mobile number
	Password   string    `gorm:"not null" json:"-"`                          // Hashed password
	ShareCode  *string   `gorm:"size:16;uniqueIndex" json:"-"`               // Code others use to join this wedding
	LinkedToID *uint     `gorm:"index" json:"-"`                             // Primary account this user joined, if any
	CreatedAt  time.Time `json:"createdAt"`                                  // Creation timestamp
	UpdatedAt  time.Time `json:"-"`                                          // Last update timestamp
}

// TenantID returns the account whose data this user works on
func (u User) TenantID() uint {
	if u.LinkedToID != nil {
		return *u.LinkedToID
	}
	return u.ID
}

// IsReadOnly reports whether the user only has viewing rights
func (u User) IsReadOnly() bool {
	return u.LinkedToID != nil
}
