package domain

import "time"

// Finance Model
type Finance struct {
	ID          uint      `gorm:"primaryKey" json:"id"`              // Primary key
	UserID      uint      `gorm:"index;not null" json:"userId"`      // Owning tenant
	Category    string    `gorm:"size:100;not null" json:"category"` // Expense category
	Amount      float64   `gorm:"not null" json:"amount"`            // Amount spent
	Description string    `gorm:"size:500" json:"description"`       // Free text note
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`            // Creation timestamp
}
