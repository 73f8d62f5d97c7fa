package mockapi

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// User represents a registered account. IDs are numeric because the API's
// token payload carries the user id in the numeric `sub` claim.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Expense represents an expense record owned by a user
type Expense struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Description string    `json:"description" gorm:"not null"`
	Amount      float64   `json:"amount" gorm:"not null"`
	Date        string    `json:"date" gorm:"not null"` // YYYY-MM-DD
	UserID      uint      `json:"userId" gorm:"index;not null"`
	CreatedAt   time.Time `json:"-" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	return nil
}

// AutoMigrate runs schema migrations for all mock API models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Expense{})
}
