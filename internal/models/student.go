package models

import "time"

// Student is a single record in the university student registry.
type Student struct {
	StudentID uint   `gorm:"primaryKey;column:student_id" json:"student_id"`
	FirstName string `gorm:"size:255;not null" json:"first_name"`
	LastName  string `gorm:"size:255;not null" json:"last_name"`
	// Uniqueness is enforced by the create pre-check, not by a store constraint.
	Email       string    `gorm:"size:255;not null" json:"email"`
	DateOfBirth time.Time `gorm:"not null" json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
