package models

import "time"

// Enrollment links a student to a course. Course administration lives in
// another area; only the student relationship is managed here.
type Enrollment struct {
	EnrollmentID uint      `gorm:"primaryKey;column:enrollment_id" json:"enrollment_id"`
	StudentID    uint      `gorm:"index;not null" json:"student_id"`
	CourseID     uint      `gorm:"not null" json:"course_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}
