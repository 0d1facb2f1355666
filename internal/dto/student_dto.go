package dto

import (
	"time"

	"github.com/noah-isme/unims-go-api/internal/models"
)

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

// StudentRequest is the payload for creating or replacing a student record.
// StudentID is ignored on create (the store assigns it) and must match the
// path identifier on update.
type StudentRequest struct {
	StudentID   uint   `json:"student_id"`
	FirstName   string `json:"first_name" validate:"required,min=1,max=255"`
	LastName    string `json:"last_name" validate:"required,min=1,max=255"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
}

// StudentResponse is the serialized representation returned to API clients.
type StudentResponse struct {
	StudentID   uint      `json:"student_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		StudentID:   model.StudentID,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		Email:       model.Email,
		DateOfBirth: model.DateOfBirth.Format(DateLayout),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}

// EnrollmentResponse is the serialized representation of an enrollment row.
type EnrollmentResponse struct {
	EnrollmentID uint      `json:"enrollment_id"`
	StudentID    uint      `json:"student_id"`
	CourseID     uint      `json:"course_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// NewEnrollmentResponseSlice converts a slice of models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, EnrollmentResponse{
			EnrollmentID: enrollment.EnrollmentID,
			StudentID:    enrollment.StudentID,
			CourseID:     enrollment.CourseID,
			EnrolledAt:   enrollment.EnrolledAt,
		})
	}

	return responses
}
