package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/unims-go-api/internal/models"
)

// EnrollmentRepository provides read access to a student's enrollments.
type EnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("enrollment_id ASC").Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}
