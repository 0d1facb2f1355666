package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/unims-go-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Replace(ctx context.Context, student models.Student) error
	DeleteWithEnrollments(ctx context.Context, id uint) (bool, error)
	UpsertBatch(ctx context.Context, items []models.Student) (int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("student_id ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "student_id = ?", id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "email = ?", email).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *studentRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("student_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

// Replace overwrites the four mutable fields wholesale. It reports
// gorm.ErrRecordNotFound when the targeted row no longer exists, which is how
// a delete racing the update surfaces at commit time.
func (r *studentRepository) Replace(ctx context.Context, student models.Student) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).
		Where("student_id = ?", student.StudentID).
		Updates(map[string]interface{}{
			"first_name":    student.FirstName,
			"last_name":     student.LastName,
			"email":         student.Email,
			"date_of_birth": student.DateOfBirth,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DeleteWithEnrollments removes the student's enrollments and then the student
// row inside one transaction. An absent student is a no-op and reports false.
func (r *studentRepository) DeleteWithEnrollments(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.First(&student, "student_id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Where("student_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Student{}, "student_id = ?", id).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})

	return deleted, err
}

func (r *studentRepository) UpsertBatch(ctx context.Context, items []models.Student) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "email", "date_of_birth", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}
