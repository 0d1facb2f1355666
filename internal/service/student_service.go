package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/unims-go-api/internal/dto"
	"github.com/noah-isme/unims-go-api/internal/models"
	"github.com/noah-isme/unims-go-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the requested student row does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateEmail indicates another student already uses the email.
	ErrDuplicateEmail = errors.New("a student with this email already exists")
	// ErrIdentityMissing indicates no caller identity could be resolved.
	ErrIdentityMissing = errors.New("caller identity missing")
	// ErrEmailNotConfirmed indicates the caller exists but has not confirmed
	// their email. This is a displayable condition, not a hard failure.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
)

// Identity describes the authenticated caller as resolved by the identity
// directory. It is passed in explicitly rather than read from ambient state.
type Identity struct {
	Email          string
	EmailConfirmed bool
}

// ValidationError carries field-level failures plus the rejected candidate so
// the caller can re-render the input unchanged.
type ValidationError struct {
	Fields    map[string]string
	Candidate dto.StudentRequest
}

func (e *ValidationError) Error() string {
	return "student payload validation failed"
}

// StudentService exposes record-level CRUD over the student registry plus the
// identity-bound lookup of the caller's own record.
type StudentService interface {
	List(ctx context.Context) ([]dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
	CurrentStudent(ctx context.Context, caller Identity) (dto.StudentResponse, error)
	Enrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
}

type studentService struct {
	students    repository.StudentRepository
	enrollments repository.EnrollmentRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, enrollments repository.EnrollmentRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentRequest) (dto.StudentResponse, error) {
	email := strings.TrimSpace(payload.Email)

	exists, err := s.students.EmailExists(ctx, email)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	if exists {
		return dto.StudentResponse{}, ErrDuplicateEmail
	}

	candidate, err := s.validate(payload)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	// The store assigns the identifier; any client-supplied value is ignored.
	candidate.StudentID = 0
	if err := s.students.Create(ctx, &candidate); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", candidate.StudentID).Msg("student created")
	return dto.NewStudentResponse(candidate), nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentRequest) (dto.StudentResponse, error) {
	if id != payload.StudentID {
		return dto.StudentResponse{}, ErrStudentNotFound
	}

	existing, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	candidate, err := s.validate(payload)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	candidate.StudentID = id
	if err := s.students.Replace(ctx, candidate); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The row vanished between load and save.
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		// Any other write conflict is fatal and propagates untranslated.
		if stillThere, existsErr := s.students.Exists(ctx, id); existsErr == nil && !stillThere {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, fmt.Errorf("failed to replace student %d: %w", id, err)
	}

	s.invalidateProfile(ctx, existing.Email, candidate.Email)

	updated, err := s.students.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", id).Msg("student updated")
	return dto.NewStudentResponse(updated), nil
}

// Delete removes the student and every enrollment referencing it in one unit
// of work. Deleting an absent student is a no-op, not an error.
func (s *studentService) Delete(ctx context.Context, id uint) error {
	email := ""
	if existing, err := s.students.GetByID(ctx, id); err == nil {
		email = existing.Email
	}

	deleted, err := s.students.DeleteWithEnrollments(ctx, id)
	if err != nil {
		return err
	}

	if deleted {
		s.invalidateProfile(ctx, email)
		s.logger.Info().Uint("student_id", id).Msg("student and enrollments deleted")
	} else {
		s.logger.Debug().Uint("student_id", id).Msg("delete requested for absent student")
	}

	return nil
}

func (s *studentService) CurrentStudent(ctx context.Context, caller Identity) (dto.StudentResponse, error) {
	email := strings.TrimSpace(caller.Email)
	if email == "" {
		return dto.StudentResponse{}, ErrIdentityMissing
	}

	if !caller.EmailConfirmed {
		return dto.StudentResponse{}, ErrEmailNotConfirmed
	}

	cacheKey := profileCacheKey(email)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("email", email).Msg("profile cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read profile cache")
		}
	}

	student, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	response := dto.NewStudentResponse(student)
	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store profile cache")
			}
		}
	}

	return response, nil
}

func (s *studentService) Enrollments(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrStudentNotFound
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

// validate runs structural validation and parses the date of birth, returning
// the model ready for persistence or a ValidationError echoing the candidate.
func (s *studentService) validate(payload dto.StudentRequest) (models.Student, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Student{}, &ValidationError{
			Fields:    validationFields(err),
			Candidate: payload,
		}
	}

	dateOfBirth, err := time.Parse(dto.DateLayout, strings.TrimSpace(payload.DateOfBirth))
	if err != nil {
		return models.Student{}, &ValidationError{
			Fields:    map[string]string{"date_of_birth": "must be a valid date in 2006-01-02 format"},
			Candidate: payload,
		}
	}

	return models.Student{
		StudentID:   payload.StudentID,
		FirstName:   strings.TrimSpace(payload.FirstName),
		LastName:    strings.TrimSpace(payload.LastName),
		Email:       strings.TrimSpace(payload.Email),
		DateOfBirth: dateOfBirth,
	}, nil
}

func (s *studentService) invalidateProfile(ctx context.Context, emails ...string) {
	if s.cache == nil {
		return
	}

	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		if err := s.cache.Del(ctx, profileCacheKey(email)).Err(); err != nil {
			s.logger.Warn().Err(err).Str("email", email).Msg("failed to invalidate profile cache")
		}
	}
}

func profileCacheKey(email string) string {
	return fmt.Sprintf("student:profile:%s", strings.ToLower(email))
}

func validationFields(err error) map[string]string {
	fields := map[string]string{}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields["payload"] = err.Error()
		return fields
	}

	for _, fieldError := range validationErrors {
		name := fieldName(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			fields[name] = "is required"
		case "email":
			fields[name] = "must be a well-formed email address"
		case "datetime":
			fields[name] = "must be a valid date in 2006-01-02 format"
		case "max":
			fields[name] = "is too long"
		default:
			fields[name] = fmt.Sprintf("failed %s validation", fieldError.Tag())
		}
	}

	return fields
}

func fieldName(structField string) string {
	switch structField {
	case "FirstName":
		return "first_name"
	case "LastName":
		return "last_name"
	case "Email":
		return "email"
	case "DateOfBirth":
		return "date_of_birth"
	default:
		return strings.ToLower(structField)
	}
}
