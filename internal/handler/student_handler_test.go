package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unims-go-api/internal/dto"
	"github.com/noah-isme/unims-go-api/internal/handler"
	"github.com/noah-isme/unims-go-api/internal/service"
)

type mockStudentService struct {
	students    []dto.StudentResponse
	student     dto.StudentResponse
	enrollments []dto.EnrollmentResponse
	err         error

	lastPayload  dto.StudentRequest
	lastIdentity service.Identity
	deletedID    uint
}

func (m *mockStudentService) List(_ context.Context) ([]dto.StudentResponse, error) {
	return m.students, m.err
}

func (m *mockStudentService) Get(_ context.Context, _ uint) (dto.StudentResponse, error) {
	if m.err != nil {
		return dto.StudentResponse{}, m.err
	}
	return m.student, nil
}

func (m *mockStudentService) Create(_ context.Context, payload dto.StudentRequest) (dto.StudentResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.StudentResponse{}, m.err
	}
	return m.student, nil
}

func (m *mockStudentService) Update(_ context.Context, _ uint, payload dto.StudentRequest) (dto.StudentResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.StudentResponse{}, m.err
	}
	return m.student, nil
}

func (m *mockStudentService) Delete(_ context.Context, id uint) error {
	m.deletedID = id
	return m.err
}

func (m *mockStudentService) CurrentStudent(_ context.Context, caller service.Identity) (dto.StudentResponse, error) {
	m.lastIdentity = caller
	if m.err != nil {
		return dto.StudentResponse{}, m.err
	}
	return m.student, nil
}

func (m *mockStudentService) Enrollments(_ context.Context, _ uint) ([]dto.EnrollmentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.enrollments, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func newTestApp(svc service.StudentService, identity *service.Identity) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/students", func(c *fiber.Ctx) error {
		if identity != nil {
			c.Locals("user_email", identity.Email)
			c.Locals("email_confirmed", identity.EmailConfirmed)
		}
		return c.Next()
	})
	handler.NewStudentHandler(svc, zerolog.New(io.Discard)).Register(group, nil)
	return app
}

func TestStudentHandler_ListSuccess(t *testing.T) {
	svc := &mockStudentService{students: []dto.StudentResponse{{StudentID: 1, FirstName: "Alice"}}}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "students retrieved", payload.Message)

	var students []dto.StudentResponse
	require.NoError(t, json.Unmarshal(payload.Data, &students))
	require.Len(t, students, 1)
}

func TestStudentHandler_DetailNotFound(t *testing.T) {
	svc := &mockStudentService{err: service.ErrStudentNotFound}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodGet, "/api/v1/students/7", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_DetailInvalidIdentifier(t *testing.T) {
	svc := &mockStudentService{}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodGet, "/api/v1/students/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentHandler_CreateSuccess(t *testing.T) {
	svc := &mockStudentService{student: dto.StudentResponse{StudentID: 5, FirstName: "Alice"}}
	app := newTestApp(svc, nil)

	body := dto.StudentRequest{FirstName: "Alice", LastName: "Johnson", Email: "alice@example.com", DateOfBirth: "2000-01-15"}
	resp := performRequest(t, app, http.MethodPost, "/api/v1/students", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "student was added successfully", payload.Message)
	require.Equal(t, "alice@example.com", svc.lastPayload.Email)
}

func TestStudentHandler_CreateDuplicateEmail(t *testing.T) {
	svc := &mockStudentService{err: service.ErrDuplicateEmail}
	app := newTestApp(svc, nil)

	body := dto.StudentRequest{FirstName: "Alice", LastName: "Johnson", Email: "alice@example.com", DateOfBirth: "2000-01-15"}
	resp := performRequest(t, app, http.MethodPost, "/api/v1/students", body)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.False(t, payload.Success)
	require.Equal(t, "a student with this email already exists", payload.Message)
}

func TestStudentHandler_CreateValidationEchoesCandidate(t *testing.T) {
	candidate := dto.StudentRequest{LastName: "Johnson", Email: "not-an-email"}
	svc := &mockStudentService{err: &service.ValidationError{
		Fields:    map[string]string{"first_name": "is required"},
		Candidate: candidate,
	}}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodPost, "/api/v1/students", candidate)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.False(t, payload.Success)

	var details struct {
		Errors    map[string]string  `json:"errors"`
		Candidate dto.StudentRequest `json:"candidate"`
	}
	require.NoError(t, json.Unmarshal(payload.Details, &details))
	require.Equal(t, "is required", details.Errors["first_name"])
	require.Equal(t, candidate, details.Candidate)
}

func TestStudentHandler_UpdateIdentifierMismatch(t *testing.T) {
	svc := &mockStudentService{err: service.ErrStudentNotFound}
	app := newTestApp(svc, nil)

	body := dto.StudentRequest{StudentID: 9, FirstName: "Alice", LastName: "Johnson", Email: "alice@example.com", DateOfBirth: "2000-01-15"}
	resp := performRequest(t, app, http.MethodPut, "/api/v1/students/7", body)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStudentHandler_DeleteAlwaysReportsSuccess(t *testing.T) {
	svc := &mockStudentService{}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodDelete, "/api/v1/students/7", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "student was deleted successfully", payload.Message)
	require.Equal(t, uint(7), svc.deletedID)
}

func TestStudentHandler_CurrentStudent(t *testing.T) {
	cases := []struct {
		name        string
		identity    *service.Identity
		err         error
		statusCode  int
		success     bool
		wantMessage string
	}{
		{
			name:       "missing identity",
			identity:   nil,
			err:        service.ErrIdentityMissing,
			statusCode: fiber.StatusUnauthorized,
		},
		{
			name:        "unconfirmed email is a soft failure",
			identity:    &service.Identity{Email: "alice@example.com"},
			err:         service.ErrEmailNotConfirmed,
			statusCode:  fiber.StatusOK,
			wantMessage: "email not confirmed",
		},
		{
			name:       "no matching student row",
			identity:   &service.Identity{Email: "alice@example.com", EmailConfirmed: true},
			err:        service.ErrStudentNotFound,
			statusCode: fiber.StatusNotFound,
		},
		{
			name:        "resolved",
			identity:    &service.Identity{Email: "alice@example.com", EmailConfirmed: true},
			statusCode:  fiber.StatusOK,
			success:     true,
			wantMessage: "student retrieved",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockStudentService{student: dto.StudentResponse{StudentID: 1}, err: tc.err}
			app := newTestApp(svc, tc.identity)

			resp := performRequest(t, app, http.MethodGet, "/api/v1/students/me", nil)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			payload := decodeEnvelope(t, resp)
			require.Equal(t, tc.success, payload.Success)
			if tc.wantMessage != "" {
				require.Equal(t, tc.wantMessage, payload.Message)
			}
			if tc.identity != nil {
				require.Equal(t, tc.identity.Email, svc.lastIdentity.Email)
			}
		})
	}
}

func TestStudentHandler_EnrollmentsNotFound(t *testing.T) {
	svc := &mockStudentService{err: service.ErrStudentNotFound}
	app := newTestApp(svc, nil)

	resp := performRequest(t, app, http.MethodGet, "/api/v1/students/7/enrollments", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}
