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

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/handler"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/service"
)

type mockInviteService struct {
	lastSlug   string
	lastSubmit dto.SubmitRequest
	invite     dto.InviteResponse
	start      dto.StartResponse
	submission dto.SubmissionResponse
	commits    []dto.CommitResponse
	err        error
}

func (m *mockInviteService) Create(_ context.Context, assessmentID uint, _ dto.InviteCreateRequest) (dto.InviteResponse, error) {
	if m.err != nil {
		return dto.InviteResponse{}, m.err
	}
	invite := m.invite
	invite.AssessmentID = assessmentID
	return invite, nil
}

func (m *mockInviteService) List(context.Context, repository.InviteFilter) ([]dto.InviteResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.InviteResponse{m.invite}, nil
}

func (m *mockInviteService) Get(context.Context, uint) (dto.InviteResponse, error) {
	return m.invite, m.err
}

func (m *mockInviteService) Preview(_ context.Context, slug string) (dto.InviteResponse, error) {
	m.lastSlug = slug
	return m.invite, m.err
}

func (m *mockInviteService) Start(_ context.Context, slug string) (dto.StartResponse, error) {
	m.lastSlug = slug
	return m.start, m.err
}

func (m *mockInviteService) Submit(_ context.Context, slug string, payload dto.SubmitRequest) (dto.SubmissionResponse, error) {
	m.lastSlug = slug
	m.lastSubmit = payload
	return m.submission, m.err
}

func (m *mockInviteService) Commits(_ context.Context, slug string) ([]dto.CommitResponse, error) {
	m.lastSlug = slug
	return m.commits, m.err
}

func newCandidateApp(svc service.InviteService) *fiber.App {
	app := fiber.New()
	handler.NewCandidateHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/candidate"))
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func TestCandidateHandler_Preview(t *testing.T) {
	svc := &mockInviteService{invite: dto.InviteResponse{ID: 7, Status: "pending", StartURLSlug: "slug-abc"}}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidate/slug-abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "slug-abc", svc.lastSlug)

	var response struct {
		Success bool               `json:"success"`
		Data    dto.InviteResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(7), response.Data.ID)
}

func TestCandidateHandler_StartExpired(t *testing.T) {
	svc := &mockInviteService{err: service.ErrInviteExpired}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/candidate/slug-abc/start", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusGone, resp.StatusCode)
}

func TestCandidateHandler_SubmitEmptyBody(t *testing.T) {
	svc := &mockInviteService{submission: dto.SubmissionResponse{ID: 1, FinalSHA: "head456"}}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/candidate/slug-abc/submit", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, svc.lastSubmit.DemoLink)
}

func TestCandidateHandler_SubmitWithDemoLink(t *testing.T) {
	svc := &mockInviteService{submission: dto.SubmissionResponse{ID: 1, FinalSHA: "head456"}}
	app := newCandidateApp(svc)

	body, err := json.Marshal(dto.SubmitRequest{DemoLink: "https://demo.example.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/candidate/slug-abc/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "https://demo.example.com", svc.lastSubmit.DemoLink)
}

func TestCandidateHandler_CommitsBeforeStart(t *testing.T) {
	svc := &mockInviteService{err: service.ErrInviteClosed}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidate/slug-abc/commits", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCandidateHandler_UnknownSlug(t *testing.T) {
	svc := &mockInviteService{err: service.ErrInviteNotFound}
	app := newCandidateApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidate/nope", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
