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
	"github.com/talentgate/talentgate-api/internal/scoring"
	"github.com/talentgate/talentgate-api/internal/service"
)

type mockRubricService struct {
	rubric    dto.RubricResponse
	deletedID uint
	err       error
}

func (m *mockRubricService) Get(context.Context, uint) (dto.RubricResponse, error) {
	return m.rubric, m.err
}

func (m *mockRubricService) Upsert(context.Context, dto.RubricUpsertRequest) (dto.RubricResponse, error) {
	return m.rubric, m.err
}

func (m *mockRubricService) Delete(_ context.Context, id uint) error {
	m.deletedID = id
	return m.err
}

func (m *mockRubricService) CriteriaFor(context.Context, uint) ([]scoring.Criterion, error) {
	return m.rubric.Criteria, m.err
}

type mockGradingService struct {
	score     dto.ScoreResponse
	aiResult  dto.AIGradeResponse
	estimate  dto.CostEstimateResponse
	logs      []dto.GradingLogResponse
	deletedID uint
	err       error
}

func (m *mockGradingService) ApplyGrading(context.Context, dto.ScoreUpsertRequest) (dto.ScoreResponse, error) {
	return m.score, m.err
}

func (m *mockGradingService) GetScore(context.Context, uint) (dto.ScoreResponse, error) {
	return m.score, m.err
}

func (m *mockGradingService) DeleteScore(_ context.Context, id uint) error {
	m.deletedID = id
	return m.err
}

func (m *mockGradingService) AIGrade(context.Context, uint) (dto.AIGradeResponse, error) {
	return m.aiResult, m.err
}

func (m *mockGradingService) AutoGrade(uint) {}

func (m *mockGradingService) EstimateCost(context.Context, uint) (dto.CostEstimateResponse, error) {
	return m.estimate, m.err
}

func (m *mockGradingService) Logs(context.Context, uint) ([]dto.GradingLogResponse, error) {
	return m.logs, m.err
}

func newGradingApp(rubrics service.RubricService, grading service.GradingService) *fiber.App {
	app := fiber.New()
	handler.NewGradingHandler(rubrics, grading, zerolog.New(io.Discard)).Register(app.Group("/api/v1/admin/grading"))
	return app
}

func TestGradingHandler_UpsertRubricBadWeights(t *testing.T) {
	rubrics := &mockRubricService{err: scoring.ErrWeightSum}
	app := newGradingApp(rubrics, &mockGradingService{})

	body, err := json.Marshal(dto.RubricUpsertRequest{
		AssessmentID: 1,
		Criteria: []scoring.Criterion{
			{Name: "tests", Weight: 0.5, Type: scoring.CriterionTypeAutomated, Scoring: scoring.ScoringScale, MaxScore: 100},
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/grading/rubrics", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGradingHandler_DeleteRubric(t *testing.T) {
	rubrics := &mockRubricService{}
	app := newGradingApp(rubrics, &mockGradingService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/grading/rubrics/5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), rubrics.deletedID)
}

func TestGradingHandler_DeleteRubricMissing(t *testing.T) {
	rubrics := &mockRubricService{err: service.ErrRubricNotFound}
	app := newGradingApp(rubrics, &mockGradingService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/grading/rubrics/5", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGradingHandler_ApplyScore(t *testing.T) {
	grading := &mockGradingService{score: dto.ScoreResponse{ID: 9, InviteID: 4, GradedBy: "reviewer@example.com"}}
	app := newGradingApp(&mockRubricService{}, grading)

	body, err := json.Marshal(dto.ScoreUpsertRequest{
		InviteID:       4,
		CriteriaScores: map[string]scoring.CriterionScore{"code_quality": {Score: 8, MaxScore: 10}},
		GradedBy:       "reviewer@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/grading/scores", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool              `json:"success"`
		Data    dto.ScoreResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(9), response.Data.ID)
}

func TestGradingHandler_DeleteScoreMissing(t *testing.T) {
	grading := &mockGradingService{err: service.ErrNotGraded}
	app := newGradingApp(&mockRubricService{}, grading)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/grading/scores/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGradingHandler_AIGradeStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "ok", err: nil, statusCode: fiber.StatusOK},
		{name: "not submitted", err: service.ErrNotSubmitted, statusCode: fiber.StatusConflict},
		{name: "disabled", err: service.ErrAIGradingDisabled, statusCode: fiber.StatusServiceUnavailable},
		{name: "unknown invite", err: service.ErrInviteNotFound, statusCode: fiber.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grading := &mockGradingService{err: tc.err}
			app := newGradingApp(&mockRubricService{}, grading)

			body, err := json.Marshal(dto.AIGradeRequest{InviteID: 4})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/grading/ai", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}
