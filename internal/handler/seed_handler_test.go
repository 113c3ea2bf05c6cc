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

	"github.com/talentgate/talentgate-api/internal/handler"
	"github.com/talentgate/talentgate-api/internal/service"
)

type mockSeedService struct {
	lastToken    string
	lastSettings map[string]string
	affected     int
	err          error
}

func (m *mockSeedService) SeedDefaultRubrics(_ context.Context, token string) (int, error) {
	m.lastToken = token
	return m.affected, m.err
}

func (m *mockSeedService) SeedSettings(_ context.Context, token string, settings map[string]string) (int, error) {
	m.lastToken = token
	m.lastSettings = settings
	return m.affected, m.err
}

func newSeedApp(svc service.SeedService) *fiber.App {
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))
	return app
}

func TestSeedHandler_Rubrics(t *testing.T) {
	svc := &mockSeedService{affected: 3}
	app := newSeedApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/rubrics", nil)
	req.Header.Set("X-Seed-Token", "sekret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "sekret", svc.lastToken)

	var response struct {
		Data struct {
			Affected int `json:"affected"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 3, response.Data.Affected)
}

func TestSeedHandler_SettingsForwardsPayload(t *testing.T) {
	svc := &mockSeedService{affected: 1}
	app := newSeedApp(svc)

	body, err := json.Marshal(map[string]interface{}{"settings": map[string]string{"grading.model": "gpt-4o"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Seed-Token", "sekret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "gpt-4o", svc.lastSettings["grading.model"])
}

func TestSeedHandler_Forbidden(t *testing.T) {
	for _, serr := range []error{service.ErrSeedDisabled, service.ErrSeedUnauthorized} {
		svc := &mockSeedService{err: serr}
		app := newSeedApp(svc)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/seed/rubrics", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}
