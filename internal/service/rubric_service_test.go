package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

func newRubricFixture(t *testing.T) (RubricService, *fakeAssessmentRepo, *fakeRubricRepo) {
	t.Helper()

	assessments := newFakeAssessmentRepo()
	assessments.assessments[1] = models.Assessment{ID: 1, Title: "Backend Challenge"}

	rubrics := newFakeRubricRepo()
	svc := NewRubricService(rubrics, assessments, validator.New(), zerolog.Nop())

	return svc, assessments, rubrics
}

func TestRubricUpsertAndGet(t *testing.T) {
	svc, _, _ := newRubricFixture(t)

	resp, err := svc.Upsert(context.Background(), dto.RubricUpsertRequest{
		AssessmentID: 1,
		Criteria: []scoring.Criterion{
			{Name: "tests", Weight: 0.6, Type: scoring.CriterionTypeAutomated, Scoring: scoring.ScoringScale, MaxScore: 100},
			{Name: "code_quality", Weight: 0.4, Type: scoring.CriterionTypeManual, Scoring: scoring.ScoringScale, MaxScore: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Criteria, 2)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "tests", got.Criteria[0].Name)
	require.InDelta(t, 0.6, got.Criteria[0].Weight, 1e-9)
}

func TestRubricUpsertRejectsBadWeights(t *testing.T) {
	svc, _, _ := newRubricFixture(t)

	_, err := svc.Upsert(context.Background(), dto.RubricUpsertRequest{
		AssessmentID: 1,
		Criteria: []scoring.Criterion{
			{Name: "tests", Weight: 0.6, Type: scoring.CriterionTypeAutomated, Scoring: scoring.ScoringScale, MaxScore: 100},
			{Name: "code_quality", Weight: 0.3, Type: scoring.CriterionTypeManual, Scoring: scoring.ScoringScale, MaxScore: 10},
		},
	})
	require.ErrorIs(t, err, scoring.ErrWeightSum)
}

func TestRubricUpsertUnknownAssessment(t *testing.T) {
	svc, _, _ := newRubricFixture(t)

	_, err := svc.Upsert(context.Background(), dto.RubricUpsertRequest{
		AssessmentID: 99,
		Criteria:     DefaultCriteria,
	})
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestRubricGetMissing(t *testing.T) {
	svc, _, _ := newRubricFixture(t)

	_, err := svc.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrRubricNotFound)
}

func TestRubricDelete(t *testing.T) {
	svc, _, rubrics := newRubricFixture(t)

	created, err := svc.Upsert(context.Background(), dto.RubricUpsertRequest{
		AssessmentID: 1,
		Criteria:     DefaultCriteria,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	require.Empty(t, rubrics.rubrics)

	err = svc.Delete(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrRubricNotFound)
}

func TestCriteriaForFallsBackToDefault(t *testing.T) {
	svc, _, _ := newRubricFixture(t)

	criteria, err := svc.CriteriaFor(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, DefaultCriteria, criteria)

	_, err = svc.Upsert(context.Background(), dto.RubricUpsertRequest{
		AssessmentID: 1,
		Criteria: []scoring.Criterion{
			{Name: "tests", Weight: 1, Type: scoring.CriterionTypeAutomated, Scoring: scoring.ScoringScale, MaxScore: 100},
		},
	})
	require.NoError(t, err)

	criteria, err = svc.CriteriaFor(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, criteria, 1)
	require.Equal(t, "tests", criteria[0].Name)
}
