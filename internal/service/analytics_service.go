package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
)

const analyticsCacheKey = "analytics:dashboard"

// AnalyticsService produces the admin analytics dashboard.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (dto.AnalyticsDashboardResponse, error)
}

type analyticsService struct {
	analytics  repository.AnalyticsRepository
	candidates repository.CandidateRepository
	invites    repository.InviteRepository
	scores     repository.ScoreRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
}

// NewAnalyticsService builds the dashboard aggregator. A nil cache disables
// caching.
func NewAnalyticsService(
	analytics repository.AnalyticsRepository,
	candidates repository.CandidateRepository,
	invites repository.InviteRepository,
	scores repository.ScoreRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsService{
		analytics:  analytics,
		candidates: candidates,
		invites:    invites,
		scores:     scores,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "analytics_service").Logger(),
	}
}

func (s *analyticsService) Dashboard(ctx context.Context) (dto.AnalyticsDashboardResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, analyticsCacheKey).Result(); err == nil {
			var response dto.AnalyticsDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("analytics cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
		}
	}

	response, err := s.build(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, analyticsCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
			}
		}
	}

	return response, nil
}

func (s *analyticsService) build(ctx context.Context) (dto.AnalyticsDashboardResponse, error) {
	totalAssessments, err := s.analytics.CountAssessments(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	totalCandidates, err := s.candidates.Count(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	totalInvites, err := s.invites.Count(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	totalSubmissions, err := s.invites.CountSubmissions(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	graded, err := s.scores.CountGraded(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	aiGraded, err := s.scores.CountGradedBy(ctx, models.GradedByAI)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	rows, err := s.analytics.Funnels(ctx)
	if err != nil {
		return dto.AnalyticsDashboardResponse{}, err
	}

	funnels := make([]dto.AssessmentFunnel, 0, len(rows))
	for _, row := range rows {
		funnels = append(funnels, dto.AssessmentFunnel{
			AssessmentID:    row.AssessmentID,
			AssessmentTitle: row.AssessmentTitle,
			Invited:         row.Invited,
			Started:         row.Started,
			Submitted:       row.Submitted,
			Graded:          row.Graded,
			AverageScore:    row.AverageScore,
		})
	}

	return dto.AnalyticsDashboardResponse{
		TotalAssessments: totalAssessments,
		TotalCandidates:  totalCandidates,
		TotalInvites:     totalInvites,
		TotalSubmissions: totalSubmissions,
		GradedCount:      graded,
		AIGradedCount:    aiGraded,
		Funnels:          funnels,
	}, nil
}
