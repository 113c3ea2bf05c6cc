package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/scoring"
	"github.com/talentgate/talentgate-api/pkg/email"
)

var (
	// ErrNoCalendlyLink indicates neither the assessment nor the global
	// settings carry a scheduling link.
	ErrNoCalendlyLink = errors.New("no scheduling link configured")
	// ErrEmailDisabled indicates no mail sender is configured.
	ErrEmailDisabled = errors.New("email delivery is not configured")
)

// Fallback follow-up template used when neither the assessment nor the
// global settings define one.
const (
	fallbackFollowupSubject = "Next steps for {assessment_title}"
	fallbackFollowupBody    = "<p>Hi {candidate_name},</p><p>Thank you for completing <strong>{assessment_title}</strong>. We were impressed with your work and would like to move forward.</p>"
)

// InviteCreator issues invites; the ranking service uses it to push top
// candidates into the next assessment stage.
type InviteCreator interface {
	Create(ctx context.Context, assessmentID uint, payload dto.InviteCreateRequest) (dto.InviteResponse, error)
}

// RankingService orders graded candidates and drives top-N outreach.
type RankingService interface {
	Rankings(ctx context.Context, assessmentID uint, status string) ([]dto.RankingEntryResponse, error)
	Ungraded(ctx context.Context, assessmentID uint) ([]dto.InviteResponse, error)
	Reorder(ctx context.Context, assessmentID uint, payload dto.ReorderRequest) ([]dto.RankingEntryResponse, error)
	SendScheduling(ctx context.Context, assessmentID uint, payload dto.SendTopNRequest) (dto.SendResultResponse, error)
	SendFollowUp(ctx context.Context, assessmentID uint, payload dto.SendTopNRequest) (dto.SendResultResponse, error)
}

type rankingService struct {
	scores      repository.ScoreRepository
	assessments repository.AssessmentRepository
	invites     repository.InviteRepository
	followups   repository.FollowUpRepository
	settings    repository.SettingRepository
	sender      email.Sender
	events      EventPublisher
	inviter     InviteCreator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewRankingService constructs the ranking service. The sender and inviter
// may be nil; outreach operations then fail fast or skip stage promotion.
func NewRankingService(
	scores repository.ScoreRepository,
	assessments repository.AssessmentRepository,
	invites repository.InviteRepository,
	followups repository.FollowUpRepository,
	settings repository.SettingRepository,
	sender email.Sender,
	events EventPublisher,
	inviter InviteCreator,
	validate *validator.Validate,
	logger zerolog.Logger,
) RankingService {
	return &rankingService{
		scores:      scores,
		assessments: assessments,
		invites:     invites,
		followups:   followups,
		settings:    settings,
		sender:      sender,
		events:      events,
		inviter:     inviter,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "ranking_service").Logger(),
		now:         time.Now,
	}
}

// Rankings returns the leaderboard, optionally narrowed to one invite
// status. An empty status (or "all") ranks the whole graded pool.
func (s *rankingService) Rankings(ctx context.Context, assessmentID uint, status string) ([]dto.RankingEntryResponse, error) {
	entries, err := s.rankedEntries(ctx, assessmentID, status)
	if err != nil {
		return nil, err
	}

	return dto.NewRankingEntryResponseSlice(entries), nil
}

func (s *rankingService) Ungraded(ctx context.Context, assessmentID uint) ([]dto.InviteResponse, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	invites, err := s.scores.ListUngradedForAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	return dto.NewInviteResponseSlice(invites), nil
}

// Reorder pins (or clears) manual ranks and returns the resulting order.
func (s *rankingService) Reorder(ctx context.Context, assessmentID uint, payload dto.ReorderRequest) ([]dto.RankingEntryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}

	for _, update := range payload.Ranks {
		if err := s.scores.UpdateManualRank(ctx, update.InviteID, update.ManualRank); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: invite %d", ErrNotGraded, update.InviteID)
			}
			return nil, err
		}
	}

	s.logger.Info().
		Uint("assessment_id", assessmentID).
		Int("updates", len(payload.Ranks)).
		Msg("manual ranks updated")

	return s.Rankings(ctx, assessmentID, "")
}

// SendScheduling emails the top N candidates a scheduling link. The
// assessment's own link wins over the global setting.
func (s *rankingService) SendScheduling(ctx context.Context, assessmentID uint, payload dto.SendTopNRequest) (dto.SendResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SendResultResponse{}, err
	}
	if s.sender == nil {
		return dto.SendResultResponse{}, ErrEmailDisabled
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SendResultResponse{}, ErrAssessmentNotFound
		}
		return dto.SendResultResponse{}, err
	}

	link := assessment.CalendlyLink
	if link == "" {
		stored, err := s.settings.Get(ctx, models.SettingCalendlyLink)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.SendResultResponse{}, ErrNoCalendlyLink
			}
			return dto.SendResultResponse{}, err
		}
		link = stored
	}
	if strings.TrimSpace(link) == "" {
		return dto.SendResultResponse{}, ErrNoCalendlyLink
	}

	entries, err := s.rankedEntries(ctx, assessmentID, outreachStatus(payload))
	if err != nil {
		return dto.SendResultResponse{}, err
	}
	top := scoring.TopN(entries, payload.TopN)

	result := dto.SendResultResponse{Requested: payload.TopN}
	for _, entry := range top {
		subject := fmt.Sprintf("Schedule your interview: %s", assessment.Title)
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Congratulations on your <strong>%s</strong> submission. Please pick a time that suits you:</p><p><a href=%q>%s</a></p>",
			entryName(entry), assessment.Title, link, link,
		)

		if _, err := s.sender.Send(ctx, email.Message{To: entry.CandidateEmail, Subject: subject, HTML: body}); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", entry.InviteID).Msg("scheduling email failed")
			result.Errors = append(result.Errors, fmt.Sprintf("invite %d: %v", entry.InviteID, err))
			result.Skipped++
			continue
		}
		result.Sent++
	}

	return result, nil
}

// SendFollowUp emails the top N candidates the follow-up template and, when
// the assessment points at a next stage, invites them to it. Template
// resolution: assessment fields, then the global setting, then the built-in
// fallback.
func (s *rankingService) SendFollowUp(ctx context.Context, assessmentID uint, payload dto.SendTopNRequest) (dto.SendResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SendResultResponse{}, err
	}
	if s.sender == nil {
		return dto.SendResultResponse{}, ErrEmailDisabled
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SendResultResponse{}, ErrAssessmentNotFound
		}
		return dto.SendResultResponse{}, err
	}

	subjectTemplate, bodyTemplate := s.resolveFollowupTemplate(ctx, assessment)

	entries, err := s.rankedEntries(ctx, assessmentID, outreachStatus(payload))
	if err != nil {
		return dto.SendResultResponse{}, err
	}
	top := scoring.TopN(entries, payload.TopN)

	result := dto.SendResultResponse{Requested: payload.TopN}
	for _, entry := range top {
		subject := renderTemplate(subjectTemplate, entry, assessment)
		body := s.sanitizer.Sanitize(renderTemplate(bodyTemplate, entry, assessment))

		if _, err := s.sender.Send(ctx, email.Message{To: entry.CandidateEmail, Subject: subject, HTML: body}); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", entry.InviteID).Msg("follow-up email failed")
			result.Errors = append(result.Errors, fmt.Sprintf("invite %d: %v", entry.InviteID, err))
			result.Skipped++
			continue
		}

		record := models.FollowUpEmail{
			InviteID:        entry.InviteID,
			SentAt:          s.now(),
			TemplateSubject: subject,
			TemplateBody:    body,
		}
		if err := s.followups.Create(ctx, &record); err != nil {
			s.logger.Warn().Err(err).Uint("invite_id", entry.InviteID).Msg("failed to record follow-up email")
		}

		s.events.Publish(ctx, SubjectFollowUpSent, map[string]interface{}{
			"invite_id":     entry.InviteID,
			"assessment_id": assessmentID,
		})

		if assessment.NextStageAssessmentID != nil && s.inviter != nil {
			if _, err := s.inviter.Create(ctx, *assessment.NextStageAssessmentID, dto.InviteCreateRequest{
				CandidateEmail: entry.CandidateEmail,
				CandidateName:  entry.CandidateName,
			}); err != nil {
				s.logger.Warn().Err(err).Uint("invite_id", entry.InviteID).Msg("next stage invite failed")
				result.Errors = append(result.Errors, fmt.Sprintf("invite %d next stage: %v", entry.InviteID, err))
			}
		}

		result.Sent++
	}

	return result, nil
}

// outreachStatus resolves the pool filter for scheduling and follow-up
// sends. Unlike the leaderboard, outreach defaults to submitted work only.
func outreachStatus(payload dto.SendTopNRequest) string {
	if payload.Status == "" {
		return models.InviteStatusSubmitted
	}
	return payload.Status
}

func (s *rankingService) rankedEntries(ctx context.Context, assessmentID uint, status string) ([]scoring.RankingEntry, error) {
	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	rows, err := s.scores.ListGradedForAssessment(ctx, assessmentID, status)
	if err != nil {
		return nil, err
	}

	entries := make([]scoring.RankingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, scoring.RankingEntry{
			InviteID:       row.InviteID,
			CandidateID:    row.CandidateID,
			CandidateEmail: row.CandidateEmail,
			CandidateName:  row.CandidateName,
			TotalScore:     row.TotalScore,
			ManualRank:     row.ManualRank,
			Status:         row.Status,
			GradedAt:       row.GradedAt,
			SubmittedAt:    row.SubmittedAt,
		})
	}

	return scoring.Rank(entries), nil
}

// followupTemplate is the stored shape of the global follow-up setting.
type followupTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *rankingService) resolveFollowupTemplate(ctx context.Context, assessment models.Assessment) (string, string) {
	if assessment.FollowupSubject != "" && assessment.FollowupBody != "" {
		return assessment.FollowupSubject, assessment.FollowupBody
	}

	if stored, err := s.settings.Get(ctx, models.SettingFollowupTemplate); err == nil {
		var template followupTemplate
		if err := json.Unmarshal([]byte(stored), &template); err == nil && template.Subject != "" && template.Body != "" {
			return template.Subject, template.Body
		}
		s.logger.Warn().Msg("stored follow-up template is invalid, using fallback")
	}

	return fallbackFollowupSubject, fallbackFollowupBody
}

func renderTemplate(template string, entry scoring.RankingEntry, assessment models.Assessment) string {
	replacer := strings.NewReplacer(
		"{candidate_name}", entryName(entry),
		"{candidate_email}", entry.CandidateEmail,
		"{assessment_title}", assessment.Title,
		"{calendly_link}", assessment.CalendlyLink,
		"{total_score}", entry.TotalScore.String(),
	)

	return replacer.Replace(template)
}

func entryName(entry scoring.RankingEntry) string {
	if entry.CandidateName != "" {
		return entry.CandidateName
	}
	return entry.CandidateEmail
}
