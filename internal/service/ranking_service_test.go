package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/internal/scoring"
)

type rankingFixture struct {
	svc         RankingService
	scores      *fakeScoreRepo
	assessments *fakeAssessmentRepo
	followups   *fakeFollowUpRepo
	settings    *fakeSettingRepo
	sender      *fakeSender
	events      *fakeEvents
	inviter     *recordingInviter
}

type recordingInviter struct {
	assessmentIDs []uint
	emails        []string
}

func (r *recordingInviter) Create(_ context.Context, assessmentID uint, payload dto.InviteCreateRequest) (dto.InviteResponse, error) {
	r.assessmentIDs = append(r.assessmentIDs, assessmentID)
	r.emails = append(r.emails, payload.CandidateEmail)
	return dto.InviteResponse{}, nil
}

func newRankingFixture(t *testing.T) *rankingFixture {
	t.Helper()

	f := &rankingFixture{
		scores:      newFakeScoreRepo(),
		assessments: newFakeAssessmentRepo(),
		followups:   &fakeFollowUpRepo{},
		settings:    newFakeSettingRepo(),
		sender:      &fakeSender{},
		events:      &fakeEvents{},
		inviter:     &recordingInviter{},
	}
	f.svc = NewRankingService(
		f.scores, f.assessments, newFakeInviteRepo(), f.followups, f.settings,
		f.sender, f.events, f.inviter, validator.New(), zerolog.Nop(),
	)

	return f
}

func (f *rankingFixture) seedAssessment(t *testing.T, assessment models.Assessment) uint {
	t.Helper()
	require.NoError(t, f.assessments.Create(context.Background(), &assessment))
	return assessment.ID
}

func rankedRow(inviteID uint, email string, total float64, manualRank *int, submittedAt time.Time) repository.RankedRow {
	graded := submittedAt.Add(time.Hour)
	return repository.RankedRow{
		InviteID:       inviteID,
		CandidateID:    inviteID,
		CandidateEmail: email,
		TotalScore:     scoring.DecimalFromFloat(total),
		ManualRank:     manualRank,
		Status:         models.InviteStatusSubmitted,
		GradedAt:       &graded,
		SubmittedAt:    &submittedAt,
	}
}

func TestRankingsManualRankPrecedesScore(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})

	pin := 1
	now := time.Now()
	f.scores.ranked = []repository.RankedRow{
		rankedRow(1, "high@example.com", 95, nil, now),
		rankedRow(2, "pinned@example.com", 40, &pin, now.Add(-time.Hour)),
		rankedRow(3, "mid@example.com", 70, nil, now.Add(-2*time.Hour)),
	}

	rankings, err := f.svc.Rankings(context.Background(), id, "")
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	require.Equal(t, "pinned@example.com", rankings[0].CandidateEmail, "manual rank wins regardless of score")
	require.Equal(t, 1, rankings[0].Rank)
	require.Equal(t, "high@example.com", rankings[1].CandidateEmail)
	require.Equal(t, "mid@example.com", rankings[2].CandidateEmail)
}

func TestRankingsUnknownAssessment(t *testing.T) {
	f := newRankingFixture(t)

	_, err := f.svc.Rankings(context.Background(), 42, "")
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestRankingsStatusFilterNarrowsPool(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})

	now := time.Now()
	started := rankedRow(2, "started@example.com", 95, nil, now)
	started.Status = models.InviteStatusStarted
	f.scores.ranked = []repository.RankedRow{
		rankedRow(1, "done@example.com", 80, nil, now),
		started,
	}

	rankings, err := f.svc.Rankings(context.Background(), id, models.InviteStatusSubmitted)
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	require.Equal(t, "done@example.com", rankings[0].CandidateEmail)

	rankings, err = f.svc.Rankings(context.Background(), id, models.InviteStatusAll)
	require.NoError(t, err)
	require.Len(t, rankings, 2, `"all" disables the filter`)
}

func TestReorderRejectsUngradedInvite(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})

	pin := 1
	_, err := f.svc.Reorder(context.Background(), id, dto.ReorderRequest{
		Ranks: []dto.ManualRankUpdate{{InviteID: 7, ManualRank: &pin}},
	})
	require.ErrorIs(t, err, ErrNotGraded)
}

func TestReorderAppliesAndReturnsNewOrder(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})

	now := time.Now()
	require.NoError(t, f.scores.Upsert(context.Background(), &models.SubmissionScore{InviteID: 1, TotalScore: scoring.DecimalFromFloat(90), GradedAt: now}))
	require.NoError(t, f.scores.Upsert(context.Background(), &models.SubmissionScore{InviteID: 2, TotalScore: scoring.DecimalFromFloat(50), GradedAt: now}))
	f.scores.ranked = []repository.RankedRow{
		rankedRow(1, "first@example.com", 90, nil, now),
		rankedRow(2, "second@example.com", 50, nil, now),
	}

	pin := 1
	rankings, err := f.svc.Reorder(context.Background(), id, dto.ReorderRequest{
		Ranks: []dto.ManualRankUpdate{{InviteID: 2, ManualRank: &pin}},
	})
	require.NoError(t, err)
	require.Equal(t, "second@example.com", rankings[0].CandidateEmail)

	stored, err := f.scores.GetByInviteID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, stored.ManualRank)
	require.Equal(t, 1, *stored.ManualRank)
}

func TestSendSchedulingPrefersAssessmentLink(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge", CalendlyLink: "https://calendly.com/acme/specific"})
	f.settings.values[models.SettingCalendlyLink] = "https://calendly.com/acme/global"

	f.scores.ranked = []repository.RankedRow{rankedRow(1, "top@example.com", 90, nil, time.Now())}

	result, err := f.svc.SendScheduling(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Len(t, f.sender.messages, 1)
	require.Contains(t, f.sender.messages[0].HTML, "https://calendly.com/acme/specific")
}

func TestSendSchedulingFallsBackToGlobalSetting(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})
	f.settings.values[models.SettingCalendlyLink] = "https://calendly.com/acme/global"

	f.scores.ranked = []repository.RankedRow{rankedRow(1, "top@example.com", 90, nil, time.Now())}

	_, err := f.svc.SendScheduling(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Contains(t, f.sender.messages[0].HTML, "https://calendly.com/acme/global")
}

func TestSendSchedulingWithoutAnyLink(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})

	_, err := f.svc.SendScheduling(context.Background(), id, dto.SendTopNRequest{TopN: 3})
	require.ErrorIs(t, err, ErrNoCalendlyLink)
	require.Empty(t, f.sender.messages)
}

func TestSendSchedulingTopNLargerThanPool(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge", CalendlyLink: "https://calendly.com/acme/intro"})

	f.scores.ranked = []repository.RankedRow{
		rankedRow(1, "one@example.com", 90, nil, time.Now()),
		rankedRow(2, "two@example.com", 80, nil, time.Now()),
	}

	result, err := f.svc.SendScheduling(context.Background(), id, dto.SendTopNRequest{TopN: 10})
	require.NoError(t, err)
	require.Equal(t, 10, result.Requested)
	require.Equal(t, 2, result.Sent, "only the graded pool can be contacted")
}

func TestSendSchedulingDefaultsToSubmittedPool(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge", CalendlyLink: "https://calendly.com/acme/intro"})

	started := rankedRow(2, "started@example.com", 95, nil, time.Now())
	started.Status = models.InviteStatusStarted
	f.scores.ranked = []repository.RankedRow{
		rankedRow(1, "done@example.com", 80, nil, time.Now()),
		started,
	}

	result, err := f.svc.SendScheduling(context.Background(), id, dto.SendTopNRequest{TopN: 5})
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusSubmitted, f.scores.lastStatus, "outreach defaults to submitted work")
	require.Equal(t, 1, result.Sent)
	require.Equal(t, "done@example.com", f.sender.messages[0].To)
}

func TestSendFollowUpUsesAssessmentTemplateAndPromotes(t *testing.T) {
	f := newRankingFixture(t)
	nextID := f.seedAssessment(t, models.Assessment{Title: "Final Round"})
	id := f.seedAssessment(t, models.Assessment{
		Title:                 "Backend Challenge",
		FollowupSubject:       "Well done, {candidate_name}",
		FollowupBody:          "<p>Great work on {assessment_title}, score {total_score}.</p>",
		NextStageAssessmentID: &nextID,
	})

	f.scores.ranked = []repository.RankedRow{rankedRow(1, "top@example.com", 88.5, nil, time.Now())}

	result, err := f.svc.SendFollowUp(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)

	require.Len(t, f.sender.messages, 1)
	require.Equal(t, "Well done, top@example.com", f.sender.messages[0].Subject)
	require.Contains(t, f.sender.messages[0].HTML, "Backend Challenge")
	require.Contains(t, f.sender.messages[0].HTML, "88.50")

	require.Len(t, f.followups.emails, 1)
	require.Equal(t, uint(1), f.followups.emails[0].InviteID)

	require.Equal(t, []uint{nextID}, f.inviter.assessmentIDs)
	require.Equal(t, []string{"top@example.com"}, f.inviter.emails)

	require.Contains(t, f.events.subjects, SubjectFollowUpSent)
}

func TestSendFollowUpFallsBackToStoredTemplateThenDefault(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{Title: "Backend Challenge"})
	f.settings.values[models.SettingFollowupTemplate] = `{"subject":"Stored subject","body":"<p>Stored body for {candidate_name}</p>"}`

	f.scores.ranked = []repository.RankedRow{rankedRow(1, "top@example.com", 75, nil, time.Now())}

	_, err := f.svc.SendFollowUp(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Equal(t, "Stored subject", f.sender.messages[0].Subject)

	// Broken stored template falls through to the built-in fallback.
	f.settings.values[models.SettingFollowupTemplate] = `not-json`
	_, err = f.svc.SendFollowUp(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Equal(t, "Next steps for Backend Challenge", f.sender.messages[1].Subject)
}

func TestSendFollowUpSanitizesTemplateHTML(t *testing.T) {
	f := newRankingFixture(t)
	id := f.seedAssessment(t, models.Assessment{
		Title:           "Backend Challenge",
		FollowupSubject: "Next steps",
		FollowupBody:    `<p>Hello</p><script>alert("x")</script>`,
	})

	f.scores.ranked = []repository.RankedRow{rankedRow(1, "top@example.com", 75, nil, time.Now())}

	_, err := f.svc.SendFollowUp(context.Background(), id, dto.SendTopNRequest{TopN: 1})
	require.NoError(t, err)
	require.Contains(t, f.sender.messages[0].HTML, "<p>Hello</p>")
	require.NotContains(t, f.sender.messages[0].HTML, "<script>")
}
