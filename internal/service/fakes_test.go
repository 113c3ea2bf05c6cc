package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
	"github.com/talentgate/talentgate-api/internal/repository"
	"github.com/talentgate/talentgate-api/pkg/ai"
	"github.com/talentgate/talentgate-api/pkg/email"
	"github.com/talentgate/talentgate-api/pkg/github"
)

type fakeAssessmentRepo struct {
	assessments map[uint]models.Assessment
	seedRepos   map[uint]models.SeedRepo
	nextID      uint
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{
		assessments: map[uint]models.Assessment{},
		seedRepos:   map[uint]models.SeedRepo{},
		nextID:      1,
	}
}

func (f *fakeAssessmentRepo) List(_ context.Context, filter repository.AssessmentFilter) ([]models.Assessment, int64, error) {
	var out []models.Assessment
	for _, assessment := range f.assessments {
		if !filter.IncludeArchived && assessment.Archived {
			continue
		}
		out = append(out, assessment)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAssessmentRepo) GetByID(_ context.Context, id uint) (models.Assessment, error) {
	assessment, ok := f.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) Create(_ context.Context, assessment *models.Assessment) error {
	assessment.ID = f.nextID
	f.nextID++
	f.assessments[assessment.ID] = *assessment
	return nil
}

func (f *fakeAssessmentRepo) Update(_ context.Context, assessment *models.Assessment) error {
	if _, ok := f.assessments[assessment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.assessments[assessment.ID] = *assessment
	return nil
}

func (f *fakeAssessmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := f.assessments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.assessments, id)
	return nil
}

func (f *fakeAssessmentRepo) SaveSeedRepo(_ context.Context, seed *models.SeedRepo) error {
	if seed.ID == 0 {
		seed.ID = uint(len(f.seedRepos) + 1)
	}
	f.seedRepos[seed.AssessmentID] = *seed
	return nil
}

type fakeCandidateRepo struct {
	byEmail map[string]models.Candidate
	nextID  uint
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{byEmail: map[string]models.Candidate{}, nextID: 1}
}

func (f *fakeCandidateRepo) FindOrCreateByEmail(_ context.Context, emailAddr, fullName string) (models.Candidate, error) {
	if candidate, ok := f.byEmail[emailAddr]; ok {
		if fullName != "" {
			candidate.FullName = fullName
			f.byEmail[emailAddr] = candidate
		}
		return candidate, nil
	}
	candidate := models.Candidate{ID: f.nextID, Email: emailAddr, FullName: fullName}
	f.nextID++
	f.byEmail[emailAddr] = candidate
	return candidate, nil
}

func (f *fakeCandidateRepo) GetByID(_ context.Context, id uint) (models.Candidate, error) {
	for _, candidate := range f.byEmail {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return models.Candidate{}, gorm.ErrRecordNotFound
}

func (f *fakeCandidateRepo) Count(context.Context) (int64, error) {
	return int64(len(f.byEmail)), nil
}

type fakeInviteRepo struct {
	invites     map[uint]models.AssessmentInvite
	repos       map[uint]models.CandidateRepo
	tokens      []models.RepoAccessToken
	submissions map[uint]models.Submission
	assessments *fakeAssessmentRepo
	nextID      uint
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{
		invites:     map[uint]models.AssessmentInvite{},
		repos:       map[uint]models.CandidateRepo{},
		submissions: map[uint]models.Submission{},
		nextID:      1,
	}
}

func (f *fakeInviteRepo) hydrate(invite models.AssessmentInvite) models.AssessmentInvite {
	if repo, ok := f.repos[invite.ID]; ok {
		repoCopy := repo
		invite.CandidateRepo = &repoCopy
	}
	if submission, ok := f.submissions[invite.ID]; ok {
		submissionCopy := submission
		invite.Submission = &submissionCopy
	}
	if invite.Assessment.ID == 0 && f.assessments != nil {
		if assessment, ok := f.assessments.assessments[invite.AssessmentID]; ok {
			invite.Assessment = assessment
		}
	}
	return invite
}

func (f *fakeInviteRepo) List(_ context.Context, filter repository.InviteFilter) ([]models.AssessmentInvite, error) {
	var out []models.AssessmentInvite
	for _, invite := range f.invites {
		if filter.AssessmentID != nil && invite.AssessmentID != *filter.AssessmentID {
			continue
		}
		if filter.Status != nil && invite.Status != *filter.Status {
			continue
		}
		out = append(out, f.hydrate(invite))
	}
	return out, nil
}

func (f *fakeInviteRepo) GetByID(_ context.Context, id uint) (models.AssessmentInvite, error) {
	invite, ok := f.invites[id]
	if !ok {
		return models.AssessmentInvite{}, gorm.ErrRecordNotFound
	}
	return f.hydrate(invite), nil
}

func (f *fakeInviteRepo) GetBySlug(_ context.Context, slug string) (models.AssessmentInvite, error) {
	for _, invite := range f.invites {
		if invite.StartURLSlug == slug {
			return f.hydrate(invite), nil
		}
	}
	return models.AssessmentInvite{}, gorm.ErrRecordNotFound
}

func (f *fakeInviteRepo) Create(_ context.Context, invite *models.AssessmentInvite) error {
	invite.ID = f.nextID
	f.nextID++
	f.invites[invite.ID] = *invite
	return nil
}

func (f *fakeInviteRepo) Update(_ context.Context, invite *models.AssessmentInvite) error {
	if _, ok := f.invites[invite.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *invite
	stored.CandidateRepo = nil
	stored.Submission = nil
	f.invites[invite.ID] = stored
	return nil
}

func (f *fakeInviteRepo) Count(context.Context) (int64, error) {
	return int64(len(f.invites)), nil
}

func (f *fakeInviteRepo) SaveCandidateRepo(_ context.Context, repo *models.CandidateRepo) error {
	if repo.ID == 0 {
		repo.ID = uint(len(f.repos) + 1)
	}
	f.repos[repo.InviteID] = *repo
	return nil
}

func (f *fakeInviteRepo) SaveAccessToken(_ context.Context, token *models.RepoAccessToken) error {
	if token.ID == 0 {
		token.ID = uint(len(f.tokens) + 1)
	}
	f.tokens = append(f.tokens, *token)
	return nil
}

func (f *fakeInviteRepo) RevokeTokens(_ context.Context, candidateRepoID uint) error {
	now := time.Now()
	for i := range f.tokens {
		if f.tokens[i].CandidateRepoID == candidateRepoID && f.tokens[i].RevokedAt == nil {
			f.tokens[i].RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeInviteRepo) CreateSubmission(_ context.Context, submission *models.Submission) error {
	if submission.ID == 0 {
		submission.ID = uint(len(f.submissions) + 1)
	}
	f.submissions[submission.InviteID] = *submission
	return nil
}

func (f *fakeInviteRepo) CountSubmissions(context.Context) (int64, error) {
	return int64(len(f.submissions)), nil
}

type fakeScoreRepo struct {
	scores     map[uint]models.SubmissionScore
	ranked     []repository.RankedRow
	ungraded   []models.AssessmentInvite
	nextID     uint
	lastStatus string
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: map[uint]models.SubmissionScore{}, nextID: 1}
}

func (f *fakeScoreRepo) GetByInviteID(_ context.Context, inviteID uint) (models.SubmissionScore, error) {
	score, ok := f.scores[inviteID]
	if !ok {
		return models.SubmissionScore{}, gorm.ErrRecordNotFound
	}
	return score, nil
}

func (f *fakeScoreRepo) Upsert(_ context.Context, score *models.SubmissionScore) error {
	if existing, ok := f.scores[score.InviteID]; ok {
		score.ID = existing.ID
		score.ManualRank = existing.ManualRank
	} else {
		score.ID = f.nextID
		f.nextID++
	}
	f.scores[score.InviteID] = *score
	return nil
}

func (f *fakeScoreRepo) Delete(_ context.Context, id uint) error {
	for inviteID, score := range f.scores {
		if score.ID == id {
			delete(f.scores, inviteID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeScoreRepo) UpdateManualRank(_ context.Context, inviteID uint, rank *int) error {
	score, ok := f.scores[inviteID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	score.ManualRank = rank
	f.scores[inviteID] = score
	for i := range f.ranked {
		if f.ranked[i].InviteID == inviteID {
			f.ranked[i].ManualRank = rank
		}
	}
	return nil
}

func (f *fakeScoreRepo) ListGradedForAssessment(_ context.Context, _ uint, status string) ([]repository.RankedRow, error) {
	f.lastStatus = status
	if status == "" || status == models.InviteStatusAll {
		return f.ranked, nil
	}
	var out []repository.RankedRow
	for _, row := range f.ranked {
		if row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeScoreRepo) ListUngradedForAssessment(context.Context, uint) ([]models.AssessmentInvite, error) {
	return f.ungraded, nil
}

func (f *fakeScoreRepo) CountGraded(context.Context) (int64, error) {
	return int64(len(f.scores)), nil
}

func (f *fakeScoreRepo) CountGradedBy(_ context.Context, gradedBy string) (int64, error) {
	var count int64
	for _, score := range f.scores {
		if score.GradedBy == gradedBy {
			count++
		}
	}
	return count, nil
}

type fakeGradingLogRepo struct {
	logs []models.AIGradingLog
}

func (f *fakeGradingLogRepo) Create(_ context.Context, log *models.AIGradingLog) error {
	log.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeGradingLogRepo) ListByInviteID(_ context.Context, inviteID uint) ([]models.AIGradingLog, error) {
	var out []models.AIGradingLog
	for _, log := range f.logs {
		if log.InviteID == inviteID {
			out = append(out, log)
		}
	}
	return out, nil
}

type fakeRubricRepo struct {
	rubrics map[uint]models.AssessmentRubric
}

func newFakeRubricRepo() *fakeRubricRepo {
	return &fakeRubricRepo{rubrics: map[uint]models.AssessmentRubric{}}
}

func (f *fakeRubricRepo) GetByAssessmentID(_ context.Context, assessmentID uint) (models.AssessmentRubric, error) {
	rubric, ok := f.rubrics[assessmentID]
	if !ok {
		return models.AssessmentRubric{}, gorm.ErrRecordNotFound
	}
	return rubric, nil
}

func (f *fakeRubricRepo) Upsert(_ context.Context, rubric *models.AssessmentRubric) error {
	if existing, ok := f.rubrics[rubric.AssessmentID]; ok {
		rubric.ID = existing.ID
	} else {
		rubric.ID = uint(len(f.rubrics) + 1)
	}
	f.rubrics[rubric.AssessmentID] = *rubric
	return nil
}

func (f *fakeRubricRepo) Delete(_ context.Context, id uint) error {
	for assessmentID, rubric := range f.rubrics {
		if rubric.ID == id {
			delete(f.rubrics, assessmentID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeFollowUpRepo struct {
	emails []models.FollowUpEmail
}

func (f *fakeFollowUpRepo) Create(_ context.Context, followup *models.FollowUpEmail) error {
	followup.ID = uint(len(f.emails) + 1)
	f.emails = append(f.emails, *followup)
	return nil
}

func (f *fakeFollowUpRepo) ListByInviteID(_ context.Context, inviteID uint) ([]models.FollowUpEmail, error) {
	var out []models.FollowUpEmail
	for _, followup := range f.emails {
		if followup.InviteID == inviteID {
			out = append(out, followup)
		}
	}
	return out, nil
}

type fakeSettingRepo struct {
	values map[string]string
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: map[string]string{}}
}

func (f *fakeSettingRepo) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (f *fakeSettingRepo) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeSender struct {
	mu       sync.Mutex
	messages []email.Message
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, msg)
	return "msg_test", nil
}

type fakeEvents struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakeEvents) Publish(_ context.Context, subject string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
}

type fakeProvider struct {
	seedFullName string
	seedErr      error
	clone        github.CloneResult
	cloneErr     error
	branchSHA    string
	branchErr    error
	diff         ai.CodeDiff
	diffErr      error
	commits      []ai.Commit
	archived     []string
	archiveErr   error
}

func (f *fakeProvider) EnsureSeedRepo(context.Context, string) (string, error) {
	return f.seedFullName, f.seedErr
}

func (f *fakeProvider) CreateCandidateRepo(context.Context, string) (github.CloneResult, error) {
	return f.clone, f.cloneErr
}

func (f *fakeProvider) GetBranchSHA(context.Context, string, string) (string, error) {
	return f.branchSHA, f.branchErr
}

func (f *fakeProvider) CompareCommits(context.Context, string, string, string) (ai.CodeDiff, error) {
	return f.diff, f.diffErr
}

func (f *fakeProvider) GetCommitHistory(context.Context, string) ([]ai.Commit, error) {
	return f.commits, nil
}

func (f *fakeProvider) ArchiveRepo(_ context.Context, repoFullName string) error {
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, repoFullName)
	return nil
}

type fakeGrader struct {
	result ai.GradingResult
	err    error
	calls  int
}

func (f *fakeGrader) Grade(context.Context, ai.GradingInput) (ai.GradingResult, error) {
	f.calls++
	return f.result, f.err
}
