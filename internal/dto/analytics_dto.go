package dto

// AssessmentFunnel summarises invite progression for one assessment.
type AssessmentFunnel struct {
	AssessmentID    uint    `json:"assessment_id"`
	AssessmentTitle string  `json:"assessment_title"`
	Invited         int64   `json:"invited"`
	Started         int64   `json:"started"`
	Submitted       int64   `json:"submitted"`
	Graded          int64   `json:"graded"`
	AverageScore    float64 `json:"average_score"`
}

// AnalyticsDashboardResponse is the admin analytics overview.
type AnalyticsDashboardResponse struct {
	TotalAssessments int64              `json:"total_assessments"`
	TotalCandidates  int64              `json:"total_candidates"`
	TotalInvites     int64              `json:"total_invites"`
	TotalSubmissions int64              `json:"total_submissions"`
	GradedCount      int64              `json:"graded_count"`
	AIGradedCount    int64              `json:"ai_graded_count"`
	Funnels          []AssessmentFunnel `json:"funnels"`
}

// SettingUpdateRequest sets one global configuration value.
type SettingUpdateRequest struct {
	Key   string `json:"key" validate:"required,max=64"`
	Value string `json:"value" validate:"required"`
}

// SettingResponse is a serialized configuration row.
type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
