package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/models"
)

// Migrate applies the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Assessment{},
		&models.SeedRepo{},
		&models.Candidate{},
		&models.AssessmentInvite{},
		&models.CandidateRepo{},
		&models.RepoAccessToken{},
		&models.Submission{},
		&models.AssessmentRubric{},
		&models.SubmissionScore{},
		&models.AIGradingLog{},
		&models.TestExecution{},
		&models.FollowUpEmail{},
		&models.Setting{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	return nil
}
