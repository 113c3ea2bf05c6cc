package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate-api/internal/dto"
	"github.com/talentgate/talentgate-api/internal/repository"
)

// ErrSettingNotFound indicates no value is stored under the key.
var ErrSettingNotFound = errors.New("setting not found")

// SettingService manages global configuration values such as the default
// scheduling link and follow-up template.
type SettingService interface {
	Get(ctx context.Context, key string) (dto.SettingResponse, error)
	Update(ctx context.Context, payload dto.SettingUpdateRequest) (dto.SettingResponse, error)
}

type settingService struct {
	settings  repository.SettingRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSettingService constructs the setting service.
func NewSettingService(settings repository.SettingRepository, validate *validator.Validate, logger zerolog.Logger) SettingService {
	return &settingService{
		settings:  settings,
		validator: validate,
		logger:    logger.With().Str("component", "setting_service").Logger(),
	}
}

func (s *settingService) Get(ctx context.Context, key string) (dto.SettingResponse, error) {
	value, err := s.settings.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SettingResponse{}, ErrSettingNotFound
		}
		return dto.SettingResponse{}, err
	}

	return dto.SettingResponse{Key: key, Value: value}, nil
}

func (s *settingService) Update(ctx context.Context, payload dto.SettingUpdateRequest) (dto.SettingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SettingResponse{}, err
	}

	if err := s.settings.Set(ctx, payload.Key, payload.Value); err != nil {
		return dto.SettingResponse{}, err
	}

	s.logger.Info().Str("key", payload.Key).Msg("setting updated")

	return dto.SettingResponse{Key: payload.Key, Value: payload.Value}, nil
}
