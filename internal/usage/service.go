package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/odiadev/tts-gateway/internal/models"
)

type Service interface {
	Append(ctx context.Context, rec *models.UsageRecord) error
	CountForKeySince(ctx context.Context, keyID uuid.UUID, since time.Time) (int, error)
	Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error)
	TopVoices(ctx context.Context, limit int) ([]VoiceCount, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) Append(ctx context.Context, rec *models.UsageRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return s.repo.Append(ctx, rec)
}

func (s *service) CountForKeySince(ctx context.Context, keyID uuid.UUID, since time.Time) (int, error) {
	return s.repo.CountForKeySince(ctx, keyID, since)
}

func (s *service) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	return s.repo.Summarize(ctx, userID)
}

func (s *service) TopVoices(ctx context.Context, limit int) ([]VoiceCount, error) {
	return s.repo.TopVoices(ctx, limit)
}
