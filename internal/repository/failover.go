package repository

import (
	"context"
	"sync/atomic"
	"time"

	"spacehub/internal/domain"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverDraftRepository uses the primary store until it errors, then serves
// from the fallback and retries the primary once per recoveryInterval.
type FailoverDraftRepository struct {
	primary   domain.DraftRepository
	fallback  domain.DraftRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverDraftRepository(primary, fallback domain.DraftRepository, logger *zerolog.Logger) *FailoverDraftRepository {
	return &FailoverDraftRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDraftRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
	}
	r.lastCheck.Store(time.Now().UnixNano())
}

// usePrimary reports whether the primary should be tried now.
func (r *FailoverDraftRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverDraftRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary draft repository recovered")
	}
}

func (r *FailoverDraftRepository) GetDraft(ctx context.Context, id string) (*models.CheckoutDraft, error) {
	if r.usePrimary() {
		draft, err := r.primary.GetDraft(ctx, id)
		if err == nil {
			r.recovered()
			if draft != nil {
				return draft, nil
			}
			// черновик мог быть сохранён в fallback во время сбоя
			return r.fallback.GetDraft(ctx, id)
		}
		r.markDown(err)
	}
	return r.fallback.GetDraft(ctx, id)
}

func (r *FailoverDraftRepository) SaveDraft(ctx context.Context, draft *models.CheckoutDraft, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.SaveDraft(ctx, draft, ttl)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveDraft(ctx, draft, ttl)
}

func (r *FailoverDraftRepository) DeleteDraft(ctx context.Context, id string) error {
	if err := r.fallback.DeleteDraft(ctx, id); err != nil {
		r.logger.Warn().Err(err).Str("draft_id", id).Msg("Failed to delete fallback draft")
	}
	if r.usePrimary() {
		err := r.primary.DeleteDraft(ctx, id)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return nil
}

func (r *FailoverDraftRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
