package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"spacehub/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetDraft(ctx context.Context, id string) (*models.CheckoutDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutDraft), args.Error(1)
}

func (m *mockRepo) SaveDraft(ctx context.Context, draft *models.CheckoutDraft, ttl time.Duration) error {
	args := m.Called(ctx, draft, ttl)
	return args.Error(0)
}

func (m *mockRepo) DeleteDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverDraftRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemoryDraftRepository()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverDraftRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		draft := &models.CheckoutDraft{ID: "p-1"}
		primary.On("GetDraft", ctx, "p-1").Return(draft, nil).Once()

		got, err := repo.GetDraft(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, draft, got)
	})

	t.Run("PrimaryFailureFallsBack", func(t *testing.T) {
		draft := &models.CheckoutDraft{ID: "f-1"}
		primary.On("SaveDraft", ctx, draft, time.Minute).Return(errors.New("redis down")).Once()

		require.NoError(t, repo.SaveDraft(ctx, draft, time.Minute))
		assert.True(t, repo.isDown.Load())

		// primary is skipped while down
		got, err := repo.GetDraft(ctx, "f-1")
		require.NoError(t, err)
		assert.Equal(t, draft, got)

		allowed, err := repo.CheckRateLimit(ctx, "promo:1", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Recovery", func(t *testing.T) {
		repo.lastCheck.Store(time.Now().Add(-2 * time.Minute).UnixNano())
		primary.On("CheckRateLimit", ctx, "promo:2", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "promo:2", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
	})

	t.Run("PrimaryMissFallsThroughToFallback", func(t *testing.T) {
		primary.On("GetDraft", ctx, "f-1").Return(nil, nil).Once()

		got, err := repo.GetDraft(ctx, "f-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "f-1", got.ID)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		primary.On("DeleteDraft", ctx, "f-1").Return(nil).Once()
		require.NoError(t, repo.DeleteDraft(ctx, "f-1"))

		got, err := fallback.GetDraft(ctx, "f-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	primary.AssertExpectations(t)
}
