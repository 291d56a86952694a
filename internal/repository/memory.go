package repository

import (
	"context"
	"sync"
	"time"

	"spacehub/internal/models"
)

type MemoryDraftRepository struct {
	drafts     sync.Map
	rateLimits sync.Map
	mu         sync.Mutex
	now        func() time.Time
}

type draftEntry struct {
	draft     *models.CheckoutDraft
	expiresAt time.Time
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{now: time.Now}
}

func (r *MemoryDraftRepository) GetDraft(_ context.Context, id string) (*models.CheckoutDraft, error) {
	val, ok := r.drafts.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(draftEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.drafts.Delete(id)
		return nil, nil
	}
	return entry.draft, nil
}

func (r *MemoryDraftRepository) SaveDraft(_ context.Context, draft *models.CheckoutDraft, ttl time.Duration) error {
	entry := draftEntry{draft: draft}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.drafts.Store(draft.ID, entry)
	return nil
}

func (r *MemoryDraftRepository) DeleteDraft(_ context.Context, id string) error {
	r.drafts.Delete(id)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryDraftRepository) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
