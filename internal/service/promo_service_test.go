package service

import (
	"context"
	"testing"
	"time"

	"spacehub/internal/database"
	"spacehub/internal/models"
	"spacehub/internal/repository"
	"spacehub/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPromo(t *testing.T, env *testEnv, code string, mutate func(p *models.PromoCode)) *models.PromoCode {
	t.Helper()
	p := &models.PromoCode{
		Code:          code,
		DiscountType:  models.DiscountFixed,
		DiscountValue: 25,
		ValidFrom:     "2030-01-01T00:00:00.000Z",
		ValidUntil:    "2030-12-31T23:59:59.999Z",
		IsActive:      true,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, env.promos.CreatePromoCode(context.Background(), p))
	return p
}

func TestPromoService_Validate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fixed := createPromo(t, env, "flat25", nil)
	createPromo(t, env, "LATER", func(p *models.PromoCode) { p.ValidFrom = "2030-07-01T00:00:00.000Z" })
	one := 1
	limited := createPromo(t, env, "ONCE", func(p *models.PromoCode) { p.MaxUses = &one })
	createPromo(t, env, "OFF", func(p *models.PromoCode) { p.IsActive = false })

	v, err := env.promos.ValidatePromoCode(ctx, "flat25", env.user.ID, 10)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, fixed.ID, v.PromoCode.ID)
	assert.InDelta(t, 10.0, v.DiscountAmount, 1e-9, "fixed discount capped at the amount")

	v, err = env.promos.ValidatePromoCode(ctx, "missing", env.user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoNotFound, v.Error)

	v, err = env.promos.ValidatePromoCode(ctx, "OFF", env.user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoNotFound, v.Error)

	v, err = env.promos.ValidatePromoCode(ctx, "later", env.user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoWindow, v.Error)

	b := env.book(t, "2030-06-11T10:00:00", "2030-06-11T12:00:00")
	other := env.newUser(t, "sam@example.com")
	require.NoError(t, env.promos.UsePromoCode(ctx, limited.ID, other.ID, b.ID, 25))

	v, err = env.promos.ValidatePromoCode(ctx, "ONCE", env.user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoLimitReached, v.Error)

	require.NoError(t, env.promos.UsePromoCode(ctx, fixed.ID, env.user.ID, b.ID, 25))
	v, err = env.promos.ValidatePromoCode(ctx, "FLAT25", env.user.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoAlreadyUsed, v.Error)

	err = env.promos.UsePromoCode(ctx, fixed.ID, env.user.ID, b.ID, 25)
	assert.ErrorIs(t, err, database.ErrPromoUnavailable)
}

func TestPromoService_ValidateRequiresUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createPromo(t, env, "FLAT25", nil)

	v, err := env.promos.ValidatePromoCode(ctx, "FLAT25", 0, 100)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, v)

	_, err = env.promos.ValidatePromoCode(ctx, "FLAT25", env.user.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPromoService_Throttle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < models.PromoAttemptLimit; i++ {
		v, err := env.promos.ValidatePromoCode(ctx, "GUESS", env.user.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, rules.ReasonPromoNotFound, v.Error)
	}

	v, err := env.promos.ValidatePromoCode(ctx, "GUESS", env.user.ID, 10)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, ReasonPromoThrottled, v.Error)

	other := env.newUser(t, "sam@example.com")
	v, err = env.promos.ValidatePromoCode(ctx, "GUESS", other.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, rules.ReasonPromoNotFound, v.Error, "limits are per user")
}

func TestPromoService_ConfiguredAttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	promos := NewPromoService(env.db, repository.NewMemoryDraftRepository(), nil).WithAttemptLimit(2, time.Hour)

	for i := 0; i < 2; i++ {
		v, err := promos.ValidatePromoCode(ctx, "GUESS", env.user.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, rules.ReasonPromoNotFound, v.Error)
	}
	v, err := promos.ValidatePromoCode(ctx, "GUESS", env.user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, ReasonPromoThrottled, v.Error)
}

func TestPromoService_FixedAmountType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	wire := createPromo(t, env, "FLAT10", func(p *models.PromoCode) {
		p.DiscountType = "fixed_amount"
		p.DiscountValue = 10
	})
	assert.Equal(t, models.DiscountFixed, wire.DiscountType)

	legacy := createPromo(t, env, "FLAT5", func(p *models.PromoCode) {
		p.DiscountType = "fixed"
		p.DiscountValue = 5
	})
	assert.Equal(t, "fixed_amount", legacy.DiscountType)

	stored, err := env.promos.GetPromoCode(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, "fixed_amount", stored.DiscountType)

	v, err := env.promos.ValidatePromoCode(ctx, "flat10", env.user.ID, 50)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.InDelta(t, 10.0, v.DiscountAmount, 1e-9)

	v, err = env.promos.ValidatePromoCode(ctx, "FLAT10", env.user.ID, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v.DiscountAmount, 1e-9)

	pct := "percentage"
	updated, err := env.promos.UpdatePromoCode(ctx, wire.ID, PromoCodeUpdate{DiscountType: &pct})
	require.NoError(t, err)
	assert.Equal(t, models.DiscountPercentage, updated.DiscountType)
}

func TestPromoService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := createPromo(t, env, "  summer ", func(p *models.PromoCode) {
		p.DiscountType = models.DiscountPercentage
		p.DiscountValue = 15
	})
	assert.Equal(t, "SUMMER", p.Code)

	dup := &models.PromoCode{Code: "Summer", DiscountType: models.DiscountFixed, DiscountValue: 5,
		ValidFrom: "2030-01-01T00:00:00.000Z", ValidUntil: "2030-02-01T00:00:00.000Z", IsActive: true}
	assert.ErrorIs(t, env.promos.CreatePromoCode(ctx, dup), database.ErrDuplicate)

	invalid := []*models.PromoCode{
		{Code: "A", DiscountType: "bogus", DiscountValue: 5, ValidFrom: "a", ValidUntil: "b"},
		{Code: "B", DiscountType: models.DiscountPercentage, DiscountValue: 150, ValidFrom: "a", ValidUntil: "b"},
		{Code: "C", DiscountType: models.DiscountFixed, DiscountValue: 0, ValidFrom: "a", ValidUntil: "b"},
		{Code: "D", DiscountType: models.DiscountFixed, DiscountValue: 5, ValidFrom: "b", ValidUntil: "a"},
		{Code: "", DiscountType: models.DiscountFixed, DiscountValue: 5, ValidFrom: "a", ValidUntil: "b"},
	}
	for _, c := range invalid {
		assert.ErrorIs(t, env.promos.CreatePromoCode(ctx, c), ErrInvalidArgument, "code %q", c.Code)
	}

	value, inactive := 20.0, false
	updated, err := env.promos.UpdatePromoCode(ctx, p.ID, PromoCodeUpdate{DiscountValue: &value, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.DiscountValue)
	assert.False(t, updated.IsActive)
	assert.Equal(t, models.DiscountPercentage, updated.DiscountType)

	list, err := env.promos.ListPromoCodes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.promos.DeletePromoCode(ctx, p.ID))
	_, err = env.promos.GetPromoCode(ctx, p.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
