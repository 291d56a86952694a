package service

import (
	"context"
	"testing"

	"spacehub/internal/database"
	"spacehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_Spaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.catalog.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	pitch := &models.Space{FacilityID: env.facility.ID, Name: "Pitch B", Type: models.SpaceSportsPitch, Capacity: 14}
	assert.ErrorIs(t, env.catalog.CreateSpace(ctx, pitch), ErrInvalidArgument, "sport type required")

	room := &models.Space{FacilityID: env.facility.ID, Name: "Board Room", Type: models.SpaceMeetingRoom, Capacity: 8, IsActive: true}
	require.NoError(t, env.catalog.CreateSpace(ctx, room))
	assert.NotNil(t, room.Amenities)

	orphan := &models.Space{FacilityID: 999, Name: "Nowhere", Type: models.SpaceHotDesk}
	assert.ErrorIs(t, env.catalog.CreateSpace(ctx, orphan), database.ErrNotFound)

	rooms, err := env.catalog.ListSpacesByType(ctx, models.SpaceMeetingRoom)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	_, err = env.catalog.ListSpacesByType(ctx, "castle")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	byFacility, err := env.catalog.ListSpacesByFacility(ctx, env.facility.ID)
	require.NoError(t, err)
	assert.Len(t, byFacility, 2)

	room.Capacity = 12
	require.NoError(t, env.catalog.UpdateSpace(ctx, room))
	got, err := env.catalog.GetSpace(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Capacity)

	require.NoError(t, env.catalog.DeactivateSpace(ctx, room.ID))
	active, err := env.catalog.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, env.space.ID, active[0].ID)
}

func TestCatalogService_Facilities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.catalog.CreateFacility(ctx, &models.Facility{Name: " ", City: "Leeds", Address: "x"}), ErrInvalidArgument)

	hub := &models.Facility{Name: "Canal Works", Address: "2 Wharf Rd", City: "Leeds", OwnerID: 7, IsActive: true}
	require.NoError(t, env.catalog.CreateFacility(ctx, hub))

	owned, err := env.catalog.ListFacilitiesByOwner(ctx, 7)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Canal Works", owned[0].Name)

	hub.Website = "https://canal.example.com"
	require.NoError(t, env.catalog.UpdateFacility(ctx, hub))
	got, err := env.catalog.GetFacility(ctx, hub.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://canal.example.com", got.Website)

	require.NoError(t, env.catalog.DeactivateFacility(ctx, hub.ID))
	list, err := env.catalog.ListFacilities(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogService_Users(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, models.RoleUser, env.user.Role)
	assert.Equal(t, models.MembershipBasic, env.user.MembershipStatus)

	dup := &models.User{Name: "Alex Again", Email: "ALEX@example.com"}
	assert.ErrorIs(t, env.catalog.CreateUser(ctx, dup), database.ErrDuplicate)

	for _, u := range []*models.User{
		{Name: "No Mail", Email: "not-an-email"},
		{Name: "", Email: "blank@example.com"},
		{Name: "Boss", Email: "boss@example.com", Role: "emperor"},
	} {
		assert.ErrorIs(t, env.catalog.CreateUser(ctx, u), ErrInvalidArgument, u.Email)
	}

	byEmail, err := env.catalog.GetUserByEmail(ctx, "Alex@Example.com")
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, byEmail.ID)

	linked, err := env.catalog.LinkTelegram(ctx, env.user.ID, 777)
	require.NoError(t, err)
	assert.Equal(t, int64(777), linked.TelegramChatID)

	byEmail.MembershipStatus = models.MembershipPremium
	require.NoError(t, env.catalog.UpdateUser(ctx, byEmail))
	got, err := env.catalog.GetUserByID(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipPremium, got.MembershipStatus)

	all, err := env.catalog.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalogService_ReviewsAndFavorites(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, rating := range []int{5, 4, 4} {
		require.NoError(t, env.catalog.CreateReview(ctx, &models.Review{
			UserID: env.user.ID, SpaceID: env.space.ID, Rating: rating, IsPublic: true,
		}))
	}
	assert.ErrorIs(t, env.catalog.CreateReview(ctx, &models.Review{UserID: env.user.ID, SpaceID: env.space.ID, Rating: 6}), ErrInvalidArgument)
	assert.ErrorIs(t, env.catalog.CreateReview(ctx, &models.Review{UserID: env.user.ID, SpaceID: env.space.ID, Rating: 0}), ErrInvalidArgument)

	reviews, err := env.catalog.GetReviews(ctx, env.space.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, env.facility.ID, reviews[0].FacilityID)

	rating, err := env.catalog.GetRating(ctx, env.space.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, rating.Count)
	assert.InDelta(t, 4.3, rating.Average, 1e-9)

	first, err := env.catalog.AddFavorite(ctx, env.user.ID, env.space.ID)
	require.NoError(t, err)
	again, err := env.catalog.AddFavorite(ctx, env.user.ID, env.space.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	fav, err := env.catalog.IsFavorite(ctx, env.user.ID, env.space.ID)
	require.NoError(t, err)
	assert.True(t, fav)

	favs, err := env.catalog.GetFavorites(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	require.NoError(t, env.catalog.RemoveFavorite(ctx, env.user.ID, env.space.ID))
	fav, err = env.catalog.IsFavorite(ctx, env.user.ID, env.space.ID)
	require.NoError(t, err)
	assert.False(t, fav)

	_, err = env.catalog.AddFavorite(ctx, env.user.ID, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
