package database

import (
	"context"
	"testing"

	"spacehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Name:             "Test User",
		Email:            "Test.User@Example.com",
		Phone:            "+447700900000",
		Role:             models.RoleUser,
		MembershipStatus: models.MembershipBasic,
	}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.Equal(t, "test.user@example.com", user.Email)

	found, err := db.GetUserByEmail(ctx, "TEST.USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = db.CreateUser(ctx, &models.User{Name: "Dup", Email: "test.user@example.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)

	found.MembershipStatus = models.MembershipPremium
	found.TelegramChatID = 4242
	require.NoError(t, db.UpdateUser(ctx, found))

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MembershipPremium, byID.MembershipStatus)
	assert.Equal(t, int64(4242), byID.TelegramChatID)

	_, err = db.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestWaitlist(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, userID := range []int64{1, 2} {
		require.NoError(t, db.CreateWaitlistEntry(ctx, &models.WaitlistEntry{
			UserID: userID, SpaceID: 5, FacilityID: 1, RequestedDate: "2030-06-11",
			RequestedStartTime: "10:00", RequestedEndTime: "12:00", Participants: 4,
		}))
	}
	other := &models.WaitlistEntry{
		UserID: 3, SpaceID: 5, FacilityID: 1, RequestedDate: "2030-06-11",
		RequestedStartTime: "14:00", RequestedEndTime: "15:00", Participants: 2,
	}
	require.NoError(t, db.CreateWaitlistEntry(ctx, other))
	assert.Equal(t, models.WaitlistWaiting, other.Status)

	waiting, err := db.GetWaitingBySpace(ctx, 5)
	require.NoError(t, err)
	require.Len(t, waiting, 3)
	assert.Equal(t, int64(1), waiting[0].UserID)

	matching, err := db.GetWaitingForSlot(ctx, 5, "2030-06-11", "10:00", "12:00")
	require.NoError(t, err)
	assert.Len(t, matching, 2)

	require.NoError(t, db.UpdateWaitlistStatus(ctx, matching[0].ID, models.WaitlistNotified))
	waiting, err = db.GetWaitingBySpace(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, waiting, 2)

	byUser, err := db.GetWaitlistByUser(ctx, 3)
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	require.NoError(t, db.DeleteWaitlistEntry(ctx, other.ID))
	_, err = db.GetWaitlistEntry(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteWaitlistEntry(ctx, other.ID), ErrNotFound)
}

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bookingID := int64(7)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateNotification(ctx, &models.Notification{
			UserID: 1, Type: models.NotificationBookingConfirmation, Title: "Booking Confirmed!",
			Message: "ok", BookingID: &bookingID,
		}))
	}

	list, err := db.GetUserNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, bookingID, *list[0].BookingID)

	require.NoError(t, db.MarkNotificationRead(ctx, list[0].ID))
	unread, err := db.GetUnreadNotifications(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := db.MarkAllNotificationsRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, db.MarkNotificationPushed(ctx, list[1].ID))
	got, err := db.GetNotification(ctx, list[1].ID)
	require.NoError(t, err)
	assert.True(t, got.IsPushSent)
	assert.True(t, got.IsRead)

	require.NoError(t, db.DeleteNotification(ctx, list[2].ID))
	assert.ErrorIs(t, db.DeleteNotification(ctx, list[2].ID), ErrNotFound)
}

func TestReviewsAndFavorites(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, r := range []struct {
		rating int
		public bool
	}{{5, true}, {4, true}, {4, false}} {
		require.NoError(t, db.CreateReview(ctx, &models.Review{
			UserID: 1, SpaceID: 9, FacilityID: 1, Rating: r.rating, IsPublic: r.public,
		}))
	}

	public, err := db.GetPublicReviewsBySpace(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, public, 2)

	summary, err := db.GetSpaceRating(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 4.3, summary.Average)
	assert.Equal(t, 3, summary.Count)

	empty, err := db.GetSpaceRating(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Average)
	assert.Zero(t, empty.Count)

	fav, err := db.AddFavorite(ctx, 1, 9)
	require.NoError(t, err)
	again, err := db.AddFavorite(ctx, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, fav.ID, again.ID)

	ok, err := db.IsFavorite(ctx, 1, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	favs, err := db.GetFavoritesByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	require.NoError(t, db.RemoveFavorite(ctx, 1, 9))
	assert.ErrorIs(t, db.RemoveFavorite(ctx, 1, 9), ErrNotFound)
}
