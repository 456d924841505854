package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/repository"
	"github.com/princinho/parkingbackend/testutil"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewUserRepo(db)

	u := &models.User{Email: "alice@example.com", FullName: "Alice", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	dup := &models.User{Email: "alice@example.com", FullName: "Other", PasswordHash: "x", Role: models.RoleUser}
	assert.ErrorIs(t, repo.Create(ctx, dup), repository.ErrDuplicate)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	promoted, err := repo.UpdateRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "x"), repository.ErrNotFound)
	_, err = repo.UpdateRole(ctx, 9999, models.RoleAdmin)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSlotRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewSlotRepo(db)
	alice := testutil.CreateUser(t, db, "alice@example.com", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@example.com", models.RoleUser)

	for _, code := range []string{"C3", "A1", "B2"} {
		require.NoError(t, repo.Create(ctx, &models.Slot{Code: code, OwnerID: alice.ID}))
	}
	require.NoError(t, repo.Create(ctx, &models.Slot{Code: "Z9", OwnerID: bob.ID}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Slot{Code: "A1", OwnerID: bob.ID}), repository.ErrDuplicate)

	t.Run("list all ordered by code", func(t *testing.T) {
		items, total, err := repo.List(ctx, nil, 2, 1)
		require.NoError(t, err)
		assert.EqualValues(t, 4, total)
		require.Len(t, items, 2)
		assert.Equal(t, "B2", items[0].Code)
		assert.Equal(t, "C3", items[1].Code)
	})

	t.Run("list by owner", func(t *testing.T) {
		items, total, err := repo.List(ctx, &bob.ID, 20, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Z9", items[0].Code)
	})

	t.Run("list by code", func(t *testing.T) {
		all, err := repo.ListByCode(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)

		one, err := repo.ListByCode(ctx, "B2")
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, "B2", one[0].Code)
	})

	t.Run("update description", func(t *testing.T) {
		slots, err := repo.ListByCode(ctx, "A1")
		require.NoError(t, err)
		desc := "near the gate"
		updated, err := repo.UpdateDescription(ctx, slots[0].ID, &desc)
		require.NoError(t, err)
		require.NotNil(t, updated.Description)
		assert.Equal(t, desc, *updated.Description)

		cleared, err := repo.UpdateDescription(ctx, slots[0].ID, nil)
		require.NoError(t, err)
		assert.Nil(t, cleared.Description)

		_, err = repo.UpdateDescription(ctx, 9999, &desc)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSlotRepo_DeleteCascadesBookings(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice@example.com", models.RoleUser)
	slot := testutil.CreateSlot(t, db, "S10", alice)
	b := testutil.CreateBooking(t, db, slot, alice, testutil.Today(), models.BookingStatusPending)

	repo := repository.NewSlotRepo(db)
	require.NoError(t, repo.Delete(ctx, slot.ID))
	assert.ErrorIs(t, repo.Delete(ctx, slot.ID), repository.ErrNotFound)

	_, err := repository.NewBookingRepo(db).GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_SingleActivePerSlotAndDate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewBookingRepo(db)
	alice := testutil.CreateUser(t, db, "alice@example.com", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@example.com", models.RoleUser)
	slot := testutil.CreateSlot(t, db, "S10", alice)
	day := testutil.Today().AddDays(1)

	first := &models.Booking{SlotID: slot.ID, UserID: bob.ID, BookingDate: day}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, models.BookingStatusPending, first.Status)

	second := &models.Booking{SlotID: slot.ID, UserID: alice.ID, BookingDate: day}
	assert.ErrorIs(t, repo.Create(ctx, second), repository.ErrSlotTaken)

	exists, err := repo.ActiveExists(ctx, slot.ID, day, 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.ActiveExists(ctx, slot.ID, day, first.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	cancelled, err := repo.UpdateStatus(ctx, first.ID, models.BookingStatusCancelled, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Slot)
	assert.Equal(t, "S10", cancelled.Slot.Code)

	rebook := &models.Booking{SlotID: slot.ID, UserID: bob.ID, BookingDate: day}
	require.NoError(t, repo.Create(ctx, rebook))
	assert.NotEqual(t, first.ID, rebook.ID)

	// reviving the cancelled row would collide with the rebooking
	_, err = repo.UpdateStatus(ctx, first.ID, models.BookingStatusPending, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	_, err = repo.UpdateStatus(ctx, 9999, models.BookingStatusCancelled, time.Now().UTC())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepo_UniqueIndexBacksTheCheck(t *testing.T) {
	db := testutil.NewDB(t)
	alice := testutil.CreateUser(t, db, "alice@example.com", models.RoleUser)
	slot := testutil.CreateSlot(t, db, "S10", alice)
	day := testutil.Today()

	testutil.CreateBooking(t, db, slot, alice, day, models.BookingStatusCancelled)
	testutil.CreateBooking(t, db, slot, alice, day, models.BookingStatusCancelled)
	testutil.CreateBooking(t, db, slot, alice, day, models.BookingStatusConfirmed)

	raw := &models.Booking{SlotID: slot.ID, UserID: alice.ID, BookingDate: day, Status: models.BookingStatusPending}
	err := db.Omit("Slot", "User").Create(raw).Error
	require.Error(t, err)
}

func TestBookingRepo_ListVisibility(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewBookingRepo(db)
	alice := testutil.CreateUser(t, db, "alice@example.com", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@example.com", models.RoleUser)
	carol := testutil.CreateUser(t, db, "carol@example.com", models.RoleUser)
	aliceSlot := testutil.CreateSlot(t, db, "A1", alice)
	carolSlot := testutil.CreateSlot(t, db, "C1", carol)
	today := testutil.Today()

	b1 := testutil.CreateBooking(t, db, aliceSlot, bob, today.AddDays(2), models.BookingStatusPending)
	b2 := testutil.CreateBooking(t, db, carolSlot, bob, today.AddDays(1), models.BookingStatusPending)
	b3 := testutil.CreateBooking(t, db, carolSlot, carol, today.AddDays(3), models.BookingStatusPending)
	b4 := testutil.CreateBooking(t, db, aliceSlot, carol, today.AddDays(1), models.BookingStatusCancelled)

	ids := func(bs []models.Booking) []int64 {
		out := make([]int64, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}

	all, err := repo.List(ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{b2.ID, b4.ID, b1.ID, b3.ID}, ids(all))

	// alice owns A1 but booked nothing herself
	forAlice, err := repo.List(ctx, repository.BookingFilter{VisibleTo: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b4.ID, b1.ID}, ids(forAlice))

	forBob, err := repo.List(ctx, repository.BookingFilter{VisibleTo: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b2.ID, b1.ID}, ids(forBob))

	forBobOnC1, err := repo.List(ctx, repository.BookingFilter{VisibleTo: &bob.ID, SlotID: &carolSlot.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b2.ID}, ids(forBobOnC1))

	taken, err := repo.ActiveSlotIDs(ctx, today.AddDays(1))
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{carolSlot.ID: true}, taken)
}

func TestRevokedTokenRepo(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewRevokedTokenRepo(db)
	now := time.Now().UTC()

	require.NoError(t, repo.Add(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, repo.Add(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, repo.Add(ctx, "stale", now.Add(-time.Minute)))

	ok, err := repo.Exists(ctx, "stale")
	require.NoError(t, err)
	assert.True(t, ok)

	purged, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	ok, err = repo.Exists(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Exists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}
