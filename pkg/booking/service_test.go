package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digitrack/pkg/apperrors"
	"digitrack/pkg/database"
	"digitrack/pkg/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, time.October, 15, 9, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	db := setupTestDB(t)
	svc := NewService(NewGormRepository(db), zerolog.Nop()).WithClock(func() time.Time { return testNow })
	return svc, db
}

func seedHomestay(t *testing.T, db *gorm.DB, username, name string, active bool) *models.Homestay {
	t.Helper()
	owner := models.Account{Username: username, PasswordHash: "x", Name: "Owner " + username, Role: models.RoleOwner, IsActive: true}
	require.NoError(t, db.Create(&owner).Error)
	if !active {
		require.NoError(t, db.Model(&owner).Update("is_active", false).Error)
	}
	h := models.Homestay{OwnerID: owner.ID, Name: name, Address: "Poblacion", MaxGuests: 4}
	require.NoError(t, db.Create(&h).Error)
	h.Owner = owner
	return &h
}

func seedRoom(t *testing.T, db *gorm.DB, homestayID uint, number string, status models.RoomStatus) *models.Room {
	t.Helper()
	room := models.Room{HomestayID: homestayID, RoomNumber: number, Capacity: 2, Status: status}
	require.NoError(t, db.Create(&room).Error)
	return &room
}

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func guest(contact string, people int) Guest {
	return Guest{
		Name:          "Juan Dela Cruz",
		ContactNumber: contact,
		Region:        "Region I",
		Province:      "Pangasinan",
		City:          "Bolinao",
		Barangay:      "Patar",
		NumPeople:     people,
	}
}

func countBookings(t *testing.T, db *gorm.DB, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Booking{}).Where(where, args...).Count(&n).Error)
	return n
}

func TestRegisterTourist(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)

	ref, err := svc.RegisterTourist(context.Background(), HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), guest("09171234567", 3))

	require.NoError(t, err)
	assert.Equal(t, "2025-10-20", ref.Date)
	assert.Equal(t, models.BookingReserved, ref.Status)
	assert.Equal(t, models.SourceRegistration, ref.Source)
	assert.NotEmpty(t, ref.UID)

	var stored []models.Booking
	require.NoError(t, db.Where("homestay_id = ?", h.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, models.SourceRegistration, stored[0].Source)
	assert.Equal(t, models.BookingReserved, stored[0].Status)
	assert.Equal(t, "Patar", stored[0].Barangay)
	require.NotNil(t, stored[0].NumPeople)
	assert.Equal(t, 3, *stored[0].NumPeople)
}

func TestRegisterTouristDuplicateDay(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	_, err := svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-20"), guest("09171234567", 2))
	require.NoError(t, err)

	_, err = svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-20"), guest("09998887777", 1))
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, int64(1), countBookings(t, db, "homestay_id = ?", h.ID))

	_, err = svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-21"), guest("09998887777", 1))
	assert.NoError(t, err)
}

func TestRegisterTouristRefusesAnyBookedDay(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	_, _, err := svc.UpsertCalendarBooking(ctx, h.OwnerID, CalendarEntry{Date: date("2025-10-20"), Status: models.BookingAvailable})
	require.NoError(t, err)

	_, err = svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-20"), guest("09171234567", 2))
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	assert.Equal(t, int64(1), countBookings(t, db, "homestay_id = ?", h.ID))
}

func TestRegisterTouristConcurrent(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-20"), guest("09171234567", 2))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicateBooking):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)
	assert.Equal(t, int64(1), countBookings(t, db, "homestay_id = ?", h.ID))
}

func TestRegisterTouristContactNumber(t *testing.T) {
	svc, db := setupService(t)
	seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	for _, bad := range []string{"0917ABC1234", "O9171234567", "0917-123-ñ"} {
		_, err := svc.RegisterTourist(ctx, HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), guest(bad, 2))
		assert.ErrorIs(t, err, ErrInvalidContact, bad)
		assert.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
	assert.Equal(t, int64(0), countBookings(t, db, "1 = 1"))

	_, err := svc.RegisterTourist(ctx, HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), guest("09171234567", 2))
	assert.NoError(t, err)
}

func TestRegisterTouristRejections(t *testing.T) {
	svc, db := setupService(t)
	seedHomestay(t, db, "owner1", "Test Homestay", true)
	seedHomestay(t, db, "owner2", "Closed Homestay", false)
	ctx := context.Background()

	_, err := svc.RegisterTourist(ctx, HomestayRef{Name: "Closed Homestay"}, date("2025-10-20"), guest("09171234567", 2))
	assert.ErrorIs(t, err, ErrHomestaySuspended)

	_, err = svc.RegisterTourist(ctx, HomestayRef{Name: "Nowhere Inn"}, date("2025-10-20"), guest("09171234567", 2))
	assert.ErrorIs(t, err, ErrHomestayNotFound)

	_, err = svc.RegisterTourist(ctx, HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), guest("09171234567", 0))
	assert.ErrorIs(t, err, ErrInvalidPartySize)

	g := guest("09171234567", 2)
	g.Name = " "
	_, err = svc.RegisterTourist(ctx, HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), g)
	assert.ErrorIs(t, err, ErrMissingFields)

	assert.Equal(t, int64(0), countBookings(t, db, "1 = 1"))
}

func TestRegisterTouristRange(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	_, err := svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-10-21"), guest("09171234567", 2))
	require.NoError(t, err)

	refs, err := svc.RegisterTouristRange(ctx, HomestayRef{Name: "Test Homestay"}, date("2025-10-20"), date("2025-10-23"), guest("09998887777", 4))
	require.NoError(t, err)
	require.Len(t, refs, 4)
	assert.Equal(t, "2025-10-20", refs[0].Date)
	assert.Equal(t, "2025-10-23", refs[3].Date)
	assert.Equal(t, int64(2), countBookings(t, db, "homestay_id = ? AND date = ?", h.ID, date("2025-10-21")))

	_, err = svc.RegisterTouristRange(ctx, HomestayRef{ID: h.ID}, date("2025-10-23"), date("2025-10-20"), guest("09998887777", 4))
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.RegisterTouristRange(ctx, HomestayRef{ID: h.ID}, date("2025-01-01"), date("2026-06-01"), guest("09998887777", 4))
	assert.ErrorIs(t, err, ErrRangeTooLong)

	_, err = svc.RegisterTouristRange(ctx, HomestayRef{ID: h.ID}, date("0001-01-01"), date("9999-12-31"), guest("09998887777", 4))
	assert.ErrorIs(t, err, ErrRangeTooLong)
}

func TestRangeTooLong(t *testing.T) {
	start := date("2025-01-01")
	assert.False(t, rangeTooLong(start, start))
	assert.False(t, rangeTooLong(start, start.AddDate(0, 0, maxRangeDays-1)))
	assert.Len(t, daysBetween(start, start.AddDate(0, 0, maxRangeDays-1)), maxRangeDays)
	assert.True(t, rangeTooLong(start, start.AddDate(0, 0, maxRangeDays)))
	assert.True(t, rangeTooLong(date("0001-01-01"), date("9999-12-31")))
}

func TestReserveRoom(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	ctx := context.Background()

	first, err := svc.ReserveRoom(ctx, room.ID, date("2025-11-02"), guest("09171234567", 2))
	require.NoError(t, err)
	assert.Equal(t, models.SourceCalendar, first.Source)
	require.NotNil(t, first.RoomID)
	assert.Equal(t, room.ID, *first.RoomID)
	assert.Equal(t, h.ID, first.HomestayID)

	_, err = svc.ReserveRoom(ctx, room.ID, date("2025-11-02"), Guest{Name: "Other", NumPeople: 1})
	assert.ErrorIs(t, err, ErrRoomAlreadyReserved)

	var stored models.Booking
	require.NoError(t, db.First(&stored, first.ID).Error)
	assert.Equal(t, "Juan Dela Cruz", stored.GuestName)
	assert.Equal(t, int64(1), countBookings(t, db, "room_id = ?", room.ID))

	other := seedRoom(t, db, h.ID, "102", models.RoomAvailable)
	_, err = svc.ReserveRoom(ctx, other.ID, date("2025-11-02"), Guest{Name: "Other", NumPeople: 1})
	assert.NoError(t, err)
}

func TestReserveRoomConcurrent(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	ctx := context.Background()

	const n = 20
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ReserveRoom(ctx, room.ID, date("2025-11-02"), guest("09171234567", 1))
		}(i)
	}
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRoomAlreadyReserved):
			taken++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, taken)
	assert.Equal(t, int64(1), countBookings(t, db, "room_id = ?", room.ID))
}

func TestReserveRoomSuspendedHomestay(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Closed Homestay", false)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)

	_, err := svc.ReserveRoom(context.Background(), room.ID, date("2025-11-02"), guest("09171234567", 2))
	assert.ErrorIs(t, err, ErrHomestaySuspended)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, int64(0), countBookings(t, db, "1 = 1"))
}

func TestReserveRoomValidation(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	ctx := context.Background()

	_, err := svc.ReserveRoom(ctx, 0, date("2025-11-02"), guest("", 2))
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.ReserveRoom(ctx, room.ID, time.Time{}, guest("", 2))
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.ReserveRoom(ctx, room.ID, date("2025-11-02"), guest("", 0))
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.ReserveRoom(ctx, room.ID, date("2025-11-02"), guest("0917ABC1234", 2))
	assert.ErrorIs(t, err, ErrInvalidContact)

	_, err = svc.ReserveRoom(ctx, 999, date("2025-11-02"), guest("", 2))
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReservedRoomIndex(t *testing.T) {
	_, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	repo := NewGormRepository(db)
	ctx := context.Background()

	mk := func(status models.BookingStatus, uid string) *models.Booking {
		return &models.Booking{BookingUid: uid, HomestayID: h.ID, RoomID: &room.ID, Date: date("2025-11-02"), Status: status, Source: models.SourceCalendar}
	}
	require.NoError(t, repo.CreateBookings(ctx, mk(models.BookingReserved, "9f0c7a8e-0000-4000-8000-000000000001")))
	require.NoError(t, repo.CreateBookings(ctx, mk(models.BookingAvailable, "9f0c7a8e-0000-4000-8000-000000000002")))

	err := repo.CreateBookings(ctx, mk(models.BookingReserved, "9f0c7a8e-0000-4000-8000-000000000003"))
	assert.ErrorIs(t, err, ErrRoomAlreadyReserved)
}

func TestUpsertCalendarBooking(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	r1 := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	r2 := seedRoom(t, db, h.ID, "102", models.RoomAvailable)
	ctx := context.Background()
	two := 2

	ref, created, err := svc.UpsertCalendarBooking(ctx, h.OwnerID, CalendarEntry{
		Date: date("2025-11-05"), Status: models.BookingReserved, GuestName: "Ana", NumPeople: &two, RoomID: &r1.ID,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.SourceCalendar, ref.Source)

	again, created, err := svc.UpsertCalendarBooking(ctx, h.OwnerID, CalendarEntry{
		Date: date("2025-11-05"), Status: models.BookingAvailable, GuestName: "Ben", RoomID: &r2.ID,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, ref.ID, again.ID)
	assert.Equal(t, int64(1), countBookings(t, db, "homestay_id = ?", h.ID))

	var stored models.Booking
	require.NoError(t, db.First(&stored, ref.ID).Error)
	assert.Equal(t, models.BookingAvailable, stored.Status)
	assert.Equal(t, "Ben", stored.GuestName)
	require.NotNil(t, stored.RoomID)
	assert.Equal(t, r2.ID, *stored.RoomID)
	require.NotNil(t, stored.NumPeople)
	assert.Equal(t, 1, *stored.NumPeople)
}

func TestUpsertCalendarBookingKeepsRegistrationSource(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	reg, err := svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-11-05"), guest("09171234567", 2))
	require.NoError(t, err)

	ref, created, err := svc.UpsertCalendarBooking(ctx, h.OwnerID, CalendarEntry{Date: date("2025-11-05"), Status: models.BookingAvailable})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, reg.ID, ref.ID)
	assert.Equal(t, models.SourceRegistration, ref.Source)
}

func TestUpsertCalendarBookingRejections(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	other := seedHomestay(t, db, "owner2", "Other Homestay", true)
	room := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	foreign := seedRoom(t, db, other.ID, "201", models.RoomAvailable)
	ctx := context.Background()

	_, err := svc.ReserveRoom(ctx, room.ID, date("2025-11-05"), guest("09171234567", 2))
	require.NoError(t, err)

	cases := []struct {
		name  string
		owner uint
		entry CalendarEntry
		want  error
	}{
		{"missing date", h.OwnerID, CalendarEntry{Status: models.BookingReserved}, ErrMissingFields},
		{"bad status", h.OwnerID, CalendarEntry{Date: date("2025-11-07"), Status: "occupied"}, ErrInvalidStatus},
		{"no homestay", 999, CalendarEntry{Date: date("2025-11-07"), Status: models.BookingReserved}, ErrHomestayNotFound},
		{"foreign room", h.OwnerID, CalendarEntry{Date: date("2025-11-07"), Status: models.BookingReserved, RoomID: &foreign.ID}, ErrRoomNotFound},
		{"contact", h.OwnerID, CalendarEntry{Date: date("2025-11-07"), Status: models.BookingReserved, ContactNumber: "abc"}, ErrInvalidContact},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.UpsertCalendarBooking(ctx, tc.owner, tc.entry)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestUpsertCalendarBookingRoomConflict(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	r1 := seedRoom(t, db, h.ID, "101", models.RoomAvailable)
	ctx := context.Background()

	// two rows on the same day: the upsert mutates the oldest, which is not r1's reservation
	_, err := svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date("2025-11-05"), guest("09171234567", 2))
	require.NoError(t, err)
	_, err = svc.ReserveRoom(ctx, r1.ID, date("2025-11-05"), guest("09171234567", 2))
	require.NoError(t, err)

	_, _, err = svc.UpsertCalendarBooking(ctx, h.OwnerID, CalendarEntry{Date: date("2025-11-05"), Status: models.BookingReserved, RoomID: &r1.ID})
	assert.ErrorIs(t, err, ErrRoomAlreadyReserved)
}

func TestHomestayFeatures(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Test Homestay", true)
	ctx := context.Background()

	err := svc.UpdateHomestayFeatures(ctx, h.OwnerID, Features{MaxGuests: 8, PetFriendly: true})
	require.NoError(t, err)

	f, err := svc.HomestayFeatures(ctx, h.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, Features{MaxGuests: 8, PetFriendly: true}, f)

	assert.ErrorIs(t, svc.UpdateHomestayFeatures(ctx, h.OwnerID, Features{}), ErrInvalidPartySize)
}
