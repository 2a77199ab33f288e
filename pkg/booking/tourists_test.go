package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTourists(t *testing.T) {
	svc, db := setupService(t)
	sea := seedHomestay(t, db, "owner1", "Seaside Homestay", true)
	hill := seedHomestay(t, db, "owner2", "Hilltop", true)
	ctx := context.Background()

	g := guest("09171234567", 2)
	g.Name = "Maria Santos"
	_, err := svc.RegisterTourist(ctx, HomestayRef{ID: sea.ID}, date("2025-10-20"), g)
	require.NoError(t, err)
	g = guest("09998887777", 3)
	g.Name = "Pedro Reyes"
	_, err = svc.RegisterTourist(ctx, HomestayRef{ID: hill.ID}, date("2025-10-25"), g)
	require.NoError(t, err)
	_, _, err = svc.UpsertCalendarBooking(ctx, hill.OwnerID, CalendarEntry{Date: date("2025-10-26"), Status: "available"})
	require.NoError(t, err)

	all, err := svc.ListTourists(ctx, TouristFilter{PositivePeople: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byName, err := svc.ListTourists(ctx, TouristFilter{Query: "maria", PositivePeople: true})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Seaside Homestay", byName[0].HomestayName)
	assert.Equal(t, "2025-10-20", byName[0].Date)

	byContact, err := svc.ListTourists(ctx, TouristFilter{Query: "0999"})
	require.NoError(t, err)
	require.Len(t, byContact, 1)
	assert.Equal(t, "Pedro Reyes", byContact[0].GuestName)

	byHomestay, err := svc.ListTourists(ctx, TouristFilter{Query: "HILLTOP"})
	require.NoError(t, err)
	assert.Len(t, byHomestay, 2)
}

func TestOwnerTourists(t *testing.T) {
	svc, db := setupService(t)
	h := seedHomestay(t, db, "owner1", "Seaside Homestay", true)
	other := seedHomestay(t, db, "owner2", "Hilltop", true)
	ctx := context.Background()

	for _, d := range []string{"2025-10-20", "2025-10-28", "2025-10-22"} {
		_, err := svc.RegisterTourist(ctx, HomestayRef{ID: h.ID}, date(d), guest("09171234567", 2))
		require.NoError(t, err)
	}
	_, err := svc.RegisterTourist(ctx, HomestayRef{ID: other.ID}, date("2025-10-21"), guest("09171234567", 2))
	require.NoError(t, err)

	list, err := svc.OwnerTourists(ctx, h.OwnerID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-10-28", list[0].Date)
	assert.Equal(t, "2025-10-20", list[2].Date)

	_, err = svc.OwnerTourists(ctx, 999)
	assert.ErrorIs(t, err, ErrHomestayNotFound)
}
