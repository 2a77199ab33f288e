package booking

import (
	"context"
	"sort"
	"time"

	"digitrack/pkg/models"
)

// RoomDay is the state of one room on one day.
type RoomDay struct {
	RoomID     uint   `json:"room_id"`
	RoomNumber string `json:"room_number"`
	Status     string `json:"status"`
}

// Availability maps YYYY-MM-DD to the state of every room on that day.
type Availability map[string][]RoomDay

// ComputeAvailability reports per-room status for every day of [from, to]
// plus the current and next calendar month. A zero from/to yields just
// the two months.
func (s *Service) ComputeAvailability(ctx context.Context, homestayID uint, from, to time.Time) (Availability, error) {
	first, last := currentAndNextMonth(s.today())
	if !from.IsZero() || !to.IsZero() {
		if from.IsZero() {
			from = to
		}
		if to.IsZero() {
			to = from
		}
		from, to = Day(from), Day(to)
		if to.Before(from) {
			return nil, ErrInvalidDateRange
		}
		if rangeTooLong(from, to) {
			return nil, ErrRangeTooLong
		}
	}

	rooms, err := s.repo.RoomsByHomestay(ctx, homestayID)
	if err != nil {
		return nil, err
	}

	lo, hi := first, last
	if !from.IsZero() {
		if from.Before(lo) {
			lo = from
		}
		if to.After(hi) {
			hi = to
		}
	}
	bookings, err := s.repo.FindBookings(ctx, BookingFilter{
		HomestayID: &homestayID,
		From:       lo,
		To:         hi,
		RoomsOnly:  true,
	})
	if err != nil {
		return nil, err
	}

	out := Availability{}
	fill := func(days []time.Time) {
		for _, d := range days {
			key := FormatDate(d)
			if _, ok := out[key]; ok {
				continue
			}
			out[key] = roomsOn(key, rooms, bookings)
		}
	}
	if !from.IsZero() {
		fill(daysBetween(from, to))
	}
	fill(daysBetween(first, last))
	return out, nil
}

func roomsOn(day string, rooms []models.Room, bookings []models.Booking) []RoomDay {
	states := make([]RoomDay, 0, len(rooms))
	for _, room := range rooms {
		status := string(models.RoomAvailable)
		if room.UnderMaintenance() {
			status = string(models.RoomMaintenance)
		}
		if b, ok := bookingFor(room.ID, day, bookings); ok {
			status = string(b.Status)
		}
		states = append(states, RoomDay{RoomID: room.ID, RoomNumber: room.RoomNumber, Status: status})
	}
	return states
}

// bookingFor prefers a reserved booking over an available one.
func bookingFor(roomID uint, day string, bookings []models.Booking) (models.Booking, bool) {
	var (
		found models.Booking
		ok    bool
	)
	for _, b := range bookings {
		if b.RoomID == nil || *b.RoomID != roomID || FormatDate(b.Date) != day {
			continue
		}
		if b.Status == models.BookingReserved {
			return b, true
		}
		if !ok {
			found, ok = b, true
		}
	}
	return found, ok
}

type RoomView struct {
	ID               uint              `json:"id"`
	RoomNumber       string            `json:"room_number"`
	Capacity         int               `json:"capacity"`
	Status           models.RoomStatus `json:"status"`
	UnderMaintenance bool              `json:"under_maintenance"`
}

func roomViewOf(r models.Room) RoomView {
	return RoomView{
		ID:               r.ID,
		RoomNumber:       r.RoomNumber,
		Capacity:         r.Capacity,
		Status:           r.Status,
		UnderMaintenance: r.UnderMaintenance(),
	}
}

type CalendarBooking struct {
	ID         uint   `json:"id"`
	RoomID     *uint  `json:"room_id"`
	RoomNumber string `json:"room_number,omitempty"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	GuestName  string `json:"guest_name"`
	NumPeople  int    `json:"num_people"`
	Source     string `json:"source"`
}

type CalendarView struct {
	HomestayID   uint              `json:"homestay_id"`
	HomestayName string            `json:"homestay_name"`
	Rooms        []RoomView        `json:"rooms"`
	Bookings     []CalendarBooking `json:"bookings"`
	Availability Availability      `json:"availability"`
}

// CalendarData collects everything the owner's reservation calendar shows.
func (s *Service) CalendarData(ctx context.Context, ownerID uint) (CalendarView, error) {
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return CalendarView{}, err
	}
	rooms, err := s.repo.RoomsByHomestay(ctx, h.ID)
	if err != nil {
		return CalendarView{}, err
	}
	bookings, err := s.repo.FindBookings(ctx, BookingFilter{HomestayID: &h.ID})
	if err != nil {
		return CalendarView{}, err
	}
	availability, err := s.ComputeAvailability(ctx, h.ID, time.Time{}, time.Time{})
	if err != nil {
		return CalendarView{}, err
	}

	numbers := make(map[uint]string, len(rooms))
	view := CalendarView{
		HomestayID:   h.ID,
		HomestayName: h.Name,
		Rooms:        make([]RoomView, 0, len(rooms)),
		Bookings:     make([]CalendarBooking, 0, len(bookings)),
		Availability: availability,
	}
	for _, r := range rooms {
		numbers[r.ID] = r.RoomNumber
		view.Rooms = append(view.Rooms, roomViewOf(r))
	}
	for _, b := range bookings {
		cb := CalendarBooking{
			ID:        b.ID,
			RoomID:    b.RoomID,
			Date:      FormatDate(b.Date),
			Status:    string(b.Status),
			GuestName: b.GuestName,
			NumPeople: 1,
			Source:    string(b.Source),
		}
		if b.NumPeople != nil {
			cb.NumPeople = *b.NumPeople
		}
		if b.RoomID != nil {
			cb.RoomNumber = numbers[*b.RoomID]
		}
		view.Bookings = append(view.Bookings, cb)
	}
	return view, nil
}

type PublicHomestay struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Features      Features `json:"features"`
	ReservedDates []string `json:"reserved_dates"`
}

// PublicHomestays lists homestays of active owners with their reserved days.
func (s *Service) PublicHomestays(ctx context.Context) ([]PublicHomestay, error) {
	homestays, err := s.repo.ActiveHomestays(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicHomestay, 0, len(homestays))
	for i := range homestays {
		h := &homestays[i]
		bookings, err := s.repo.FindBookings(ctx, BookingFilter{HomestayID: &h.ID, Status: models.BookingReserved})
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(bookings))
		dates := make([]string, 0, len(bookings))
		for _, b := range bookings {
			d := FormatDate(b.Date)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
		sort.Strings(dates)
		out = append(out, PublicHomestay{
			ID:            h.ID,
			Name:          h.Name,
			Address:       h.Address,
			Features:      featuresOf(h),
			ReservedDates: dates,
		})
	}
	return out, nil
}
