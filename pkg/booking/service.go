package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digitrack/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HomestayRef names a homestay either by id or by its display name.
type HomestayRef struct {
	ID   uint
	Name string
}

// Guest is the tourist information attached to a booking.
type Guest struct {
	Name          string
	ContactNumber string
	Region        string
	Province      string
	City          string
	Barangay      string
	NumPeople     int
}

type BookingRef struct {
	ID         uint                 `json:"booking_id"`
	UID        string               `json:"booking_uid"`
	HomestayID uint                 `json:"homestay_id"`
	RoomID     *uint                `json:"room_id,omitempty"`
	Date       string               `json:"date"`
	Status     models.BookingStatus `json:"status"`
	Source     models.BookingSource `json:"source"`
}

func refOf(b *models.Booking) BookingRef {
	return BookingRef{
		ID:         b.ID,
		UID:        b.BookingUid,
		HomestayID: b.HomestayID,
		RoomID:     b.RoomID,
		Date:       FormatDate(b.Date),
		Status:     b.Status,
		Source:     b.Source,
	}
}

// CalendarEntry is an owner's edit of one calendar day.
type CalendarEntry struct {
	Date          time.Time
	Status        models.BookingStatus
	GuestName     string
	NumPeople     *int
	ContactNumber string
	RoomID        *uint
}

type Service struct {
	repo    Repository
	log     zerolog.Logger
	now     func() time.Time
	minYear int
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     log.With().Str("component", "booking").Logger(),
		now:     time.Now,
		minYear: DefaultMinYear,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithMinYear sets the first year of owner statistics.
func (s *Service) WithMinYear(year int) *Service {
	if year > 0 {
		s.minYear = year
	}
	return s
}

func (s *Service) today() time.Time {
	return Day(s.now().UTC())
}

func dayLockKey(homestayID uint, date time.Time) string {
	return fmt.Sprintf("homestay:%d:%s", homestayID, FormatDate(date))
}

func (s *Service) resolveHomestay(ctx context.Context, ref HomestayRef) (*models.Homestay, error) {
	if ref.ID != 0 {
		return s.repo.HomestayByID(ctx, ref.ID)
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, ErrHomestayNotFound
	}
	return s.repo.HomestayByName(ctx, name)
}

func validateGuest(g Guest) error {
	if strings.TrimSpace(g.Name) == "" || strings.TrimSpace(g.ContactNumber) == "" {
		return ErrMissingFields
	}
	if !ValidContactNumber(g.ContactNumber) {
		return ErrInvalidContact
	}
	if g.NumPeople <= 0 {
		return ErrInvalidPartySize
	}
	return nil
}

// openHomestay resolves ref and refuses homestays whose owner is suspended.
func (s *Service) openHomestay(ctx context.Context, ref HomestayRef) (*models.Homestay, error) {
	h, err := s.resolveHomestay(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !h.Owner.IsActive {
		return nil, ErrHomestaySuspended
	}
	return h, nil
}

func newBooking(homestayID uint, date time.Time, g Guest, source models.BookingSource) *models.Booking {
	people := g.NumPeople
	return &models.Booking{
		BookingUid:    uuid.New().String(),
		HomestayID:    homestayID,
		Date:          Day(date),
		Status:        models.BookingReserved,
		GuestName:     strings.TrimSpace(g.Name),
		NumPeople:     &people,
		ContactNumber: strings.TrimSpace(g.ContactNumber),
		Region:        g.Region,
		Province:      g.Province,
		City:          g.City,
		Barangay:      g.Barangay,
		Source:        source,
	}
}

// RegisterTourist books a single day for a self-registering tourist. It is
// refused when the homestay already has a booking of any status that day.
func (s *Service) RegisterTourist(ctx context.Context, ref HomestayRef, date time.Time, g Guest) (BookingRef, error) {
	if err := validateGuest(g); err != nil {
		return BookingRef{}, err
	}
	h, err := s.openHomestay(ctx, ref)
	if err != nil {
		return BookingRef{}, err
	}
	date = Day(date)

	b := newBooking(h.ID, date, g, models.SourceRegistration)
	err = s.repo.Atomically(ctx, []string{dayLockKey(h.ID, date)}, func(tx Repository) error {
		taken, err := tx.BookedOnDate(ctx, h.ID, date)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateBooking
		}
		return tx.CreateBookings(ctx, b)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateBooking) {
			s.log.Info().Uint("homestay_id", h.ID).Str("date", FormatDate(date)).Msg("registration rejected: day already booked")
		}
		return BookingRef{}, err
	}

	s.log.Info().Uint("homestay_id", h.ID).Str("date", FormatDate(date)).Str("booking_uid", b.BookingUid).Msg("tourist registered")
	return refOf(b), nil
}

// RegisterTouristRange books every day of [start, end] for one party.
// Days are inserted without checking for existing bookings.
func (s *Service) RegisterTouristRange(ctx context.Context, ref HomestayRef, start, end time.Time, g Guest) ([]BookingRef, error) {
	if err := validateGuest(g); err != nil {
		return nil, err
	}
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if rangeTooLong(start, end) {
		return nil, ErrRangeTooLong
	}
	h, err := s.openHomestay(ctx, ref)
	if err != nil {
		return nil, err
	}

	days := daysBetween(start, end)
	bookings := make([]*models.Booking, len(days))
	for i, d := range days {
		bookings[i] = newBooking(h.ID, d, g, models.SourceRegistration)
	}
	err = s.repo.Atomically(ctx, nil, func(tx Repository) error {
		return tx.CreateBookings(ctx, bookings...)
	})
	if err != nil {
		return nil, err
	}

	refs := make([]BookingRef, len(bookings))
	for i, b := range bookings {
		refs[i] = refOf(b)
	}
	s.log.Info().Uint("homestay_id", h.ID).Str("from", FormatDate(start)).Str("to", FormatDate(end)).
		Int("days", len(refs)).Msg("tourist registered for range")
	return refs, nil
}

// ReserveRoom books a specific room for one day.
func (s *Service) ReserveRoom(ctx context.Context, roomID uint, date time.Time, g Guest) (BookingRef, error) {
	if roomID == 0 || date.IsZero() || strings.TrimSpace(g.Name) == "" || g.NumPeople == 0 {
		return BookingRef{}, ErrMissingFields
	}
	if g.NumPeople < 0 {
		return BookingRef{}, ErrInvalidPartySize
	}
	if !ValidContactNumber(g.ContactNumber) {
		return BookingRef{}, ErrInvalidContact
	}
	room, err := s.repo.RoomByID(ctx, roomID)
	if err != nil {
		return BookingRef{}, err
	}
	if _, err := s.openHomestay(ctx, HomestayRef{ID: room.HomestayID}); err != nil {
		return BookingRef{}, err
	}
	date = Day(date)

	b := newBooking(room.HomestayID, date, g, models.SourceCalendar)
	b.RoomID = &room.ID
	err = s.repo.Atomically(ctx, []string{dayLockKey(room.HomestayID, date)}, func(tx Repository) error {
		taken, err := tx.RoomReservedOnDate(ctx, room.ID, date, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrRoomAlreadyReserved
		}
		return tx.CreateBookings(ctx, b)
	})
	if err != nil {
		if errors.Is(err, ErrRoomAlreadyReserved) {
			s.log.Info().Uint("room_id", room.ID).Str("date", FormatDate(date)).Msg("room reservation rejected: already reserved")
		}
		return BookingRef{}, err
	}
	return refOf(b), nil
}

// UpsertCalendarBooking applies an owner's calendar edit. The row is keyed
// on (homestay, date): an existing booking for that day is updated even
// when a different room is given. It reports whether a row was created.
func (s *Service) UpsertCalendarBooking(ctx context.Context, ownerID uint, e CalendarEntry) (BookingRef, bool, error) {
	if e.Date.IsZero() || e.Status == "" {
		return BookingRef{}, false, ErrMissingFields
	}
	if !e.Status.Valid() {
		return BookingRef{}, false, ErrInvalidStatus
	}
	people := 1
	if e.NumPeople != nil {
		if *e.NumPeople <= 0 {
			return BookingRef{}, false, ErrInvalidPartySize
		}
		people = *e.NumPeople
	}
	if !ValidContactNumber(e.ContactNumber) {
		return BookingRef{}, false, ErrInvalidContact
	}

	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return BookingRef{}, false, err
	}
	var roomID *uint
	if e.RoomID != nil && *e.RoomID != 0 {
		room, err := s.repo.RoomByID(ctx, *e.RoomID)
		if err != nil {
			return BookingRef{}, false, err
		}
		if room.HomestayID != h.ID {
			return BookingRef{}, false, ErrRoomNotFound
		}
		roomID = &room.ID
	}
	date := Day(e.Date)

	var (
		booking *models.Booking
		created bool
	)
	err = s.repo.Atomically(ctx, []string{dayLockKey(h.ID, date)}, func(tx Repository) error {
		existing, err := tx.FirstBookingOn(ctx, h.ID, date)
		if err != nil {
			return err
		}
		if roomID != nil && e.Status == models.BookingReserved {
			var exclude uint
			if existing != nil {
				exclude = existing.ID
			}
			taken, err := tx.RoomReservedOnDate(ctx, *roomID, date, exclude)
			if err != nil {
				return err
			}
			if taken {
				return ErrRoomAlreadyReserved
			}
		}

		if existing == nil {
			created = true
			existing = &models.Booking{
				BookingUid: uuid.New().String(),
				HomestayID: h.ID,
				Date:       date,
				Source:     models.SourceCalendar,
			}
		}
		existing.Status = e.Status
		existing.GuestName = strings.TrimSpace(e.GuestName)
		existing.NumPeople = &people
		existing.RoomID = roomID
		if e.ContactNumber != "" {
			existing.ContactNumber = strings.TrimSpace(e.ContactNumber)
		}
		booking = existing
		if created {
			return tx.CreateBookings(ctx, existing)
		}
		return tx.SaveBooking(ctx, existing)
	})
	if err != nil {
		return BookingRef{}, false, err
	}

	s.log.Info().Uint("homestay_id", h.ID).Str("date", FormatDate(date)).Str("status", string(e.Status)).
		Bool("created", created).Msg("calendar booking saved")
	return refOf(booking), created, nil
}

// Features are the amenity flags shown on the public homestay list.
type Features struct {
	MaxGuests        int  `json:"max_guests"`
	WifiAvailable    bool `json:"wifi_available"`
	VideokeAvailable bool `json:"videoke_available"`
	PetFriendly      bool `json:"pet_friendly"`
	BeachFront       bool `json:"beach_front"`
}

func featuresOf(h *models.Homestay) Features {
	return Features{
		MaxGuests:        h.MaxGuests,
		WifiAvailable:    h.WifiAvailable,
		VideokeAvailable: h.VideokeAvailable,
		PetFriendly:      h.PetFriendly,
		BeachFront:       h.BeachFront,
	}
}

func (s *Service) HomestayFeatures(ctx context.Context, ownerID uint) (Features, error) {
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return Features{}, err
	}
	return featuresOf(h), nil
}

func (s *Service) UpdateHomestayFeatures(ctx context.Context, ownerID uint, f Features) error {
	if f.MaxGuests <= 0 {
		return ErrInvalidPartySize
	}
	h, err := s.repo.HomestayByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	h.MaxGuests = f.MaxGuests
	h.WifiAvailable = f.WifiAvailable
	h.VideokeAvailable = f.VideokeAvailable
	h.PetFriendly = f.PetFriendly
	h.BeachFront = f.BeachFront
	return s.repo.SaveHomestay(ctx, h)
}
