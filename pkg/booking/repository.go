package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"digitrack/pkg/database"
	"digitrack/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingFilter selects bookings for availability and statistics views.
// Zero values mean "no restriction".
type BookingFilter struct {
	HomestayID     *uint
	From, To       time.Time
	Source         models.BookingSource
	PositivePeople bool
	RoomsOnly      bool
	Status         models.BookingStatus
}

// TouristFilter selects rows for the tourist lists and searches.
type TouristFilter struct {
	HomestayID     *uint
	Query          string
	PositivePeople bool
	ByDate         bool
}

type TouristRow struct {
	GuestName     string    `json:"guest_name"`
	ContactNumber string    `json:"contact_number"`
	HomestayName  string    `json:"homestay_name"`
	Date          time.Time `json:"-"`
	NumPeople     *int      `json:"num_people"`
	Status        string    `json:"status"`
}

// Repository is the booking store the resolver reads and writes through.
type Repository interface {
	// Atomically runs fn in one transaction holding the given lock keys.
	Atomically(ctx context.Context, lockKeys []string, fn func(Repository) error) error

	HomestayByID(ctx context.Context, id uint) (*models.Homestay, error)
	HomestayByName(ctx context.Context, name string) (*models.Homestay, error)
	HomestayByOwner(ctx context.Context, ownerID uint) (*models.Homestay, error)
	ActiveHomestays(ctx context.Context) ([]models.Homestay, error)
	SaveHomestay(ctx context.Context, h *models.Homestay) error

	RoomByID(ctx context.Context, id uint) (*models.Room, error)
	RoomsByHomestay(ctx context.Context, homestayID uint) ([]models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	SaveRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id uint) error

	// BookedOnDate reports whether the homestay has any booking on date.
	BookedOnDate(ctx context.Context, homestayID uint, date time.Time) (bool, error)
	RoomReservedOnDate(ctx context.Context, roomID uint, date time.Time, excludeID uint) (bool, error)
	FirstBookingOn(ctx context.Context, homestayID uint, date time.Time) (*models.Booking, error)
	FindBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	LatestBookingDate(ctx context.Context, homestayID uint) (time.Time, bool, error)
	GuestTotals(ctx context.Context) (map[uint]int, error)
	Tourists(ctx context.Context, f TouristFilter) ([]TouristRow, error)
	CreateBookings(ctx context.Context, bookings ...*models.Booking) error
	SaveBooking(ctx context.Context, b *models.Booking) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Atomically(ctx context.Context, lockKeys []string, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.LockKeys(ctx, tx, lockKeys...); err != nil {
			return err
		}
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) HomestayByID(ctx context.Context, id uint) (*models.Homestay, error) {
	var h models.Homestay
	err := r.db.WithContext(ctx).Preload("Owner").First(&h, id).Error
	return homestayResult(&h, err)
}

func (r *GormRepository) HomestayByName(ctx context.Context, name string) (*models.Homestay, error) {
	var h models.Homestay
	err := r.db.WithContext(ctx).Preload("Owner").Where("name = ?", name).Order("id").First(&h).Error
	return homestayResult(&h, err)
}

func (r *GormRepository) HomestayByOwner(ctx context.Context, ownerID uint) (*models.Homestay, error) {
	var h models.Homestay
	err := r.db.WithContext(ctx).Preload("Owner").Where("owner_id = ?", ownerID).First(&h).Error
	return homestayResult(&h, err)
}

func homestayResult(h *models.Homestay, err error) (*models.Homestay, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHomestayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load homestay: %w", err)
	}
	return h, nil
}

func (r *GormRepository) ActiveHomestays(ctx context.Context) ([]models.Homestay, error) {
	var homestays []models.Homestay
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Joins("JOIN accounts ON accounts.id = homestays.owner_id").
		Where("accounts.is_active = ?", true).
		Order("homestays.name").
		Find(&homestays).Error
	if err != nil {
		return nil, fmt.Errorf("list homestays: %w", err)
	}
	return homestays, nil
}

func (r *GormRepository) SaveHomestay(ctx context.Context, h *models.Homestay) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(h).Error; err != nil {
		return fmt.Errorf("save homestay: %w", err)
	}
	return nil
}

func (r *GormRepository) RoomByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room: %w", err)
	}
	return &room, nil
}

func (r *GormRepository) RoomsByHomestay(ctx context.Context, homestayID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).Where("homestay_id = ?", homestayID).Order("room_number").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

func (r *GormRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	return roomWriteResult(r.db.WithContext(ctx).Create(room).Error)
}

func (r *GormRepository) SaveRoom(ctx context.Context, room *models.Room) error {
	return roomWriteResult(r.db.WithContext(ctx).Save(room).Error)
}

func roomWriteResult(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRoomNumberTaken
	}
	if err != nil {
		return fmt.Errorf("save room: %w", err)
	}
	return nil
}

// DeleteRoom removes the room together with its bookings.
func (r *GormRepository) DeleteRoom(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("delete room bookings: %w", err)
		}
		res := tx.Delete(&models.Room{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete room: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}

func (r *GormRepository) BookedOnDate(ctx context.Context, homestayID uint, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("homestay_id = ? AND date = ?", homestayID, Day(date)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check homestay bookings: %w", err)
	}
	return count > 0, nil
}

func (r *GormRepository) RoomReservedOnDate(ctx context.Context, roomID uint, date time.Time, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("room_id = ? AND date = ? AND status = ?", roomID, Day(date), models.BookingReserved)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check room bookings: %w", err)
	}
	return count > 0, nil
}

// FirstBookingOn returns the oldest booking of a homestay on date, or nil.
func (r *GormRepository) FirstBookingOn(ctx context.Context, homestayID uint, date time.Time) (*models.Booking, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).
		Where("homestay_id = ? AND date = ?", homestayID, Day(date)).
		Order("id").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return &b, nil
}

func (r *GormRepository) FindBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if f.HomestayID != nil {
		q = q.Where("homestay_id = ?", *f.HomestayID)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", Day(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", Day(f.To))
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PositivePeople {
		q = q.Where("num_people > 0")
	}
	if f.RoomsOnly {
		q = q.Where("room_id IS NOT NULL")
	}

	var bookings []models.Booking
	if err := q.Order("date").Order("id").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (r *GormRepository) LatestBookingDate(ctx context.Context, homestayID uint) (time.Time, bool, error) {
	var b models.Booking
	err := r.db.WithContext(ctx).Where("homestay_id = ?", homestayID).Order("date DESC").First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest booking: %w", err)
	}
	return b.Date, true, nil
}

func (r *GormRepository) GuestTotals(ctx context.Context) (map[uint]int, error) {
	var rows []struct {
		HomestayID uint
		Total      int
	}
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("homestay_id, COALESCE(SUM(num_people), 0) AS total").
		Where("num_people > 0").
		Group("homestay_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sum guests: %w", err)
	}
	totals := make(map[uint]int, len(rows))
	for _, row := range rows {
		totals[row.HomestayID] = row.Total
	}
	return totals, nil
}

func (r *GormRepository) Tourists(ctx context.Context, f TouristFilter) ([]TouristRow, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("bookings.guest_name, bookings.contact_number, homestays.name AS homestay_name, " +
			"bookings.date, bookings.num_people, bookings.status").
		Joins("JOIN homestays ON homestays.id = bookings.homestay_id")
	if f.HomestayID != nil {
		q = q.Where("bookings.homestay_id = ?", *f.HomestayID)
	}
	if f.PositivePeople {
		q = q.Where("bookings.num_people > 0")
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(bookings.guest_name) LIKE ? OR LOWER(bookings.contact_number) LIKE ? OR LOWER(homestays.name) LIKE ?",
			like, like, like)
	}
	if f.ByDate {
		q = q.Order("bookings.date DESC")
	} else {
		q = q.Order("bookings.created_at DESC")
	}
	q = q.Order("bookings.id DESC")

	var rows []TouristRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tourists: %w", err)
	}
	return rows, nil
}

func (r *GormRepository) CreateBookings(ctx context.Context, bookings ...*models.Booking) error {
	for _, b := range bookings {
		if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error; err != nil {
			return bookingWriteResult(err)
		}
	}
	return nil
}

func (r *GormRepository) SaveBooking(ctx context.Context, b *models.Booking) error {
	return bookingWriteResult(r.db.WithContext(ctx).Omit(clause.Associations).Save(b).Error)
}

func bookingWriteResult(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRoomAlreadyReserved
	}
	if err != nil {
		return fmt.Errorf("save booking: %w", err)
	}
	return nil
}
