package models

import (
	"time"
)

type Role string

const (
	RoleMTO   Role = "mto"
	RoleOwner Role = "owner"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomReserved    RoomStatus = "reserved"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomReserved, RoomOccupied, RoomMaintenance:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingAvailable BookingStatus = "available"
	BookingReserved  BookingStatus = "reserved"
)

func (s BookingStatus) Valid() bool {
	return s == BookingAvailable || s == BookingReserved
}

type BookingSource string

const (
	SourceRegistration BookingSource = "registration"
	SourceCalendar     BookingSource = "calendar"
)

type Account struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	Name         string `gorm:"size:255"`
	Email        string `gorm:"size:254"`
	Role         Role   `gorm:"size:20;not null;default:'owner'"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Homestay struct {
	ID               uint    `gorm:"primaryKey"`
	OwnerID          uint    `gorm:"not null;uniqueIndex"`
	Owner            Account `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Name             string  `gorm:"size:255;not null;index"`
	Address          string  `gorm:"size:255;not null"`
	MaxGuests        int     `gorm:"not null;default:4"`
	WifiAvailable    bool    `gorm:"not null;default:true"`
	VideokeAvailable bool    `gorm:"not null;default:false"`
	PetFriendly      bool    `gorm:"not null;default:false"`
	BeachFront       bool    `gorm:"not null;default:false"`
	Rooms            []Room  `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Room struct {
	ID         uint       `gorm:"primaryKey"`
	HomestayID uint       `gorm:"not null;uniqueIndex:ux_rooms_homestay_number"`
	RoomNumber string     `gorm:"size:50;not null;uniqueIndex:ux_rooms_homestay_number"`
	Capacity   int        `gorm:"not null;check:capacity > 0"`
	Status     RoomStatus `gorm:"size:20;not null;default:'available'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UnderMaintenance is the boolean view older screens expect.
func (r Room) UnderMaintenance() bool {
	return r.Status == RoomMaintenance
}

type Booking struct {
	ID            uint          `gorm:"primaryKey"`
	BookingUid    string        `gorm:"type:uuid;uniqueIndex;not null"`
	HomestayID    uint          `gorm:"not null;index:ix_bookings_homestay_date"`
	Homestay      Homestay      `gorm:"foreignKey:HomestayID;constraint:OnDelete:CASCADE"`
	RoomID        *uint         `gorm:"uniqueIndex:ux_bookings_room_date_reserved,where:status = 'reserved'"`
	Room          *Room         `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
	Date          time.Time     `gorm:"type:date;not null;index:ix_bookings_homestay_date;uniqueIndex:ux_bookings_room_date_reserved,where:status = 'reserved'"`
	Status        BookingStatus `gorm:"size:20;not null;default:'available'"`
	GuestName     string        `gorm:"size:255"`
	NumPeople     *int
	ContactNumber string        `gorm:"size:20"`
	Region        string        `gorm:"size:100"`
	Province      string        `gorm:"size:100"`
	City          string        `gorm:"size:100"`
	Barangay      string        `gorm:"size:100"`
	Source        BookingSource `gorm:"size:20;not null;default:'registration'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type EventAction string

const (
	EventAdded   EventAction = "added"
	EventChanged EventAction = "changed"
)

// AccountEvent records a change made to an account and by whom.
type AccountEvent struct {
	ID        uint        `gorm:"primaryKey"`
	AccountID uint        `gorm:"not null;index"`
	Account   Account     `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	ActorID   *uint       `gorm:"index"`
	Action    EventAction `gorm:"size:20;not null"`
	Summary   string      `gorm:"size:255"`
	Message   string      `gorm:"size:500"`
	CreatedAt time.Time   `gorm:"index"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{&Account{}, &Homestay{}, &Room{}, &Booking{}, &AccountEvent{}}
}
