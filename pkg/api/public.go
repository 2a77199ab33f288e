package api

import (
	"net/http"
	"strings"
	"time"

	"digitrack/pkg/booking"

	"github.com/gin-gonic/gin"
)

func (s *Server) listHomestays(c *gin.Context) {
	homestays, err := s.bookings.PublicHomestays(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "homestays": homestays})
}

type registerTouristRequest struct {
	Name          string  `json:"name" binding:"required"`
	HomestayName  string  `json:"homestayName" binding:"required"`
	ContactNumber string  `json:"contactNumber" binding:"required,contactnumber"`
	Region        string  `json:"region" binding:"required"`
	Province      string  `json:"province" binding:"required"`
	City          string  `json:"city" binding:"required"`
	Barangay      string  `json:"barangay" binding:"required"`
	DateArrival   string  `json:"dateArrival" binding:"required"`
	DateDeparture string  `json:"dateDeparture" binding:"required"`
	NumTourist    flexInt `json:"numTourist" binding:"required"`
}

// registerTourist books the arrival day of a walk-in tourist.
func (s *Server) registerTourist(c *gin.Context) {
	var req registerTouristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	arrival, err := booking.ParseDate(req.DateArrival)
	if err != nil {
		s.fail(c, err)
		return
	}

	ref, err := s.bookings.RegisterTourist(c.Request.Context(),
		booking.HomestayRef{Name: req.HomestayName},
		arrival,
		booking.Guest{
			Name:          req.Name,
			ContactNumber: req.ContactNumber,
			Region:        req.Region,
			Province:      req.Province,
			City:          req.City,
			Barangay:      req.Barangay,
			NumPeople:     int(req.NumTourist),
		})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Tourist registered successfully!",
		"booking_uid": ref.UID,
	})
}

type reserveRoomRequest struct {
	RoomID        flexInt `json:"room_id"`
	Date          string  `json:"date"`
	GuestName     string  `json:"guest_name"`
	NumPeople     flexInt `json:"num_people"`
	ContactNumber string  `json:"contact_number" binding:"omitempty,contactnumber"`
}

func (s *Server) reserveRoom(c *gin.Context) {
	var req reserveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}
	roomID := uint(0)
	if id := req.RoomID.uintPtr(); id != nil {
		roomID = *id
	}

	ref, err := s.bookings.ReserveRoom(c.Request.Context(), roomID, date, booking.Guest{
		Name:          req.GuestName,
		ContactNumber: req.ContactNumber,
		NumPeople:     int(req.NumPeople),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Room reserved successfully!",
		"booking_id":  ref.ID,
		"booking_uid": ref.UID,
	})
}

// optionalDate parses s, leaving the zero time for an empty value so the
// service reports the missing field.
func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return booking.ParseDate(s)
}
