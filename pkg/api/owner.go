package api

import (
	"net/http"
	"strconv"
	"strings"

	"digitrack/pkg/apperrors"
	"digitrack/pkg/booking"
	"digitrack/pkg/models"

	"github.com/gin-gonic/gin"
)

type calendarBookingRequest struct {
	Date          string   `json:"date"`
	Status        string   `json:"status"`
	GuestName     string   `json:"guest_name"`
	NumPeople     *flexInt `json:"num_people"`
	RoomID        *flexInt `json:"room_id"`
	ContactNumber string   `json:"contact_number" binding:"omitempty,contactnumber"`
}

// upsertBooking saves the owner's edit of one calendar day.
func (s *Server) upsertBooking(c *gin.Context) {
	var req calendarBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		s.fail(c, err)
		return
	}

	ref, created, err := s.bookings.UpsertCalendarBooking(c.Request.Context(), accountID(c), booking.CalendarEntry{
		Date:          date,
		Status:        models.BookingStatus(strings.TrimSpace(req.Status)),
		GuestName:     req.GuestName,
		NumPeople:     req.NumPeople.intPtr(),
		ContactNumber: req.ContactNumber,
		RoomID:        req.RoomID.uintPtr(),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created, "booking": ref})
}

type calendarResponse struct {
	Success bool `json:"success"`
	booking.CalendarView
}

// calendarData returns the owner's calendar. Optional from/to query values
// widen the availability map beyond the current and next month.
func (s *Server) calendarData(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := s.bookings.CalendarData(ctx, accountID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if from, to := c.Query("from"), c.Query("to"); from != "" && to != "" {
		start, err := booking.ParseDate(from)
		if err != nil {
			s.fail(c, err)
			return
		}
		end, err := booking.ParseDate(to)
		if err != nil {
			s.fail(c, err)
			return
		}
		view.Availability, err = s.bookings.ComputeAvailability(ctx, view.HomestayID, start, end)
		if err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, calendarResponse{Success: true, CalendarView: view})
}

func (s *Server) myTouristChartData(c *gin.Context) {
	year, err := intQuery(c, "year", s.now().Year())
	if err != nil {
		s.fail(c, err)
		return
	}
	source, err := booking.ParseSource(c.Query("source"))
	if err != nil {
		s.fail(c, err)
		return
	}
	counts, err := s.bookings.OwnerGuestCounts(c.Request.Context(), accountID(c), year, source)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chartResponse(counts))
}

func chartResponse(counts booking.GuestCounts) gin.H {
	return gin.H{
		"success":    true,
		"monthly":    counts.MonthlyByName(),
		"yearly":     counts.YearlyByName(),
		"year":       counts.Year,
		"year_range": counts.YearRange(),
	}
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("Invalid " + name + ".")
	}
	return v, nil
}

func (s *Server) myTourists(c *gin.Context) {
	tourists, err := s.bookings.OwnerTourists(c.Request.Context(), accountID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tourists": tourists})
}

type roomRequest struct {
	RoomNumber string  `json:"room_number"`
	Capacity   flexInt `json:"capacity"`
	Status     string  `json:"status"`
}

func (s *Server) addRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	room, err := s.bookings.AddRoom(c.Request.Context(), accountID(c), booking.RoomInput{
		RoomNumber: req.RoomNumber,
		Capacity:   int(req.Capacity),
		Status:     models.RoomStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room_id": room.ID, "room": room})
}

func (s *Server) listRooms(c *gin.Context) {
	rooms, err := s.bookings.ListRooms(c.Request.Context(), accountID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": rooms})
}

type updateRoomRequest struct {
	RoomID     *flexInt `json:"room_id"`
	RoomNumber *string  `json:"room_number"`
	Capacity   *flexInt `json:"capacity"`
	Status     *string  `json:"status"`
}

func (s *Server) updateRoom(c *gin.Context) {
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	roomID := req.RoomID.uintPtr()
	if roomID == nil {
		badRequest(c, "Missing room ID.")
		return
	}
	u := booking.RoomUpdate{RoomNumber: req.RoomNumber, Capacity: req.Capacity.intPtr()}
	if req.Status != nil {
		st := models.RoomStatus(strings.TrimSpace(*req.Status))
		u.Status = &st
	}

	room, err := s.bookings.UpdateRoom(c.Request.Context(), accountID(c), *roomID, u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": room})
}

func (s *Server) deleteRoom(c *gin.Context) {
	var req struct {
		RoomID *flexInt `json:"room_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	roomID := req.RoomID.uintPtr()
	if roomID == nil {
		badRequest(c, "Missing room ID.")
		return
	}
	if err := s.bookings.DeleteRoom(c.Request.Context(), accountID(c), *roomID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) homestayFeatures(c *gin.Context) {
	features, err := s.bookings.HomestayFeatures(c.Request.Context(), accountID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "features": features})
}

func (s *Server) updateHomestayFeatures(c *gin.Context) {
	var req booking.Features
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	if err := s.bookings.UpdateHomestayFeatures(c.Request.Context(), accountID(c), req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password1" form:"new_password1"`
	ConfirmPassword string `json:"new_password2" form:"new_password2"`
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	err := s.accounts.ChangePassword(c.Request.Context(), accountID(c), req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully."})
}

type editProfileRequest struct {
	Name  string `json:"name" form:"name" binding:"required"`
	Email string `json:"email" form:"email" binding:"omitempty,email"`
}

// editProfile serves both owners and MTO staff.
func (s *Server) editProfile(c *gin.Context) {
	var req editProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	profile, err := s.accounts.EditProfile(c.Request.Context(), accountID(c), req.Name, req.Email)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated.", "user": profile})
}
