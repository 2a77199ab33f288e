package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"digitrack/pkg/accounts"
	"digitrack/pkg/booking"
	"digitrack/pkg/models"

	"github.com/gin-gonic/gin"
)

const (
	mtoDashboard    = "/mto-admin/"
	mtoManagement   = "/mto-admin/?show=management"
	registeredFlash = "Tourist registered successfully!"
)

var touristFormFields = []string{
	"name", "homestayName", "contactNumber", "region", "province",
	"city", "barangay", "dateArrival", "dateDeparture", "numTourist",
}

// formPages returns where the registration form redirects on failure and
// on success. Owners post the same form from their own dashboard.
func formPages(c *gin.Context) (string, string) {
	if claims := claimsOf(c); claims != nil && claims.Role == models.RoleOwner {
		home := landingPage(models.RoleOwner)
		return home, home
	}
	return mtoDashboard, mtoManagement
}

// registerTouristForm books every day of a stay from the dashboard form.
func (s *Server) registerTouristForm(c *gin.Context) {
	dashboard, done := formPages(c)
	for _, f := range touristFormFields {
		if strings.TrimSpace(c.PostForm(f)) == "" {
			s.redirectWithFlash(c, dashboard, "Missing required field: "+f)
			return
		}
	}
	arrival, err := booking.ParseDate(c.PostForm("dateArrival"))
	if err != nil {
		s.redirectWithFlash(c, dashboard, s.messageOf(c, err))
		return
	}
	departure, err := booking.ParseDate(c.PostForm("dateDeparture"))
	if err != nil {
		s.redirectWithFlash(c, dashboard, s.messageOf(c, err))
		return
	}
	people, err := strconv.Atoi(strings.TrimSpace(c.PostForm("numTourist")))
	if err != nil {
		s.redirectWithFlash(c, dashboard, s.messageOf(c, booking.ErrInvalidPartySize))
		return
	}

	refs, err := s.bookings.RegisterTouristRange(c.Request.Context(),
		booking.HomestayRef{Name: c.PostForm("homestayName")},
		arrival, departure,
		booking.Guest{
			Name:          c.PostForm("name"),
			ContactNumber: c.PostForm("contactNumber"),
			Region:        c.PostForm("region"),
			Province:      c.PostForm("province"),
			City:          c.PostForm("city"),
			Barangay:      c.PostForm("barangay"),
			NumPeople:     people,
		})
	if err != nil {
		s.redirectWithFlash(c, dashboard, s.messageOf(c, err))
		return
	}
	s.log.Info().Int("days", len(refs)).Str("homestay", c.PostForm("homestayName")).Msg("tourist registered from dashboard")
	s.redirectWithFlash(c, done, registeredFlash)
}

// touristChartData sums guests across homestays for the year_range years
// ending at year.
func (s *Server) touristChartData(c *gin.Context) {
	year, err := intQuery(c, "year", s.now().Year())
	if err != nil {
		s.fail(c, err)
		return
	}
	yearRange, err := intQuery(c, "year_range", s.opts.StatsYearRange)
	if err != nil {
		s.fail(c, err)
		return
	}
	q, err := booking.TrailingWindow(year, yearRange)
	if err != nil {
		s.fail(c, err)
		return
	}
	if q.Source, err = booking.ParseSource(c.Query("source")); err != nil {
		s.fail(c, err)
		return
	}
	if id, err := intQuery(c, "homestay_id", 0); err != nil {
		s.fail(c, err)
		return
	} else if id > 0 {
		hid := uint(id)
		q.HomestayID = &hid
	}

	counts, err := s.bookings.AggregateGuestCounts(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, chartResponse(counts))
}

func (s *Server) touristList(c *gin.Context) {
	s.writeTourists(c, "")
}

func (s *Server) touristSearch(c *gin.Context) {
	s.writeTourists(c, c.Query("q"))
}

func (s *Server) writeTourists(c *gin.Context, query string) {
	tourists, err := s.bookings.ListTourists(c.Request.Context(), booking.TouristFilter{Query: query, PositivePeople: true})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tourists": tourists})
}

type homestayUserRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	HomestayName string `json:"homestayName"`
	OwnerName    string `json:"ownerName"`
	Address      string `json:"address"`
	Status       string `json:"status"`
}

func (s *Server) addHomestayUser(c *gin.Context) {
	var req homestayUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	user, err := s.accounts.AddHomestayUser(c.Request.Context(), accounts.NewHomestayUser{
		ActorID:      accountID(c),
		Username:     req.Username,
		Password:     req.Password,
		HomestayName: req.HomestayName,
		OwnerName:    req.OwnerName,
		Address:      req.Address,
		Status:       req.Status,
	})
	var taken *accounts.UsernameTakenError
	if errors.As(err, &taken) {
		c.JSON(http.StatusConflict, gin.H{
			"success":            false,
			"error":              taken.Error(),
			"suggested_username": taken.Suggested,
		})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (s *Server) editHomestayUser(c *gin.Context) {
	var req homestayUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	user, err := s.accounts.EditHomestayUser(c.Request.Context(), accounts.HomestayUserEdit{
		ActorID:      accountID(c),
		Username:     req.Username,
		HomestayName: req.HomestayName,
		OwnerName:    req.OwnerName,
		Address:      req.Address,
		Status:       req.Status,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User and homestay updated.", "user": user})
}

func (s *Server) homestayUsers(c *gin.Context) {
	s.writeHomestayUsers(c, "")
}

func (s *Server) homestaySearch(c *gin.Context) {
	s.writeHomestayUsers(c, c.Query("q"))
}

func (s *Server) writeHomestayUsers(c *gin.Context, query string) {
	users, err := s.accounts.ListHomestayUsers(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// accountEvents lists recent account additions and changes.
func (s *Server) accountEvents(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	events, err := s.accounts.ListEvents(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": events})
}
