package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"digitrack/pkg/accounts"
	"digitrack/pkg/auth"
	"digitrack/pkg/booking"
	"digitrack/pkg/loginguard"
	"digitrack/pkg/models"

	"github.com/casbin/casbin"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
}

type Options struct {
	LoginRequestsPerSecond int
	StatsYearRange         int
	SecureCookies          bool
}

// Deps are the services behind the HTTP surface. Authenticator and Clock
// are optional and default to Accounts and time.Now.
type Deps struct {
	Bookings      *booking.Service
	Accounts      *accounts.Service
	Authenticator Authenticator
	Guard         *loginguard.Guard
	Sessions      *auth.Sessions
	Enforcer      *casbin.Enforcer
	Log           zerolog.Logger
	Options       Options
	Clock         func() time.Time
}

type Server struct {
	router   *gin.Engine
	bookings *booking.Service
	accounts *accounts.Service
	authn    Authenticator
	guard    *loginguard.Guard
	sessions *auth.Sessions
	enforcer *casbin.Enforcer
	log      zerolog.Logger
	opts     Options
	now      func() time.Time
}

func NewServer(d Deps) (*Server, error) {
	if err := setupValidator(); err != nil {
		return nil, err
	}
	if d.Bookings == nil || d.Accounts == nil || d.Guard == nil || d.Sessions == nil || d.Enforcer == nil {
		return nil, errors.New("api: missing dependency")
	}
	if d.Authenticator == nil {
		d.Authenticator = d.Accounts
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Options.LoginRequestsPerSecond <= 0 {
		d.Options.LoginRequestsPerSecond = 10
	}
	if d.Options.StatsYearRange <= 0 {
		d.Options.StatsYearRange = booking.DefaultYearRange
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(d.Log))

	s := &Server{
		router:   router,
		bookings: d.Bookings,
		accounts: d.Accounts,
		authn:    d.Authenticator,
		guard:    d.Guard,
		sessions: d.Sessions,
		enforcer: d.Enforcer,
		log:      d.Log.With().Str("component", "api").Logger(),
		opts:     d.Options,
		now:      d.Clock,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.router.Group("/", s.authenticate(), s.authorize())

	r.GET("/manage/health", s.healthCheck)
	r.GET("/api/homestays", s.listHomestays)
	r.POST("/api/register-tourist", s.registerTourist)
	r.POST("/api/reserve-room", s.reserveRoom)
	r.POST("/login", RateLimitMiddleware(s.opts.LoginRequestsPerSecond), s.login)
	r.POST("/logout", s.logout)

	r.POST("/api/booking", s.upsertBooking)
	r.GET("/api/calendar-data", s.calendarData)
	r.GET("/api/my-tourist-chart-data", s.myTouristChartData)
	r.GET("/api/my-tourists", s.myTourists)
	r.POST("/api/room", s.addRoom)
	r.GET("/api/rooms", s.listRooms)
	r.POST("/api/update-room", s.updateRoom)
	r.POST("/api/delete-room", s.deleteRoom)
	r.GET("/api/get_homestay_features", s.homestayFeatures)
	r.POST("/api/update_homestay_features", s.updateHomestayFeatures)
	r.POST("/api/change-password", s.changePassword)
	r.POST("/api/edit_user", s.editProfile)

	r.POST("/register-tourist", s.registerTouristForm)
	r.GET("/api/tourist-chart-data", s.touristChartData)
	r.GET("/api/tourist-list", s.touristList)
	r.GET("/api/tourist-search", s.touristSearch)
	r.POST("/api/add_homestay_user", s.addHomestayUser)
	r.POST("/api/edit_homestay_user", s.editHomestayUser)
	r.GET("/api/homestay_users", s.homestayUsers)
	r.GET("/api/homestay-search", s.homestaySearch)
	r.GET("/api/admin_log_users", s.accountEvents)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

var validatorOnce sync.Once

// setupValidator registers the contactnumber tag with gin's validator and
// reports fields by their json names.
func setupValidator() error {
	var err error
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("api: unexpected validator engine")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		err = booking.RegisterValidators(v)
	})
	return err
}
