package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"digitrack/pkg/accounts"
	"digitrack/pkg/auth"
	"digitrack/pkg/loginguard"
	"digitrack/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

const invalidLoginMessage = "Invalid username or password."

func landingPage(role models.Role) string {
	if role == models.RoleMTO {
		return "/mto-admin/"
	}
	return "/homestay/"
}

// safeNext keeps redirects on this site.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`) {
		return next
	}
	return fallback
}

// wantsJSON separates the login form from the AJAX login.
func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON ||
		c.GetHeader("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON)
}

// login checks the lock before the password, so a locked username never
// reaches the account store.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		s.loginFailed(c, http.StatusBadRequest, loginguard.State{}, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.loginFailed(c, http.StatusUnauthorized, loginguard.State{}, invalidLoginMessage)
		return
	}
	ctx := c.Request.Context()

	state, err := s.guard.CheckLock(ctx, req.Username)
	if err != nil {
		s.fail(c, fmt.Errorf("check login lock: %w", err))
		return
	}
	if state.Locked {
		s.loginBlocked(c, state)
		return
	}

	account, err := s.authn.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		state, err := s.guard.RecordFailure(ctx, req.Username)
		if err != nil {
			s.fail(c, fmt.Errorf("record login failure: %w", err))
			return
		}
		if state.Locked {
			s.loginBlocked(c, state)
			return
		}
		s.loginFailed(c, http.StatusUnauthorized, state, invalidLoginMessage)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := s.guard.RecordSuccess(ctx, req.Username); err != nil {
		s.log.Warn().Err(err).Str("username", account.Username).Msg("clear login attempts")
	}
	token, err := s.sessions.Issue(account)
	if err != nil {
		s.fail(c, fmt.Errorf("issue session: %w", err))
		return
	}
	s.setSession(c, token, int(s.sessions.TTL().Seconds()))

	landing := landingPage(account.Role)
	if !wantsJSON(c) {
		c.Redirect(http.StatusFound, safeNext(req.Next, landing))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"blocked":   false,
		"remaining": 0,
		"message":   "Login successful.",
		"role":      account.Role,
		"redirect":  landing,
	})
}

func (s *Server) loginBlocked(c *gin.Context, state loginguard.State) {
	msg := fmt.Sprintf("Too many failed attempts. Try again in %d seconds.", state.RemainingSeconds)
	s.loginFailed(c, http.StatusTooManyRequests, state, msg)
}

func (s *Server) loginFailed(c *gin.Context, status int, state loginguard.State, msg string) {
	if !wantsJSON(c) {
		s.redirectWithFlash(c, "/login", msg)
		return
	}
	c.JSON(status, gin.H{
		"success":   false,
		"blocked":   state.Locked,
		"remaining": state.RemainingSeconds,
		"message":   msg,
	})
}

func (s *Server) logout(c *gin.Context) {
	s.setSession(c, "", -1)
	if !wantsJSON(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out."})
}

func (s *Server) setSession(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", s.opts.SecureCookies, true)
}
