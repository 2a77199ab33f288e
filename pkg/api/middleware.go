package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"digitrack/pkg/accounts"
	"digitrack/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const claimsKey = "claims"

func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.Now()

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(t)).
			Msg("request")
	}
}

func RateLimitMiddleware(rps int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many requests.",
			})
			return
		}
		c.Next()
	}
}

// authenticate attaches session claims from the cookie or a bearer token.
// The account is reloaded on every request so suspensions and role changes
// apply to live sessions. Requests without a valid session continue as
// anonymous.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		} else if cookie, err := c.Cookie(auth.CookieName); err == nil {
			token = cookie
		}
		if token == "" {
			c.Next()
			return
		}

		claims, err := s.sessions.Parse(token)
		if err != nil {
			s.log.Debug().Err(err).Msg("ignoring session")
			c.Next()
			return
		}
		account, err := s.accounts.ByID(c.Request.Context(), claims.AccountID)
		switch {
		case errors.Is(err, accounts.ErrUserNotFound):
			s.log.Debug().Uint("account_id", claims.AccountID).Msg("ignoring session for unknown account")
		case err != nil:
			s.log.Error().Err(err).Msg("load session account")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": internalMessage})
			return
		case !account.IsActive:
			s.log.Info().Uint("account_id", account.ID).Msg("ignoring session for suspended account")
		default:
			claims.Role = account.Role
			claims.Username = account.Username
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := auth.RoleAnonymous
		claims := claimsOf(c)
		if claims != nil {
			role = string(claims.Role)
		}
		ok, err := auth.Allowed(s.enforcer, role, c.FullPath(), c.Request.Method)
		if err != nil {
			s.log.Error().Err(err).Msg("route policy")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": internalMessage})
			return
		}
		if !ok {
			if claims == nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required."})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "You do not have permission to access this page."})
			return
		}
		c.Next()
	}
}

func claimsOf(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// accountID is only called behind authorize, which guarantees a session
// for every non-anonymous route.
func accountID(c *gin.Context) uint {
	if claims := claimsOf(c); claims != nil {
		return claims.AccountID
	}
	return 0
}
