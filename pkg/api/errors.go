package api

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"digitrack/pkg/apperrors"
	"digitrack/pkg/booking"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const internalMessage = "Internal server error."

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// messageOf is the text shown to the user for err. Internal errors are
// logged and replaced with a generic message.
func (s *Server) messageOf(c *gin.Context, err error) string {
	if msg, ok := apperrors.Message(err); ok {
		return msg
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	return internalMessage
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"success": false, "error": s.messageOf(c, err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// bindingMessage describes the first failed field of a request body.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return "Missing required field: " + fe.Field()
		case booking.ContactNumberTag:
			return booking.ErrInvalidContact.Error()
		}
		return "Invalid value for field: " + fe.Field()
	}
	if errors.Is(err, errNotANumber) {
		return "Numeric fields must be whole numbers."
	}
	return "Invalid request body."
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = f.Tag.Get("form")
	}
	if name == "" {
		return f.Name
	}
	return name
}

var errNotANumber = errors.New("not a number")

// flexInt accepts a JSON number or a numeric string, as sent by HTML forms
// serialized to JSON.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return errNotANumber
	}
	*n = flexInt(v)
	return nil
}

func (n *flexInt) intPtr() *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}

// uintPtr treats missing and non-positive ids as unset.
func (n *flexInt) uintPtr() *uint {
	if n == nil || *n <= 0 {
		return nil
	}
	v := uint(*n)
	return &v
}

const flashCookie = "flash"

// redirectWithFlash stores a one-shot message for the next page and
// redirects there.
func (s *Server) redirectWithFlash(c *gin.Context, location, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, url.QueryEscape(msg), 60, "/", "", s.opts.SecureCookies, true)
	c.Redirect(http.StatusFound, location)
}
