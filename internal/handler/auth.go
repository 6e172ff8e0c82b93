package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/deepika/ticketvelo/internal/config"
	"github.com/deepika/ticketvelo/internal/utils"
)

// AuthHandler issues guest identities.  There are no accounts or
// passwords: a guest asks for a token, receives a random buyer id
// signed into a short-lived JWT, and uses it for purchases.  The rest
// of the system treats the id as an opaque value.
type AuthHandler struct {
	Cfg config.Config
}

// NewAuthHandler constructs an AuthHandler with the given config.
func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

type guestResp struct {
	UserID  uint64    `json:"user_id"`
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// GuestLogin handles POST /v1/auth/guest.  It generates a random guest
// id and returns it together with a signed access token.
func (h *AuthHandler) GuestLogin(c echo.Context) error {
	// uuid.ID() yields a random 32-bit value; keeping ids in uint32
	// range avoids precision loss when the claim round-trips through
	// JSON numbers.
	userID := uint64(uuid.New().ID())
	if userID == 0 {
		userID = 1
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, guestResp{
		UserID:  userID,
		Token:   access.Token,
		Expires: access.Exp,
	})
}
