package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// UserIDHeader carries the caller identity. It is set by the trusted
// gateway in front of this service after it has authenticated the user.
const UserIDHeader = "X-User-Id"

// Principal represents the authenticated identity for a request.
type Principal struct {
	UserID string
}

// principalFromRequest builds a Principal from the gateway header. The
// value is copied out of the request buffer, which fiber reuses once the
// handler returns.
func principalFromRequest(c *fiber.Ctx) (Principal, bool) {
	id := utils.CopyString(strings.TrimSpace(c.Get(UserIDHeader)))
	if id == "" {
		return Principal{}, false
	}
	return Principal{UserID: id}, true
}

func currentPrincipal(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals("principal").(Principal)
	return p, ok && p.UserID != ""
}
