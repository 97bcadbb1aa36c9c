package middleware

import (
	"net/url"
	"path"
	"strings"

	"go-storefront/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session_token"

const sessionKey = "session"

const (
	adminAPIPrefix  = "/api/admin"
	adminPagePrefix = "/admin"
)

// Decision is the admin gate outcome for one request.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return "allow"
	}
}

// LoadSession parses the token from the Authorization header or the session
// cookie and stores the claims for the rest of the request. It never
// rejects; the admin gate and handlers decide what a missing session means.
func LoadSession(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := TokenFromRequest(c); token != "" {
			if claims, err := tokens.ValidateToken(token); err == nil {
				c.Locals(sessionKey, claims)
			}
		}
		return c.Next()
	}
}

// TokenFromRequest returns the bearer token, falling back to the cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(SessionCookie)
}

// CurrentSession returns the claims loaded by LoadSession, or nil.
func CurrentSession(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(sessionKey).(*jwt.Claims)
	return claims
}

// Actor identifies the signed-in user for audit columns.
func Actor(c *fiber.Ctx) string {
	if s := CurrentSession(c); s != nil {
		return s.UserID.String()
	}
	return "system"
}

// classify reports whether p is an admin path and whether it is an API path.
// Paths are compared cleaned and lower-cased, since routing ignores case and
// trailing slashes.
func classify(p string) (admin, api bool) {
	p = path.Clean("/" + strings.ToLower(p))
	switch {
	case p == adminAPIPrefix || strings.HasPrefix(p, adminAPIPrefix+"/"):
		return true, true
	case p == adminPagePrefix || strings.HasPrefix(p, adminPagePrefix+"/"):
		return true, false
	}
	return false, false
}

// Evaluate decides whether a request for p with session s may proceed.
func Evaluate(p string, s *jwt.Claims) Decision {
	if admin, _ := classify(p); !admin {
		return Allow
	}
	if s == nil {
		return Unauthenticated
	}
	if !s.IsAdmin {
		return Forbidden
	}
	return Allow
}

// AdminGate enforces Evaluate. API paths get 401/403 with a {message} body;
// page paths are redirected to loginPath with the original URL as callback.
func AdminGate(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := Evaluate(c.Path(), CurrentSession(c))
		if decision == Allow {
			return c.Next()
		}

		if _, api := classify(c.Path()); !api {
			return c.Redirect(loginPath+"?callbackUrl="+url.QueryEscape(callbackURL(c)), fiber.StatusFound)
		}

		if decision == Unauthenticated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden: admin access required"})
	}
}

// callbackURL rebuilds the requested URL from its parts. OriginalURL holds the
// whole request target, which is an absolute URL for absolute-form requests.
func callbackURL(c *fiber.Ctx) string {
	target := c.BaseURL() + c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		target += "?" + string(q)
	}
	return target
}
