package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/flowboard/flowboard/internal/web/handler/login"
	"github.com/flowboard/flowboard/internal/web/session"
)

// LocalsKey is the fiber.Locals key holding the session data of the
// authenticated user.
const LocalsKey = "SessionData"

// Middleware is a Fiber middleware that checks for user authentication.
func Middleware(c *fiber.Ctx) error {
	var (
		isLoginPage   = IsLoginPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, "/healthz") || strings.HasPrefix(originalURL, "/metrics") {
		return c.Next()
	}

	// Allow logout without authentication
	if IsLogoutPage(c) {
		return c.Next()
	}

	// get session cookie
	loginCookie := c.Cookies("session")

	// if no session cookie, redirect to login page
	if loginCookie == "" && !isLoginPage {
		return c.Redirect(login.Path)
	}

	// check session validity
	sessData := new(session.Data)
	if err := sessData.Read(loginCookie); err != nil {
		// If we're already on the login page, don't redirect (would cause loop)
		if isLoginPage {
			return c.Next()
		}

		return c.Redirect(login.Path)
	}

	// valid data in session
	if sessData.User.ID > 0 {
		sessDataValid = true
		c.Locals(LocalsKey, sessData)
	}

	if sessDataValid && isLoginPage {
		return c.Redirect("/dashboard")
	}

	return c.Next()
}

// Current returns the session data stored by Middleware, or nil when the
// request is not authenticated.
func Current(c *fiber.Ctx) *session.Data {
	data, _ := c.Locals(LocalsKey).(*session.Data)
	return data
}

// RequireSuperuser is a guard for routes reserved to superusers. The
// superuser capability was resolved against the directory (or defaulted)
// at login time.
func RequireSuperuser(c *fiber.Ctx) error {
	data := Current(c)
	if data == nil {
		return c.Redirect(login.Path)
	}

	if !data.Superuser {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "superuser access required",
		})
	}

	return c.Next()
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}

// IsLogoutPage checks if the current request is for the logout page.
func IsLogoutPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, "/logout")
}
