// Package auth provides authentication middleware for the web application.
//
// The middleware handles session validation, user authentication checks,
// and automatic redirection for unauthenticated requests. It also adds
// the session data of the current user to the request context for use in
// handlers.
//
// The middleware performs the following tasks:
//   - Validates session cookies and redirects to login if invalid
//   - Adds the current session data to fiber.Locals for handler access
//   - Allows public access to login, logout, health and metrics endpoints
//   - Prevents redirect loops on authentication pages
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
//
// RequireSuperuser additionally guards routes reserved to superusers.
package auth
